package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/civicdata/inspectscore/core/frame"
	"github.com/civicdata/inspectscore/inspection"
	"github.com/civicdata/inspectscore/pkg/errors"
	"github.com/civicdata/inspectscore/split"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare [export.csv]",
	Short: "Aggregate a raw violation export into train and test datasets",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := cfg.Source.Path
		if len(args) == 1 {
			source = args[0]
		}
		if source == "" {
			return errors.New("no source file: pass a path or set source.path")
		}

		delim := ','
		if cfg.Source.Delimiter != "" {
			delim = rune(cfg.Source.Delimiter[0])
		}
		raw, report, err := frame.LoadFile(source, frame.Options{
			Delimiter:  delim,
			Header:     cfg.Source.Header,
			LazyQuotes: true,
			Logger:     sess.Logger("loader"),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "read %d rows (%d malformed dropped)\n",
			report.RowsRead, report.RowsDropped)

		agg := inspection.NewAggregator(
			inspection.WithWorkers(sess.Workers()),
			inspection.WithLogger(sess.Logger("aggregate")),
		)
		dataset, summary, err := agg.Aggregate(raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(),
			"aggregated %d inspections (dropped: %d sentinel date, %d null score, %d unknown borough)\n",
			summary.Groups, summary.DroppedSentinelDate, summary.DroppedNullScore, summary.DroppedUnknownBorough)

		splitter := &split.GroupSplitter{
			KeyColumn:    "entity_id",
			TestFraction: cfg.Split.TestFraction,
			Seed:         cfg.Split.Seed,
			Logger:       sess.Logger("split"),
		}
		train, test, err := splitter.Split(dataset)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Prepare.OutputDir, 0o755); err != nil {
			return errors.Wrap(err, "create output dir")
		}
		trainPath := filepath.Join(cfg.Prepare.OutputDir, "train.csv")
		testPath := filepath.Join(cfg.Prepare.OutputDir, "test.csv")
		if err := inspection.WriteDataset(train, trainPath); err != nil {
			return err
		}
		if err := inspection.WriteDataset(test, testPath); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows) and %s (%d rows)\n",
			trainPath, train.NumRows(), testPath, test.NumRows())
		return nil
	},
}
