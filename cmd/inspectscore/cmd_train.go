package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/civicdata/inspectscore/automl"
	"github.com/civicdata/inspectscore/inspection"
	"github.com/civicdata/inspectscore/pipeline"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Search for the best regression model under the time budget",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		trainPath := filepath.Join(cfg.Prepare.OutputDir, "train.csv")
		train, err := inspection.ReadDataset(trainPath)
		if err != nil {
			return err
		}

		engine := automl.NewEngine(
			automl.WithWorkers(cfg.Search.Workers),
			automl.WithSeed(cfg.Split.Seed),
			automl.WithHoldoutFraction(cfg.Search.HoldoutFraction),
			automl.WithLogger(sess.Logger("automl")),
		)
		result, err := engine.Search(cmd.Context(), train, cfg.Search.Budget.Std())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CANDIDATE\tMSE\tR2\tDURATION")
		for _, c := range result.Candidates {
			if c.Err != nil {
				fmt.Fprintf(w, "%s\tfailed\t\t%s\n", c.Name, c.Duration.Round(time.Millisecond))
				continue
			}
			fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%s\n", c.Name, c.MSE, c.R2, c.Duration.Round(time.Millisecond))
		}
		w.Flush()
		if result.Skipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d candidates skipped: budget exhausted\n", result.Skipped)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "winner: %s (validation MSE %.4f) in %s\n",
			result.Best.Name, result.Best.MSE, result.Elapsed.Round(time.Millisecond))

		if err := pipeline.Save(result.BestPipeline, cfg.Artifact.Path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved model to %s\n", cfg.Artifact.Path)
		return nil
	},
}
