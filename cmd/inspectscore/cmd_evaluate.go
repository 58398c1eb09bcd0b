package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/civicdata/inspectscore/inspection"
	"github.com/civicdata/inspectscore/pipeline"
	"github.com/civicdata/inspectscore/plotting"
)

var evaluatePlot string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the saved model against the held-out test dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.Load(cfg.Artifact.Path)
		if err != nil {
			return err
		}

		testPath := filepath.Join(cfg.Prepare.OutputDir, "test.csv")
		test, err := inspection.ReadDataset(testPath)
		if err != nil {
			return err
		}

		report, err := p.Evaluate(test)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "test rows: %d\n", report.N)
		fmt.Fprintf(out, "MAE:  %.4f\n", report.MAE)
		fmt.Fprintf(out, "MSE:  %.4f\n", report.MSE)
		fmt.Fprintf(out, "RMSE: %.4f\n", report.RMSE)
		fmt.Fprintf(out, "R2:   %.4f\n", report.R2)

		plotPath := cfg.Artifact.PlotPath
		if evaluatePlot != "" {
			plotPath = evaluatePlot
		}
		if plotPath != "" {
			labels, err := p.Labels(test)
			if err != nil {
				return err
			}
			preds, err := p.Predict(test)
			if err != nil {
				return err
			}
			if err := plotting.SavePredictedActual(labels, preds, "Test set", plotPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "plot written to %s\n", plotPath)
		}
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluatePlot, "plot", "", "write a predicted-vs-actual scatter to this path")
}
