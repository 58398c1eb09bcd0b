package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicdata/inspectscore/pipeline"
)

var (
	predictBorough  string
	predictType     string
	predictCodes    string
	predictCritical float64
	predictTotal    float64
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the score of a single inspection from the saved model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.Load(cfg.Artifact.Path)
		if err != nil {
			return err
		}

		score, err := p.PredictRow(map[string]interface{}{
			"borough":             predictBorough,
			"inspection_type":     predictType,
			"codes":               predictCodes,
			"critical_violations": predictCritical,
			"total_violations":    predictTotal,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "predicted score: %.2f\n", score)
		return nil
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictBorough, "borough", "", "borough of the establishment")
	predictCmd.Flags().StringVar(&predictType, "inspection-type", "", "inspection type, e.g. \"Cycle Inspection / Re-inspection\"")
	predictCmd.Flags().StringVar(&predictCodes, "codes", "", "comma-joined violation codes, e.g. \"04H,09C,10F\"")
	predictCmd.Flags().Float64Var(&predictCritical, "critical", 0, "critical violation count")
	predictCmd.Flags().Float64Var(&predictTotal, "total", 0, "total violation count")
	_ = predictCmd.MarkFlagRequired("borough")
	_ = predictCmd.MarkFlagRequired("inspection-type")
}
