package main

import (
	"github.com/spf13/cobra"

	"github.com/civicdata/inspectscore/config"
	"github.com/civicdata/inspectscore/core/session"
)

var (
	configPath string

	cfg  *config.Config
	sess *session.Session

	rootCmd = &cobra.Command{
		Use:   "inspectscore",
		Short: "Predict inspection scores from violation history",
		Long: `inspectscore turns a raw violation-level inspection export into
per-inspection feature vectors, searches a catalog of regression models
under a time budget, and serves predictions from the saved winner.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			sess = session.New(
				session.WithSeed(cfg.Split.Seed),
				session.WithWorkers(cfg.Search.Workers),
				session.WithLogLevel(cfg.Logging.Level),
			)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if sess != nil {
				_ = sess.Close()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config (defaults to $INSPECTSCORE_CONFIG)")

	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(predictCmd)
}
