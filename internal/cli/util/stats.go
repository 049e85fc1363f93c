package util

import (
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/pipecheck/internal/cli/shared"
	clierrors "github.com/ariel-frischer/pipecheck/internal/errors"
	"github.com/ariel-frischer/pipecheck/internal/history"
	"github.com/ariel-frischer/pipecheck/internal/report"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show pass rate and average score over the run log",
		Args:  shared.ExactArgs(0, "pipecheck stats"),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := shared.OutputFormat(cmd)
			if err != nil {
				return err
			}
			cfg, err := shared.LoadConfig(cmd)
			if err != nil {
				return err
			}

			log, err := history.LoadRunLog(cfg.StateDir)
			if err != nil {
				return clierrors.RunLogError(cfg.StateDir, err)
			}
			return report.WriteStatistics(cmd.OutOrStdout(), log.Statistics(), format)
		},
	}
	cmd.GroupID = shared.GroupHistory
	return cmd
}
