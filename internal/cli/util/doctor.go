package util

import (
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/pipecheck/internal/cli/shared"
	"github.com/ariel-frischer/pipecheck/internal/health"
	"github.com/ariel-frischer/pipecheck/internal/notify"
	"github.com/ariel-frischer/pipecheck/internal/report"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, state directory and fixtures",
		Long: `Check that pipecheck can run in this environment.

Doctor loads the configuration, plans the default suite, and verifies the
state directory, the persisted run log, the fixtures file and notification
tools when they are configured. It exits with code 4 when a check fails.`,
		Args: shared.ExactArgs(0, "pipecheck doctor"),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := shared.OutputFormat(cmd)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString(shared.ConfigFlagName)

			r := health.RunHealthChecks(path, notify.NewSender())
			if err := report.WriteHealth(cmd.OutOrStdout(), r, format); err != nil {
				return err
			}
			if !r.Passed {
				return shared.NewExitError(shared.ExitMissingDependency)
			}
			return nil
		},
	}
	cmd.GroupID = shared.GroupInfo
	return cmd
}
