// Package cli provides the cobra commands of pipecheck: running the default
// or a custom suite, listing suites, validating a single output, planning
// waves, reading the persisted run log and checking the environment.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/pipecheck/internal/cli/shared"
	"github.com/ariel-frischer/pipecheck/internal/cli/util"
	clierrors "github.com/ariel-frischer/pipecheck/internal/errors"
)

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pipecheck",
		Short: "pipecheck workflow test execution",
		Long: `pipecheck workflow test execution

Runs a dependency-ordered suite of pipeline steps (requirements, architecture,
build, test, deploy, monitor) in concurrent waves, validates each step's
output against its phase criteria and reports a scored execution.`,
		Example: `  # Run the default suite
  pipecheck run

  # Run it three times with overridden fixtures, as JSON
  pipecheck run --repeat 3 --fixtures fixtures.yaml -o json

  # Run a custom suite and inspect its wave plan first
  pipecheck plan suites/api.yaml
  pipecheck run-suite suites/api.yaml

  # Check one output against the build criteria
  pipecheck validate build output.json`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupExecution, Title: "Execution:"})
	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupSuites, Title: "Suites:"})
	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupHistory, Title: "History:"})
	rootCmd.AddGroup(&cobra.Group{ID: shared.GroupInfo, Title: "Info:"})

	rootCmd.SetHelpCommandGroupID(shared.GroupInfo)
	rootCmd.SetCompletionCommandGroupID(shared.GroupInfo)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine(), "Run '"+cmd.CommandPath()+" --help' for usage")
	})

	shared.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newRunSuiteCmd())
	rootCmd.AddCommand(newSuitesCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newPlanCmd())
	util.Register(rootCmd)

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
// Interrupts stop new waves from starting.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	err := cmd.ExecuteContext(ctx)
	reportError(cmd, err)
	return shared.ExitCode(err)
}

// reportError prints err unless it only carries an exit code.
func reportError(cmd *cobra.Command, err error) {
	if err == nil || shared.IsExitError(err) {
		return
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		clierrors.FprintError(cmd.ErrOrStderr(), cliErr)
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), clierrors.FormatSimpleError(err, clierrors.Runtime))
}
