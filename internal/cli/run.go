package cli

import (
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/pipecheck/internal/cli/shared"
	"github.com/ariel-frischer/pipecheck/internal/engine"
	clierrors "github.com/ariel-frischer/pipecheck/internal/errors"
	"github.com/ariel-frischer/pipecheck/internal/pipeline"
	"github.com/ariel-frischer/pipecheck/internal/report"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the default six-phase suite",
		Long: `Run the default suite: one critical step per phase, each depending on the
previous one. Step outputs come from fixtures; override them per phase with
--fixtures or the fixtures_file setting to exercise failure paths.

Exits non-zero when any execution does not pass.`,
		Example: `  pipecheck run
  pipecheck run --repeat 5 -o yaml
  pipecheck run --fixtures low-coverage.yaml`,
		Args: shared.ExactArgs(0, "pipecheck run [flags]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, func(e *engine.Engine) (*pipeline.Suite, error) {
				return e.DefaultSuite(), nil
			})
		},
	}
	cmd.GroupID = shared.GroupExecution
	shared.AddRunFlags(cmd)
	return cmd
}

func newRunSuiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-suite <definition.yaml>",
		Short: "Create a custom suite from a definition file and run it",
		Long: `Create a custom suite from a YAML definition and run it. Steps are taken
as written: dependencies and criticality are not inferred. A definition that
lists only phases gets one template step per phase.`,
		Example: `  pipecheck run-suite suites/api.yaml
  pipecheck run-suite suites/api.yaml --repeat 3 -o json`,
		Args: shared.ExactArgs(1, "pipecheck run-suite <definition.yaml>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := shared.LoadDefinition(args[0])
			if err != nil {
				return err
			}
			return runSuite(cmd, func(e *engine.Engine) (*pipeline.Suite, error) {
				s, err := e.CreateSuiteFromDefinition(def)
				if err != nil {
					return nil, clierrors.DefinitionParseError(args[0], err)
				}
				return s, nil
			})
		},
	}
	cmd.GroupID = shared.GroupExecution
	shared.AddRunFlags(cmd)
	return cmd
}

// runSuite runs the selected suite --repeat times and writes the report.
func runSuite(cmd *cobra.Command, selectSuite func(*engine.Engine) (*pipeline.Suite, error)) error {
	format, err := shared.OutputFormat(cmd)
	if err != nil {
		return err
	}
	repeat, err := shared.Repeat(cmd)
	if err != nil {
		return err
	}
	cfg, err := shared.LoadConfig(cmd)
	if err != nil {
		return err
	}
	eng, err := shared.NewEngine(cmd, cfg)
	if err != nil {
		return err
	}
	s, err := selectSuite(eng)
	if err != nil {
		return err
	}

	execs := make([]*pipeline.Execution, 0, repeat)
	for i := 0; i < repeat; i++ {
		execs = append(execs, eng.Run(cmd.Context(), s))
	}

	if err := report.WriteExecutions(cmd.OutOrStdout(), execs, format); err != nil {
		return err
	}
	if n := shared.NotPassed(execs); n > 0 {
		return clierrors.ExecutionNotPassed(n, len(execs))
	}
	return nil
}
