package cli

import (
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/pipecheck/internal/cli/shared"
	clierrors "github.com/ariel-frischer/pipecheck/internal/errors"
	"github.com/ariel-frischer/pipecheck/internal/pipeline"
	"github.com/ariel-frischer/pipecheck/internal/report"
	"github.com/ariel-frischer/pipecheck/internal/suite"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [definition.yaml]",
		Short: "Show the wave plan of a suite without running it",
		Long: `Resolve the step graph of the default suite, or of a definition file, and
print the waves it would run in. Dependency cycles and unknown dependencies
are reported here before any step runs.`,
		Example: `  pipecheck plan
  pipecheck plan --view tree
  pipecheck plan suites/api.yaml -o json`,
		Args: shared.MaximumNArgs(1, "pipecheck plan [definition.yaml]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := shared.OutputFormat(cmd)
			if err != nil {
				return err
			}
			viewFlag, _ := cmd.Flags().GetString("view")
			view, err := report.ParsePlanView(viewFlag)
			if err != nil {
				return clierrors.InvalidFlagValue("--view", err.Error())
			}

			builder := suite.NewBuilder(suite.NewCatalog())
			var s *pipeline.Suite
			if len(args) == 0 {
				s = builder.BuildDefault()
			} else {
				def, err := shared.LoadDefinition(args[0])
				if err != nil {
					return err
				}
				if s, err = def.Build(builder); err != nil {
					return clierrors.DefinitionParseError(args[0], err)
				}
			}

			plan, err := report.NewPlan(s)
			if err != nil {
				return clierrors.WrapWithMessage(err, clierrors.Configuration, "cannot plan suite",
					"Remove the dependency cycle or the reference to the missing step")
			}
			return report.WritePlan(cmd.OutOrStdout(), plan, format, view)
		},
	}
	cmd.Flags().String("view", string(report.PlanViewDetailed), "Text layout of the plan (detailed, tree, compact)")
	cmd.GroupID = shared.GroupSuites
	return cmd
}
