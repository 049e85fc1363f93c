package cli

import (
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/pipecheck/internal/cli/shared"
	clierrors "github.com/ariel-frischer/pipecheck/internal/errors"
	"github.com/ariel-frischer/pipecheck/internal/report"
)

const definitionFlagName = "definition"

func newSuitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suites",
		Short: "List the default suite and any suites loaded from definitions",
		Example: `  pipecheck suites
  pipecheck suites -f suites/api.yaml -f suites/web.yaml`,
		Args: shared.ExactArgs(0, "pipecheck suites [-f definition.yaml]..."),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := shared.OutputFormat(cmd)
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

			paths, _ := cmd.Flags().GetStringSlice(definitionFlagName)
			for _, path := range paths {
				def, err := shared.LoadDefinition(path)
				if err != nil {
					return err
				}
				if _, err := eng.CreateSuiteFromDefinition(def); err != nil {
					return clierrors.DefinitionParseError(path, err)
				}
			}

			return report.WriteSuites(cmd.OutOrStdout(), eng.ListSuites(), format)
		},
	}
	cmd.GroupID = shared.GroupSuites
	cmd.Flags().StringSliceP(definitionFlagName, "f", nil, "Suite definition file to load (repeatable)")
	return cmd
}
