package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/pipecheck/internal/cli/shared"
	"github.com/ariel-frischer/pipecheck/internal/engine"
	clierrors "github.com/ariel-frischer/pipecheck/internal/errors"
	"github.com/ariel-frischer/pipecheck/internal/pipeline"
	"github.com/ariel-frischer/pipecheck/internal/report"
	"github.com/ariel-frischer/pipecheck/internal/suite"
)

const criteriaFlagName = "criteria"

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <phase> <output.json>",
		Short: "Validate a single step output against phase criteria",
		Long: `Judge one step output, a JSON object, against the criteria of a phase.
The phase's default criteria are used unless --criteria names a YAML file.
Nothing is executed or recorded.

Exits 2 when the output is invalid.`,
		Example: `  pipecheck validate build output.json
  pipecheck validate deploy output.json --criteria strict-deploy.yaml`,
		Args: shared.ExactArgs(2, "pipecheck validate <phase> <output.json>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := shared.OutputFormat(cmd)
			if err != nil {
				return err
			}

			phase, err := pipeline.ParsePhase(args[0])
			if err != nil {
				return clierrors.UnknownPhase(args[0], phaseNames())
			}
			output, err := readOutput(args[1])
			if err != nil {
				return clierrors.OutputParseError(args[1], err)
			}

			criteria := suite.DefaultCriteria(phase)
			if path, _ := cmd.Flags().GetString(criteriaFlagName); path != "" {
				if criteria, err = readCriteria(path); err != nil {
					return clierrors.WrapWithMessage(err, clierrors.Configuration, "invalid criteria file "+path)
				}
			}

			step := pipeline.Step{ID: "adhoc-" + string(phase), Name: "Ad-hoc validation", Phase: phase, Criteria: criteria}
			verdict := engine.New().ValidateOutput(step, output)

			if err := report.WriteVerdict(cmd.OutOrStdout(), phase, verdict, format); err != nil {
				return err
			}
			if !verdict.Valid {
				return shared.NewExitError(shared.ExitValidationFailed)
			}
			return nil
		},
	}
	cmd.GroupID = shared.GroupSuites
	cmd.Flags().String(criteriaFlagName, "", "YAML file with acceptance criteria")
	return cmd
}

func readOutput(path string) (pipeline.Output, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var output pipeline.Output
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, err
	}
	if output == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}
	return output, nil
}

func readCriteria(path string) (pipeline.Criteria, error) {
	var criteria pipeline.Criteria
	data, err := os.ReadFile(path)
	if err != nil {
		return criteria, err
	}
	if err := yaml.Unmarshal(data, &criteria); err != nil {
		return criteria, fmt.Errorf("decoding criteria: %w", err)
	}
	if err := suite.NewStructValidator().Struct(criteria); err != nil {
		return criteria, fmt.Errorf("validating criteria: %w", err)
	}
	return criteria, nil
}

func phaseNames() []string {
	phases := pipeline.AllPhases()
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = string(p)
	}
	return names
}
