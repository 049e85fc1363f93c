package shared

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/pipecheck/internal/config"
	clierrors "github.com/ariel-frischer/pipecheck/internal/errors"
	"github.com/ariel-frischer/pipecheck/internal/report"
)

// Flag names shared across commands.
const (
	ConfigFlagName     = "config"
	OutputFlagName     = "output"
	DebugFlagName      = "debug"
	NoProgressFlagName = "no-progress"
	RepeatFlagName     = "repeat"
	FixturesFlagName   = "fixtures"
)

// AddGlobalFlags registers the persistent flags of the root command.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(ConfigFlagName, "c", config.LocalConfigPath, "Path to config file")
	cmd.PersistentFlags().StringP(OutputFlagName, "o", string(report.FormatText), "Output format (text, json, yaml)")
	cmd.PersistentFlags().BoolP(DebugFlagName, "d", false, "Enable debug logging")
	cmd.PersistentFlags().Bool(NoProgressFlagName, false, "Disable progress display")
}

// AddRunFlags adds the flags shared by commands that execute suites.
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntP(RepeatFlagName, "r", 1, "Run the suite N times")
	cmd.Flags().String(FixturesFlagName, "", "YAML file of per-phase output overrides (overrides fixtures_file)")
}

// LoadConfig loads configuration honouring --config and --debug.
func LoadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString(ConfigFlagName)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, clierrors.ConfigParseError(path, err)
	}

	if debug, _ := cmd.Flags().GetBool(DebugFlagName); debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// OutputFormat returns the validated --output format.
func OutputFormat(cmd *cobra.Command) (report.Format, error) {
	name, _ := cmd.Flags().GetString(OutputFlagName)
	format, err := report.ParseFormat(name)
	if err != nil {
		return "", clierrors.InvalidOutputFormat(name)
	}
	return format, nil
}

// Repeat returns the validated --repeat count.
func Repeat(cmd *cobra.Command) (int, error) {
	n, _ := cmd.Flags().GetInt(RepeatFlagName)
	if n < 1 {
		return 0, clierrors.InvalidFlagValue("--"+RepeatFlagName, fmt.Sprintf("must be at least 1, got %d", n))
	}
	return n, nil
}

// ExactArgs is cobra.ExactArgs reporting an argument error with usage.
func ExactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return clierrors.NewArgumentErrorWithUsage(
				fmt.Sprintf("%s expects %d argument(s), got %d", cmd.Name(), n, len(args)), usage)
		}
		return nil
	}
}

// MaximumNArgs is cobra.MaximumNArgs reporting an argument error with usage.
func MaximumNArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return clierrors.NewArgumentErrorWithUsage(
				fmt.Sprintf("%s accepts at most %d argument(s), got %d", cmd.Name(), n, len(args)), usage)
		}
		return nil
	}
}
