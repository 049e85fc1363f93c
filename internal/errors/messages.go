package errors

import (
	"fmt"
	"strings"
)

// MissingDefinitionFile is returned when a suite definition path does not
// exist.
func MissingDefinitionFile(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("suite definition not found: %s", path),
		"Check the path and try again",
		"Run 'pipecheck plan' without arguments to see the default suite",
	)
}

// DefinitionParseError is returned when a suite definition cannot be decoded
// or fails validation.
func DefinitionParseError(path string, err error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("invalid suite definition %s: %v", path, err),
		Remediation: []string{
			"Every step needs id, name, phase and a positive timeout",
			"Phase must be one of requirements, architecture, build, test, deploy, monitor",
		},
		Err: err,
	}
}

// ConfigParseError is returned when configuration cannot be loaded.
func ConfigParseError(path string, err error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("failed to load configuration %s: %v", path, err),
		Remediation: []string{
			"Check the JSON syntax of the config file",
			"Unset PIPECHECK_* environment variables that hold invalid values",
		},
		Err: err,
	}
}

// FixturesParseError is returned when a fixtures file cannot be loaded.
func FixturesParseError(path string, err error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("failed to load fixtures %s: %v", path, err),
		Remediation: []string{
			"Fixtures are YAML keyed by phase name, e.g. 'build: {test_coverage: 90}'",
		},
		Err: err,
	}
}

// UnknownPhase is returned for a phase name that is not part of the
// pipeline.
func UnknownPhase(name string, valid []string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("unknown phase %q", name),
		"pipecheck validate <phase> <output.json>",
		"Use one of: "+strings.Join(valid, ", "),
	)
}

// OutputParseError is returned when an output file given to validate cannot
// be read as a JSON object.
func OutputParseError(path string, err error) *CLIError {
	return &CLIError{
		Category:    Argument,
		Message:     fmt.Sprintf("cannot read step output %s: %v", path, err),
		Remediation: []string{"The output file must contain a single JSON object"},
		Err:         err,
	}
}

// InvalidOutputFormat is returned for an unsupported --output value.
func InvalidOutputFormat(format string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid output format %q", format),
		"Use --output text, json or yaml",
	)
}

// InvalidFlagValue is returned when a flag value is out of range.
func InvalidFlagValue(flag, reason string) *CLIError {
	return NewArgumentError(fmt.Sprintf("invalid value for %s: %s", flag, reason))
}

// RunLogError is returned when the persisted run log cannot be read or
// written.
func RunLogError(stateDir string, err error) *CLIError {
	return &CLIError{
		Category: Runtime,
		Message:  fmt.Sprintf("run log in %s is unavailable: %v", stateDir, err),
		Remediation: []string{
			"Check that the state directory is writable",
			"Run 'pipecheck history --clear' to start a fresh log",
		},
		Err: err,
	}
}

// ExecutionNotPassed is returned by run commands when any execution did not
// pass, so the process exits non-zero.
func ExecutionNotPassed(failed, total int) *CLIError {
	return NewRuntimeError(fmt.Sprintf("%d of %d executions did not pass", failed, total))
}
