// Package shared provides constants and helpers used across CLI packages.
// It has no dependencies on other CLI packages.
package shared

import (
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/pipecheck/internal/errors"
)

// Command group IDs for organizing help output
const (
	GroupExecution = "execution"
	GroupSuites    = "suites"
	GroupHistory   = "history"
	GroupInfo      = "info"
)

// Exit codes for CLI commands
const (
	ExitSuccess           = 0
	ExitExecutionFailed   = 1
	ExitValidationFailed  = 2
	ExitInvalidArguments  = 3
	ExitMissingDependency = 4
	ExitConfiguration     = 5
)

// exitError carries an exit code for failures already reported to the user.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewExitError creates a new exit error with the given code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// IsExitError reports whether err only carries an exit code.
func IsExitError(err error) bool {
	var e *exitError
	return errors.As(err, &e)
}

// ExitCode returns the exit code for err. CLI errors map by category.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}

	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case clierrors.Argument:
			return ExitInvalidArguments
		case clierrors.Prerequisite:
			return ExitMissingDependency
		case clierrors.Configuration:
			return ExitConfiguration
		}
	}
	return ExitExecutionFailed
}
