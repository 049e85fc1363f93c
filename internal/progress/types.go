// Package progress renders live progress for suite executions: a spinner per
// wave on a terminal, one plain line per event otherwise.
package progress

import apperrors "github.com/ariel-frischer/pipecheck/internal/errors"

// WaveInfo describes the wave currently running.
type WaveInfo struct {
	// Number is the 1-based wave number.
	Number int
	// StepIDs are the steps launched in this wave.
	StepIDs []string
	// Done is the number of steps finished before this wave started.
	Done int
	// TotalSteps is the number of steps in the suite.
	TotalSteps int
}

// Validate checks that the wave fits inside the suite.
func (w WaveInfo) Validate() error {
	if w.Number <= 0 {
		return apperrors.NewArgumentError("wave number must be > 0")
	}
	if len(w.StepIDs) == 0 {
		return apperrors.NewArgumentError("wave must contain at least one step")
	}
	if w.TotalSteps <= 0 {
		return apperrors.NewArgumentError("total steps must be > 0")
	}
	if w.Done < 0 {
		return apperrors.NewArgumentError("finished step count cannot be negative")
	}
	if w.Done+len(w.StepIDs) > w.TotalSteps {
		return apperrors.NewArgumentError("wave exceeds total steps")
	}
	return nil
}

// TerminalCapabilities encapsulates detected terminal features
type TerminalCapabilities struct {
	// IsTTY indicates whether the progress stream is a terminal
	IsTTY bool
	// SupportsColor indicates whether terminal supports ANSI color codes
	SupportsColor bool
	// SupportsUnicode indicates whether terminal supports Unicode characters
	SupportsUnicode bool
	// Width is the terminal width in columns (0 if unknown/pipe)
	Width int
}

// ProgressSymbols defines the character set for visual indicators
type ProgressSymbols struct {
	// Checkmark marks a passed step ("✓" or "[OK]")
	Checkmark string
	// Failure marks a failed step ("✗" or "[FAIL]")
	Failure string
	// Error marks an errored step ("!" or "[ERR]")
	Error string
	// SpinnerSet is the index into spinner.CharSets
	SpinnerSet int
}
