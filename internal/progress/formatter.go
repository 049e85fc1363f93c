package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// formatCounter returns the [done/total] step counter string
func formatCounter(done, total int) string {
	return fmt.Sprintf("[%d/%d]", done, total)
}

// buildWaveMessage describes a running wave, e.g.
// "[2/6] Running wave 3: build-api, build-web".
func buildWaveMessage(w WaveInfo) string {
	return fmt.Sprintf("%s Running wave %d: %s",
		formatCounter(w.Done, w.TotalSteps), w.Number, strings.Join(w.StepIDs, ", "))
}

// buildStepMessage describes a finished step.
func buildStepMessage(r pipeline.StepResult, done, total int) string {
	counter := formatCounter(done, total)
	msg := fmt.Sprintf("%s %s %s", counter, r.StepID, r.Status)

	switch r.Status {
	case pipeline.StepPassed:
		score := 0
		if r.Verdict != nil {
			score = r.Verdict.Score
		}
		msg += fmt.Sprintf(" (score %d, %s)", score, r.Duration.Round(time.Millisecond))
	default:
		if r.Error != "" {
			msg += ": " + r.Error
		}
	}

	if r.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", r.Attempts)
	}
	return msg
}

// buildSummaryMessage describes a finished execution.
func buildSummaryMessage(exec *pipeline.Execution) string {
	msg := fmt.Sprintf("Suite %s %s with score %.2f in %s (%d waves)",
		exec.SuiteName, exec.Status, exec.Score, exec.Duration.Round(time.Millisecond), exec.Waves)
	if exec.ErrorSummary != "" {
		msg += ": " + exec.ErrorSummary
	}
	return msg
}

// markFor returns the symbol for a step status, colored when supported.
func markFor(status pipeline.StepStatus, symbols ProgressSymbols, supportsColor bool) string {
	switch status {
	case pipeline.StepPassed:
		return paint(symbols.Checkmark, color.FgGreen, supportsColor)
	case pipeline.StepFailed:
		return paint(symbols.Failure, color.FgRed, supportsColor)
	default:
		return paint(symbols.Error, color.FgYellow, supportsColor)
	}
}

// executionMark maps an execution status onto the step marks.
func executionMark(status pipeline.ExecutionStatus, symbols ProgressSymbols, supportsColor bool) string {
	switch status {
	case pipeline.ExecutionPassed:
		return markFor(pipeline.StepPassed, symbols, supportsColor)
	case pipeline.ExecutionFailed:
		return markFor(pipeline.StepFailed, symbols, supportsColor)
	default:
		return markFor(pipeline.StepErrored, symbols, supportsColor)
	}
}

func paint(s string, attr color.Attribute, enabled bool) string {
	if !enabled {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}
