package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ariel-frischer/pipecheck/internal/history"
	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// statusColor pads status to width and colors it by outcome.
func statusColor(status string, width int) string {
	padded := fmt.Sprintf("%-*s", width, status)
	switch status {
	case string(pipeline.ExecutionPassed):
		return green(padded)
	case string(pipeline.ExecutionFailed):
		return red(padded)
	case string(pipeline.ExecutionErrored), string(pipeline.StepSkipped):
		return yellow(padded)
	case "":
		return fmt.Sprintf("%-*s", width, "-")
	default:
		return padded
	}
}

func writeExecutionText(w io.Writer, exec *pipeline.Execution) {
	fmt.Fprintf(w, "%s %s  %s\n", bold("Suite"), exec.SuiteName, cyan(exec.ID))
	fmt.Fprintf(w, "Status:   %s\n", statusColor(string(exec.Status), 0))
	fmt.Fprintf(w, "Score:    %.2f\n", exec.Score)
	fmt.Fprintf(w, "Waves:    %d\n", exec.Waves)
	fmt.Fprintf(w, "Duration: %s\n", formatDuration(exec.Duration))
	if exec.ErrorSummary != "" {
		fmt.Fprintf(w, "Error:    %s\n", exec.ErrorSummary)
	}

	if len(exec.Results) == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, r := range exec.Results {
		score := "-"
		if r.Verdict != nil {
			score = fmt.Sprintf("%d", r.Verdict.Score)
		}
		critical := ""
		if r.Critical {
			critical = " critical"
		}

		fmt.Fprintf(w, "  wave %-2d %-28s %s score=%-3s %s%s\n",
			r.Wave, r.StepID, statusColor(string(r.Status), 8), score, formatDuration(r.Duration), critical)
		if r.Error != "" {
			fmt.Fprintf(w, "           %s\n", r.Error)
		}
		if r.Verdict != nil {
			for _, rec := range r.Verdict.Recommendations {
				fmt.Fprintf(w, "           %s %s\n", yellow("hint:"), rec)
			}
		}
	}
}

func writeStatisticsText(w io.Writer, stats history.Statistics) {
	if stats.Total == 0 {
		fmt.Fprintln(w, "No executions recorded.")
		return
	}
	fmt.Fprintf(w, "Executions: %d (%s passed, %s failed, %s errored)\n",
		stats.Total, green(stats.Passed), red(stats.Failed), yellow(stats.Errored))
	fmt.Fprintf(w, "Pass rate:  %.2f%%\n", stats.PassRatePercent)
	fmt.Fprintf(w, "Avg score:  %.2f\n", stats.AverageScore)
}

// writeEntriesText prints one line per run log entry, oldest first.
func writeEntriesText(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history available.")
		return
	}

	for _, e := range entries {
		timestamp := e.StartedAt.Format("2006-01-02 15:04:05")
		fmt.Fprintf(w, "%s  %-30s  %s  %-20s  score=%-6.2f  waves=%d  %s\n",
			cyan(timestamp),
			formatID(e.ID),
			statusColor(string(e.Status), 8),
			e.Suite,
			e.Score,
			e.Waves,
			e.Duration,
		)
		if e.ErrorSummary != "" {
			fmt.Fprintf(w, "  %s\n", e.ErrorSummary)
		}
	}
}

// formatID pads run ids, which are adjective_noun_YYYYMMDD_HHMMSS, to a
// column.
func formatID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 30 {
		return id[:30]
	}
	return id
}

func writeVerdictText(w io.Writer, phase pipeline.Phase, v pipeline.Verdict) {
	result := green("valid")
	if !v.Valid {
		result = red("invalid")
	}
	fmt.Fprintf(w, "Phase %s: %s (score %d)\n", phase, result, v.Score)

	for _, issue := range v.Issues {
		fmt.Fprintf(w, "  %s %s\n", red("issue:"), issue)
	}
	for _, rec := range v.Recommendations {
		fmt.Fprintf(w, "  %s %s\n", yellow("hint:"), rec)
	}
}

func writeSuitesText(w io.Writer, suites []*pipeline.Suite) {
	if len(suites) == 0 {
		fmt.Fprintln(w, "No suites defined.")
		return
	}

	for _, s := range suites {
		phases := make([]string, len(s.Phases))
		for i, p := range s.Phases {
			phases[i] = string(p)
		}
		fmt.Fprintf(w, "%s  %s  %d steps  [%s]\n", bold(s.Name), cyan(s.ID), len(s.Steps), strings.Join(phases, ", "))
		if s.Description != "" {
			fmt.Fprintf(w, "  %s\n", s.Description)
		}
	}
}
