package util

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/pipecheck/internal/cli/shared"
	clierrors "github.com/ariel-frischer/pipecheck/internal/errors"
	"github.com/ariel-frischer/pipecheck/internal/history"
	"github.com/ariel-frischer/pipecheck/internal/pipeline"
	"github.com/ariel-frischer/pipecheck/internal/report"
)

var statusFilters = []string{
	string(pipeline.ExecutionPassed),
	string(pipeline.ExecutionFailed),
	string(pipeline.ExecutionErrored),
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "View persisted execution history",
		Long: `View the run log of past executions with start time, id, status, suite,
score, waves and duration. Entries are kept in <state_dir>/runs.yaml.`,
		Example: `  pipecheck history
  pipecheck history -n 10 --status failed
  pipecheck history --clear`,
		Args: shared.ExactArgs(0, "pipecheck history [flags]"),
		RunE: runHistory,
	}
	cmd.GroupID = shared.GroupHistory
	cmd.Flags().IntP("limit", "n", 0, "Limit to last N entries (most recent)")
	cmd.Flags().String("status", "", "Filter by status ("+strings.Join(statusFilters, ", ")+")")
	cmd.Flags().Bool("clear", false, "Clear all history")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	clearFlag, _ := cmd.Flags().GetBool("clear")
	statusFilter, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	if limit < 0 {
		return clierrors.InvalidFlagValue("--limit", fmt.Sprintf("must be positive, got %d", limit))
	}
	if statusFilter != "" && !validStatus(statusFilter) {
		return clierrors.InvalidFlagValue("--status", "must be one of "+strings.Join(statusFilters, ", "))
	}

	format, err := shared.OutputFormat(cmd)
	if err != nil {
		return err
	}
	cfg, err := shared.LoadConfig(cmd)
	if err != nil {
		return err
	}

	if clearFlag {
		if err := history.ClearRunLog(cfg.StateDir); err != nil {
			return clierrors.RunLogError(cfg.StateDir, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	}

	log, err := history.LoadRunLog(cfg.StateDir)
	if err != nil {
		return clierrors.RunLogError(cfg.StateDir, err)
	}

	entries := history.Filter(log.Entries, statusFilter, limit)
	if len(entries) == 0 && statusFilter != "" && format == report.FormatText {
		fmt.Fprintf(cmd.OutOrStdout(), "No matching entries for status '%s'.\n", statusFilter)
		return nil
	}
	return report.WriteEntries(cmd.OutOrStdout(), entries, format)
}

func validStatus(s string) bool {
	for _, v := range statusFilters {
		if s == v {
			return true
		}
	}
	return false
}
