package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ariel-frischer/pipecheck/internal/dag"
	"github.com/ariel-frischer/pipecheck/internal/health"
	"github.com/ariel-frischer/pipecheck/internal/history"
	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// RepeatReport is the structured form of several runs of one suite.
type RepeatReport struct {
	Executions []*pipeline.Execution `json:"executions" yaml:"executions"`
	Statistics history.Statistics    `json:"statistics" yaml:"statistics"`
}

// Plan is the structured form of a dry-run wave plan.
type Plan struct {
	SuiteID   string     `json:"suite_id" yaml:"suite_id"`
	SuiteName string     `json:"suite_name" yaml:"suite_name"`
	Roots     []string   `json:"roots" yaml:"roots"`
	Steps     []PlanStep `json:"steps" yaml:"steps"`
	Waves     []PlanWave `json:"waves" yaml:"waves"`
	Stats     PlanStats  `json:"stats" yaml:"stats"`

	graph *dag.DependencyGraph
}

// PlanStep places one step of the suite, in suite order, in its wave.
type PlanStep struct {
	ID        string         `json:"id" yaml:"id"`
	Phase     pipeline.Phase `json:"phase" yaml:"phase"`
	Wave      int            `json:"wave" yaml:"wave"`
	Critical  bool           `json:"critical" yaml:"critical"`
	DependsOn []string       `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// PlanView selects the text rendering of a plan.
type PlanView string

const (
	PlanViewDetailed PlanView = "detailed"
	PlanViewTree     PlanView = "tree"
	PlanViewCompact  PlanView = "compact"
)

// ErrUnknownPlanView is returned by ParsePlanView.
var ErrUnknownPlanView = errors.New("unknown plan view")

// ParsePlanView accepts detailed, tree or compact. Empty means detailed.
func ParsePlanView(s string) (PlanView, error) {
	switch v := PlanView(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return PlanViewDetailed, nil
	case PlanViewDetailed, PlanViewTree, PlanViewCompact:
		return v, nil
	default:
		return "", fmt.Errorf("%w %q (want detailed, tree or compact)", ErrUnknownPlanView, s)
	}
}

// PlanWave lists the steps of one wave.
type PlanWave struct {
	Number int      `json:"number" yaml:"number"`
	Steps  []string `json:"steps" yaml:"steps"`
}

// PlanStats mirrors dag.WaveStats with serialisation tags.
type PlanStats struct {
	TotalWaves  int `json:"total_waves" yaml:"total_waves"`
	TotalSteps  int `json:"total_steps" yaml:"total_steps"`
	MaxWaveSize int `json:"max_wave_size" yaml:"max_wave_size"`
	MinWaveSize int `json:"min_wave_size" yaml:"min_wave_size"`
	Critical    int `json:"critical" yaml:"critical"`
}

// NewPlan resolves the step graph of s and computes its waves without running
// anything.
func NewPlan(s *pipeline.Suite) (*Plan, error) {
	g, err := dag.Resolve(s.Steps)
	if err != nil {
		return nil, fmt.Errorf("planning suite %s: %w", s.Name, err)
	}
	waves, err := g.ComputeWaves()
	if err != nil {
		return nil, fmt.Errorf("planning suite %s: %w", s.Name, err)
	}

	plan := &Plan{SuiteID: s.ID, SuiteName: s.Name, Roots: g.Roots(), graph: g}
	for _, step := range s.Steps {
		plan.Steps = append(plan.Steps, PlanStep{
			ID:        step.ID,
			Phase:     step.Phase,
			Wave:      g.GetWaveForStep(step.ID),
			Critical:  step.Critical,
			DependsOn: step.DependsOn,
		})
	}
	for _, w := range waves {
		plan.Waves = append(plan.Waves, PlanWave{Number: w.Number, Steps: w.StepIDs})
	}
	stats := g.GetWaveStats()
	plan.Stats = PlanStats{
		TotalWaves:  stats.TotalWaves,
		TotalSteps:  stats.TotalSteps,
		MaxWaveSize: stats.MaxWaveSize,
		MinWaveSize: stats.MinWaveSize,
		Critical:    stats.Critical,
	}
	return plan, nil
}

// WriteExecution writes a single execution report.
func WriteExecution(w io.Writer, exec *pipeline.Execution, format Format) error {
	if format == FormatText {
		writeExecutionText(w, exec)
		return nil
	}
	return encode(w, format, exec)
}

// WriteExecutions writes several executions of a suite followed by their
// statistics.
func WriteExecutions(w io.Writer, execs []*pipeline.Execution, format Format) error {
	if len(execs) == 1 {
		return WriteExecution(w, execs[0], format)
	}

	rep := RepeatReport{Executions: execs, Statistics: history.Summarize(execs)}
	if format != FormatText {
		return encode(w, format, rep)
	}

	for i, exec := range execs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeExecutionText(w, exec)
	}
	fmt.Fprintln(w)
	writeStatisticsText(w, rep.Statistics)
	return nil
}

// WriteStatistics writes aggregate statistics.
func WriteStatistics(w io.Writer, stats history.Statistics, format Format) error {
	if format == FormatText {
		writeStatisticsText(w, stats)
		return nil
	}
	return encode(w, format, stats)
}

// WriteEntries writes persisted run log entries.
func WriteEntries(w io.Writer, entries []history.Entry, format Format) error {
	if format == FormatText {
		writeEntriesText(w, entries)
		return nil
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return encode(w, format, entries)
}

// WriteHealth writes the results of the doctor checks.
func WriteHealth(w io.Writer, r *health.HealthReport, format Format) error {
	if format == FormatText {
		_, err := io.WriteString(w, health.FormatReport(r))
		return err
	}
	return encode(w, format, r)
}

// WriteVerdict writes the verdict of an ad-hoc validation.
func WriteVerdict(w io.Writer, phase pipeline.Phase, verdict pipeline.Verdict, format Format) error {
	if format == FormatText {
		writeVerdictText(w, phase, verdict)
		return nil
	}
	return encode(w, format, verdict)
}

// WriteSuites writes a suite listing.
func WriteSuites(w io.Writer, suites []*pipeline.Suite, format Format) error {
	if format == FormatText {
		writeSuitesText(w, suites)
		return nil
	}
	return encode(w, format, suites)
}

// WritePlan writes a wave plan. view only affects text output.
func WritePlan(w io.Writer, plan *Plan, format Format, view PlanView) error {
	if format != FormatText {
		return encode(w, format, plan)
	}

	fmt.Fprintf(w, "Suite %s\n\n", plan.SuiteName)
	switch view {
	case PlanViewTree:
		fmt.Fprint(w, plan.graph.RenderTree())
	case PlanViewCompact:
		fmt.Fprintln(w, plan.graph.RenderCompact())
	default:
		fmt.Fprint(w, plan.graph.RenderDetailed())
		fmt.Fprintln(w)
		fmt.Fprintln(w, plan.graph.RenderCompact())
	}
	return nil
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
