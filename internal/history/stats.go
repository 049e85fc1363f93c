package history

import (
	"math"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// Statistics aggregates execution outcomes. Percentages and averages are
// rounded to two decimals.
type Statistics struct {
	Total           int     `json:"total" yaml:"total"`
	Passed          int     `json:"passed" yaml:"passed"`
	Failed          int     `json:"failed" yaml:"failed"`
	Errored         int     `json:"errored" yaml:"errored"`
	PassRatePercent float64 `json:"pass_rate_percent" yaml:"pass_rate_percent"`
	AverageScore    float64 `json:"average_score" yaml:"average_score"`
}

// tally accumulates outcomes for Statistics.
type tally struct {
	total, passed, failed, errored int
	scoreSum                       float64
}

func (t *tally) add(status pipeline.ExecutionStatus, score float64) {
	t.total++
	t.scoreSum += score
	switch status {
	case pipeline.ExecutionPassed:
		t.passed++
	case pipeline.ExecutionFailed:
		t.failed++
	case pipeline.ExecutionErrored:
		t.errored++
	}
}

func (t *tally) statistics() Statistics {
	stats := Statistics{
		Total:   t.total,
		Passed:  t.passed,
		Failed:  t.failed,
		Errored: t.errored,
	}
	if t.total > 0 {
		stats.PassRatePercent = round2(float64(t.passed) / float64(t.total) * 100)
		stats.AverageScore = round2(t.scoreSum / float64(t.total))
	}
	return stats
}

// Summarize computes statistics over executions.
func Summarize(executions []*pipeline.Execution) Statistics {
	var t tally
	for _, exec := range executions {
		if exec != nil {
			t.add(exec.Status, exec.Score)
		}
	}
	return t.statistics()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
