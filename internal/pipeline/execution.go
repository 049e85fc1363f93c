package pipeline

import "time"

// StepStatus is the outcome tag of a step result.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepPassed  StepStatus = "passed"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
	StepErrored StepStatus = "errored"
)

// ExecutionStatus is the overall outcome of an execution.
// Running is the only non-terminal state.
type ExecutionStatus string

const (
	ExecutionRunning ExecutionStatus = "running"
	ExecutionPassed  ExecutionStatus = "passed"
	ExecutionFailed  ExecutionStatus = "failed"
	ExecutionErrored ExecutionStatus = "errored"
)

// IsTerminal reports whether s is one of passed, failed or errored.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionPassed || s == ExecutionFailed || s == ExecutionErrored
}

// Verdict is the validator's structured judgement of a step output.
type Verdict struct {
	Valid           bool     `json:"valid" yaml:"valid"`
	Score           int      `json:"score" yaml:"score"`
	Issues          []string `json:"issues" yaml:"issues"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
}

// StepResult is produced once per executed step per execution.
type StepResult struct {
	ExecutionID string        `json:"execution_id" yaml:"execution_id"`
	StepID      string        `json:"step_id" yaml:"step_id"`
	Phase       Phase         `json:"phase" yaml:"phase"`
	Critical    bool          `json:"critical" yaml:"critical"`
	Status      StepStatus    `json:"status" yaml:"status"`
	Wave        int           `json:"wave" yaml:"wave"`
	Attempts    int           `json:"attempts" yaml:"attempts"`
	StartedAt   time.Time     `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time     `json:"completed_at" yaml:"completed_at"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	Output      Output        `json:"output,omitempty" yaml:"output,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	// Verdict is nil when no output reached the validator.
	Verdict *Verdict `json:"verdict,omitempty" yaml:"verdict,omitempty"`
}

// Execution is one run of a suite. It is mutated only by the executor while
// running and is immutable once its status is terminal.
type Execution struct {
	ID           string          `json:"id" yaml:"id"`
	SuiteID      string          `json:"suite_id" yaml:"suite_id"`
	SuiteName    string          `json:"suite_name" yaml:"suite_name"`
	Status       ExecutionStatus `json:"status" yaml:"status"`
	StartedAt    time.Time       `json:"started_at" yaml:"started_at"`
	CompletedAt  time.Time       `json:"completed_at" yaml:"completed_at"`
	Duration     time.Duration   `json:"duration" yaml:"duration"`
	Waves        int             `json:"waves" yaml:"waves"`
	Results      []StepResult    `json:"results" yaml:"results"`
	Score        float64         `json:"score" yaml:"score"`
	ErrorSummary string          `json:"error_summary,omitempty" yaml:"error_summary,omitempty"`
}

// Result returns the result recorded for stepID.
func (e *Execution) Result(stepID string) (StepResult, bool) {
	for _, r := range e.Results {
		if r.StepID == stepID {
			return r, true
		}
	}
	return StepResult{}, false
}

// CountByStatus tallies step results per status.
func (e *Execution) CountByStatus() map[StepStatus]int {
	counts := make(map[StepStatus]int)
	for _, r := range e.Results {
		counts[r.Status]++
	}
	return counts
}
