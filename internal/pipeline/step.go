package pipeline

import "time"

// Output is the structured payload produced by a step's delegated work.
type Output map[string]any

// Criteria holds the phase-specific acceptance thresholds for a step.
// Zero-valued thresholds are not enforced.
type Criteria struct {
	// Required lists the sections, components, artifacts, tests, checks or
	// metrics (depending on phase) that must be present in the output.
	Required            []string `json:"required,omitempty" yaml:"required,omitempty"`
	MinWordCount        int      `json:"min_word_count,omitempty" yaml:"min_word_count,omitempty" validate:"min=0"`
	MaxComplexity       float64  `json:"max_complexity,omitempty" yaml:"max_complexity,omitempty" validate:"min=0"`
	MinCoverage         float64  `json:"min_coverage,omitempty" yaml:"min_coverage,omitempty" validate:"min=0,max=100"`
	MinPassRate         float64  `json:"min_pass_rate,omitempty" yaml:"min_pass_rate,omitempty" validate:"min=0,max=100"`
	MaxResponseTimeMS   float64  `json:"max_response_time_ms,omitempty" yaml:"max_response_time_ms,omitempty" validate:"min=0"`
	RequireHealthChecks bool     `json:"require_health_checks,omitempty" yaml:"require_health_checks,omitempty"`
	RequireAlerting     bool     `json:"require_alerting,omitempty" yaml:"require_alerting,omitempty"`
}

// Step is a single unit of pipeline work. Steps are immutable once a Suite
// has been built.
type Step struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Phase       Phase  `json:"phase" yaml:"phase" validate:"required,phase"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// ExpectedOutput describes the output shape. Advisory only.
	ExpectedOutput map[string]string `json:"expected_output,omitempty" yaml:"expected_output,omitempty"`
	Criteria       Criteria          `json:"criteria" yaml:"criteria"`
	DependsOn      []string          `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Timeout        time.Duration     `json:"timeout" yaml:"timeout" validate:"gt=0"`
	// Retries is the retry budget. It is only consumed when the executor
	// runs with retries enabled.
	Retries  int  `json:"retries,omitempty" yaml:"retries,omitempty" validate:"min=0,max=10"`
	Critical bool `json:"critical" yaml:"critical"`
}

// Suite is a named, immutable catalog of steps and their dependency graph.
type Suite struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Phases      []Phase   `json:"phases" yaml:"phases"`
	Steps       []Step    `json:"steps" yaml:"steps"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Step returns the step with the given id.
func (s *Suite) Step(id string) (Step, bool) {
	for _, st := range s.Steps {
		if st.ID == id {
			return st, true
		}
	}
	return Step{}, false
}

// StepIDs returns the step ids in suite order.
func (s *Suite) StepIDs() []string {
	ids := make([]string, len(s.Steps))
	for i, st := range s.Steps {
		ids[i] = st.ID
	}
	return ids
}
