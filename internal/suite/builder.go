// Package suite builds test suites: the default six-phase chain and custom
// caller-defined suites. Built suites are registered in a Catalog.
package suite

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

var (
	// ErrDuplicateStep indicates two steps in a suite share an id.
	ErrDuplicateStep = errors.New("duplicate step id")

	// ErrInvalidSuite indicates a suite definition failed struct validation.
	ErrInvalidSuite = errors.New("invalid suite")
)

// Builder constructs suites and registers them in a catalog.
type Builder struct {
	catalog  *Catalog
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// BuilderOption is a functional option for configuring a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the time source used for suite timestamps.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// WithIDGenerator overrides the suite id generator.
func WithIDGenerator(gen func() string) BuilderOption {
	return func(b *Builder) {
		b.newID = gen
	}
}

// NewBuilder creates a Builder that registers suites in catalog.
func NewBuilder(catalog *Catalog, opts ...BuilderOption) *Builder {
	b := &Builder{
		catalog:  catalog,
		validate: NewStructValidator(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewStructValidator returns a validator with the "phase" tag registered.
func NewStructValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phase", func(fl validator.FieldLevel) bool {
		return pipeline.Phase(fl.Field().String()).Valid()
	})
	return v
}

// Catalog returns the catalog suites are registered in.
func (b *Builder) Catalog() *Catalog {
	return b.catalog
}

// BuildDefault builds and registers the six-phase default suite.
func (b *Builder) BuildDefault() *pipeline.Suite {
	now := b.now()
	s := &pipeline.Suite{
		ID:          b.newID(),
		Name:        DefaultSuiteName,
		Description: "Full pipeline: requirements, architecture, build, test, deploy, monitor",
		Phases:      pipeline.AllPhases(),
		Steps:       defaultSteps(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// A fresh uuid cannot collide; ignore the duplicate error.
	_ = b.catalog.Add(s)
	return s
}

// BuildCustom builds and registers a suite from caller-supplied phases and
// steps. Steps are taken verbatim: no dependencies or criticality are
// injected. When steps is empty, one template step per listed phase is used,
// with dependencies cleared. Dangling dependency references are not checked
// here; the executor reports them as graph errors.
func (b *Builder) BuildCustom(name, description string, phases []pipeline.Phase, steps []pipeline.Step) (*pipeline.Suite, error) {
	if name == "" {
		return nil, fmt.Errorf("building suite: %w: name is required", ErrInvalidSuite)
	}
	for _, p := range phases {
		if !p.Valid() {
			return nil, fmt.Errorf("building suite %s: %w: unknown phase %q", name, ErrInvalidSuite, p)
		}
	}

	if len(steps) == 0 {
		steps = templateSteps(phases)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("building suite %s: %w: no steps or phases given", name, ErrInvalidSuite)
	}

	if err := b.validateSteps(steps); err != nil {
		return nil, fmt.Errorf("building suite %s: %w", name, err)
	}

	if len(phases) == 0 {
		phases = phasesOf(steps)
	}

	now := b.now()
	s := &pipeline.Suite{
		ID:          b.newID(),
		Name:        name,
		Description: description,
		Phases:      append([]pipeline.Phase(nil), phases...),
		Steps:       cloneSteps(steps),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := b.catalog.Add(s); err != nil {
		return nil, fmt.Errorf("building suite %s: %w", name, err)
	}
	return s, nil
}

// validateSteps runs struct validation and rejects duplicate ids.
func (b *Builder) validateSteps(steps []pipeline.Step) error {
	seen := make(map[string]bool, len(steps))
	for i := range steps {
		if err := b.validate.Struct(steps[i]); err != nil {
			return fmt.Errorf("%w: step %d (%s): %v", ErrInvalidSuite, i+1, steps[i].ID, err)
		}
		if seen[steps[i].ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateStep, steps[i].ID)
		}
		seen[steps[i].ID] = true
	}
	return nil
}

// templateSteps returns the default step for each phase with dependencies
// cleared.
func templateSteps(phases []pipeline.Phase) []pipeline.Step {
	defaults := defaultSteps()
	steps := make([]pipeline.Step, 0, len(phases))
	for _, p := range phases {
		for _, st := range defaults {
			if st.Phase == p {
				st.DependsOn = nil
				steps = append(steps, st)
				break
			}
		}
	}
	return steps
}

// phasesOf returns the distinct phases of steps in first-seen order.
func phasesOf(steps []pipeline.Step) []pipeline.Phase {
	seen := make(map[pipeline.Phase]bool)
	var phases []pipeline.Phase
	for _, st := range steps {
		if !seen[st.Phase] {
			seen[st.Phase] = true
			phases = append(phases, st.Phase)
		}
	}
	return phases
}

// cloneSteps copies steps so later caller mutation cannot reach the suite.
func cloneSteps(steps []pipeline.Step) []pipeline.Step {
	out := make([]pipeline.Step, len(steps))
	for i, st := range steps {
		st.DependsOn = append([]string(nil), st.DependsOn...)
		st.Criteria.Required = append([]string(nil), st.Criteria.Required...)
		if st.ExpectedOutput != nil {
			eo := make(map[string]string, len(st.ExpectedOutput))
			for k, v := range st.ExpectedOutput {
				eo[k] = v
			}
			st.ExpectedOutput = eo
		}
		out[i] = st
	}
	return out
}
