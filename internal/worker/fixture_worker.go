package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// ErrNoFixture is returned when a step's phase has no fixture output.
var ErrNoFixture = errors.New("no fixture for phase")

// FixtureWorker performs steps by returning the fixture output of the step's
// phase. Step-level overrides take precedence over phase fixtures.
// It is safe for concurrent use.
type FixtureWorker struct {
	fixtures Fixtures
	steps    map[string]pipeline.Output
	failures map[string]error
	delay    time.Duration

	mu    sync.Mutex
	calls map[string]int
}

// Option configures a FixtureWorker.
type Option func(*FixtureWorker)

// WithStepOutput replaces the output returned for a single step id.
func WithStepOutput(stepID string, output pipeline.Output) Option {
	return func(w *FixtureWorker) {
		w.steps[stepID] = output
	}
}

// WithStepError makes the worker fail the given step with err.
func WithStepError(stepID string, err error) Option {
	return func(w *FixtureWorker) {
		w.failures[stepID] = err
	}
}

// WithDelay makes every call wait d before answering, or until the step's
// context is done.
func WithDelay(d time.Duration) Option {
	return func(w *FixtureWorker) {
		w.delay = d
	}
}

// NewFixtureWorker creates a worker answering from fixtures.
func NewFixtureWorker(fixtures Fixtures, opts ...Option) *FixtureWorker {
	w := &FixtureWorker{
		fixtures: fixtures.Clone(),
		steps:    make(map[string]pipeline.Output),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Perform returns a copy of the step's fixture output.
func (w *FixtureWorker) Perform(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
	w.mu.Lock()
	w.calls[step.ID]++
	w.mu.Unlock()

	if w.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(w.delay):
		}
	}

	if err, ok := w.failures[step.ID]; ok {
		return nil, err
	}
	if output, ok := w.steps[step.ID]; ok {
		return cloneOutput(output), nil
	}
	output, ok := w.fixtures[step.Phase]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoFixture, step.Phase)
	}
	return cloneOutput(output), nil
}

// Calls reports how many times stepID was performed.
func (w *FixtureWorker) Calls(stepID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[stepID]
}
