// Package executor runs a suite's steps wave by wave. Each wave is the set of
// steps whose dependencies have all executed; its steps run concurrently up
// to a parallelism limit, and the next wave starts only once every step of the
// current one has finished.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/pipecheck/internal/dag"
	"github.com/ariel-frischer/pipecheck/internal/pipeline"
	"github.com/ariel-frischer/pipecheck/internal/validation"
	"github.com/ariel-frischer/pipecheck/internal/worker"
)

// DefaultMaxParallel is the number of steps a wave runs at once unless
// WithMaxParallel says otherwise.
const DefaultMaxParallel = 4

// Executor runs suites. It holds no per-execution state, so one Executor may
// run several suites concurrently.
type Executor struct {
	maxParallel int
	worker      Worker
	validator   Validator
	observer    Observer
	retry       RetryPolicy
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// Option is a functional option for configuring an Executor.
type Option func(*Executor)

// WithMaxParallel sets the maximum number of steps running at once.
// Values below 1 are treated as 1.
func WithMaxParallel(n int) Option {
	return func(e *Executor) {
		e.maxParallel = n
	}
}

// WithWorker sets the delegated work implementation.
func WithWorker(w Worker) Option {
	return func(e *Executor) {
		if w != nil {
			e.worker = w
		}
	}
}

// WithValidator sets the output validator.
func WithValidator(v Validator) Option {
	return func(e *Executor) {
		if v != nil {
			e.validator = v
		}
	}
}

// WithObserver registers an observer for lifecycle notifications. Repeated
// calls add observers; each is notified in registration order.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o == nil {
			return
		}
		if _, nop := e.observer.(NopObserver); nop {
			e.observer = o
			return
		}
		e.observer = Observers(e.observer, o)
	}
}

// WithRetryPolicy sets the retry policy for worker errors and timeouts.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Executor) {
		e.retry = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides how execution ids are generated.
func WithIDGenerator(gen func() string) Option {
	return func(e *Executor) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// New creates an Executor. Without options it answers every step from
// worker.CompleteFixtures and judges outputs with validation.New.
func New(opts ...Option) *Executor {
	e := &Executor{
		maxParallel: DefaultMaxParallel,
		worker:      worker.NewFixtureWorker(worker.CompleteFixtures()),
		validator:   validation.New(),
		observer:    NopObserver{},
		retry:       DefaultRetryPolicy(),
		logger:      slog.Default(),
		now:         time.Now,
		newID:       uuid.NewString,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.maxParallel < 1 {
		e.maxParallel = 1
	}
	e.logger = e.logger.With("component", "executor")
	return e
}

// MaxParallel returns the configured concurrency limit.
func (e *Executor) MaxParallel() int {
	return e.maxParallel
}

// Execute runs every step of suite and returns the finished execution.
// Failures of any kind are recorded on the returned execution; Execute never
// returns an execution in the running state.
//
// Cancelling ctx stops new waves from being launched but does not interrupt
// steps already running; their own timeouts bound them.
func (e *Executor) Execute(ctx context.Context, suite *pipeline.Suite) (exec *pipeline.Execution) {
	exec = &pipeline.Execution{
		ID:        e.newID(),
		Status:    pipeline.ExecutionRunning,
		StartedAt: e.now(),
		Results:   []pipeline.StepResult{},
	}
	if suite != nil {
		exec.SuiteID = suite.ID
		exec.SuiteName = suite.Name
	}

	log := e.logger.With("execution", exec.ID, "suite", exec.SuiteName)

	defer func() {
		if r := recover(); r != nil {
			exec.Status = pipeline.ExecutionErrored
			exec.ErrorSummary = fmt.Sprintf("execution error: %v", r)
			exec.Score = 0
			log.Error("execution panicked", "panic", r)
		}
		exec.CompletedAt = e.now()
		exec.Duration = exec.CompletedAt.Sub(exec.StartedAt)
		log.Info("execution finished",
			"status", exec.Status,
			"score", exec.Score,
			"waves", exec.Waves,
			"duration", exec.Duration)
		e.observer.ExecutionFinished(exec)
	}()

	if suite == nil {
		e.observer.ExecutionStarted(exec, 0)
		exec.Status = pipeline.ExecutionErrored
		exec.ErrorSummary = "no suite to execute"
		return exec
	}

	e.observer.ExecutionStarted(exec, len(suite.Steps))
	log.Info("execution started", "steps", len(suite.Steps), "max_parallel", e.maxParallel)

	e.run(ctx, suite, exec, log)
	return exec
}

// run drives the wave loop and sets the terminal status of exec.
func (e *Executor) run(ctx context.Context, suite *pipeline.Suite, exec *pipeline.Execution, log *slog.Logger) {
	graph, err := dag.Resolve(suite.Steps)
	if err != nil {
		exec.Status = pipeline.ExecutionErrored
		exec.ErrorSummary = fmt.Sprintf("unresolvable step graph: %v", err)
		log.Error("step graph rejected", "error", err)
		return
	}

	executed := make(map[string]bool, graph.Size())
	for len(executed) < graph.Size() {
		if err := ctx.Err(); err != nil {
			exec.Status = pipeline.ExecutionErrored
			exec.ErrorSummary = fmt.Sprintf("execution cancelled: %v", err)
			return
		}

		ready := graph.Ready(executed)
		if len(ready) == 0 {
			exec.Status = pipeline.ExecutionErrored
			exec.ErrorSummary = fmt.Sprintf("unresolvable step graph: %d steps blocked on unexecuted dependencies",
				graph.Size()-len(executed))
			return
		}

		exec.Waves++
		e.observer.WaveStarted(exec.Waves, ready)
		log.Debug("wave started", "wave", exec.Waves, "steps", ready)

		for _, result := range e.runWave(ctx, exec.ID, exec.Waves, graph, ready) {
			executed[result.StepID] = true
			exec.Results = append(exec.Results, result)
		}

		if failed, ok := firstCriticalFailure(suite.Steps, exec.Results); ok {
			exec.Status = pipeline.ExecutionFailed
			exec.ErrorSummary = fmt.Sprintf("critical step %s %s: %s", failed.StepID, failed.Status, failed.Error)
			exec.Score = score(exec.Results)
			log.Warn("critical step did not pass, stopping", "step", failed.StepID, "status", failed.Status)
			return
		}
	}

	exec.Status = pipeline.ExecutionPassed
	exec.Score = score(exec.Results)
}

// runWave runs the given steps concurrently and returns their results in
// completion order.
func (e *Executor) runWave(ctx context.Context, execID string, wave int, graph *dag.DependencyGraph, stepIDs []string) []pipeline.StepResult {
	resultsChan := make(chan pipeline.StepResult, len(stepIDs))

	// No group context: a failing step never cancels its siblings.
	var g errgroup.Group
	g.SetLimit(e.maxParallel)

	go func() {
		for _, id := range stepIDs {
			step := graph.GetNode(id).Step
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						resultsChan <- e.erroredResult(execID, wave, step, &PanicError{StepID: step.ID, Value: r})
					}
				}()
				resultsChan <- e.runStep(ctx, execID, wave, step)
				return nil
			})
		}
		_ = g.Wait()
		close(resultsChan)
	}()

	results := make([]pipeline.StepResult, 0, len(stepIDs))
	for result := range resultsChan {
		e.observer.StepFinished(result)
		results = append(results, result)
	}
	return results
}

// runStep performs, times and judges one step.
func (e *Executor) runStep(ctx context.Context, execID string, wave int, step pipeline.Step) pipeline.StepResult {
	e.observer.StepStarted(step)

	result := pipeline.StepResult{
		ExecutionID: execID,
		StepID:      step.ID,
		Phase:       step.Phase,
		Critical:    step.Critical,
		Status:      pipeline.StepRunning,
		Wave:        wave,
		StartedAt:   e.now(),
	}

	output, attempts, err := e.perform(context.WithoutCancel(ctx), step)
	result.Attempts = attempts

	var timeoutErr *TimeoutError
	switch {
	case errors.As(err, &timeoutErr):
		result.Status = pipeline.StepFailed
		result.Error = timeoutErr.Error()
	case err != nil:
		result.Status = pipeline.StepErrored
		result.Error = err.Error()
	default:
		result.Output = output
		verdict, verr := e.judge(step, output)
		if verr != nil {
			result.Status = pipeline.StepErrored
			result.Error = verr.Error()
			break
		}
		result.Verdict = &verdict
		if verdict.Valid {
			result.Status = pipeline.StepPassed
		} else {
			result.Status = pipeline.StepFailed
			result.Error = "validation failed: " + strings.Join(verdict.Issues, "; ")
		}
	}

	result.CompletedAt = e.now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	if result.Status == pipeline.StepErrored {
		e.logger.Warn("step errored", "execution", execID, "step", step.ID, "error", result.Error)
	} else {
		e.logger.Debug("step finished", "execution", execID, "step", step.ID, "status", result.Status)
	}
	return result
}

// erroredResult records a step that panicked outside the worker and the
// validator, e.g. in an observer hook.
func (e *Executor) erroredResult(execID string, wave int, step pipeline.Step, err error) pipeline.StepResult {
	now := e.now()
	e.logger.Warn("step errored", "execution", execID, "step", step.ID, "error", err)
	return pipeline.StepResult{
		ExecutionID: execID,
		StepID:      step.ID,
		Phase:       step.Phase,
		Critical:    step.Critical,
		Status:      pipeline.StepErrored,
		Wave:        wave,
		StartedAt:   now,
		CompletedAt: now,
		Error:       err.Error(),
	}
}

// perform runs the worker, retrying worker errors and timeouts when the
// policy allows. It returns the number of attempts made.
func (e *Executor) perform(ctx context.Context, step pipeline.Step) (pipeline.Output, int, error) {
	attempts := 0
	operation := func() (pipeline.Output, error) {
		attempts++
		output, err := e.attempt(ctx, step)
		var panicErr *PanicError
		if errors.As(err, &panicErr) {
			return nil, backoff.Permanent(err)
		}
		return output, err
	}

	retries := e.retry.budget(step.Retries)
	if retries == 0 {
		output, err := e.attempt(ctx, step)
		return output, 1, err
	}

	notify := func(err error, wait time.Duration) {
		e.logger.Info("retrying step", "step", step.ID, "attempt", attempts, "wait", wait, "error", err)
	}
	output, err := backoff.RetryNotifyWithData(operation, e.retry.backOff(retries), notify)
	return output, attempts, err
}

// attempt runs the worker once under the step timeout.
func (e *Executor) attempt(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
	stepCtx, cancel := stepContext(ctx, step.Timeout)
	defer cancel()

	type outcome struct {
		output pipeline.Output
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &PanicError{StepID: step.ID, Value: r}}
			}
		}()
		output, err := e.worker.Perform(stepCtx, step)
		done <- outcome{output: output, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{StepID: step.ID, Timeout: step.Timeout}
		}
		return o.output, o.err
	case <-stepCtx.Done():
		return nil, &TimeoutError{StepID: step.ID, Timeout: step.Timeout}
	}
}

func stepContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// judge calls the validator, converting a panic into an error.
func (e *Executor) judge(step pipeline.Step, output pipeline.Output) (verdict pipeline.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panicked: %v", r)
		}
	}()
	return e.validator.Validate(step, output), nil
}

// firstCriticalFailure returns the critical result that failed or errored
// whose step comes first in suite order, so the summary does not depend on
// which step of a wave finished first.
func firstCriticalFailure(steps []pipeline.Step, results []pipeline.StepResult) (pipeline.StepResult, bool) {
	byID := make(map[string]pipeline.StepResult, len(results))
	for _, r := range results {
		byID[r.StepID] = r
	}
	for _, step := range steps {
		r, ok := byID[step.ID]
		if ok && r.Critical && (r.Status == pipeline.StepFailed || r.Status == pipeline.StepErrored) {
			return r, true
		}
	}
	return pipeline.StepResult{}, false
}

// score is the mean verdict score of the results that have one, rounded to
// two decimals, or 0 when none do.
func score(results []pipeline.StepResult) float64 {
	total, n := 0, 0
	for _, r := range results {
		if r.Verdict != nil {
			total += r.Verdict.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(n)*100) / 100
}
