package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
	"github.com/ariel-frischer/pipecheck/internal/suite"
	"github.com/ariel-frischer/pipecheck/internal/worker"
)

func testStep(id string, deps ...string) pipeline.Step {
	return pipeline.Step{
		ID:        id,
		Name:      id,
		Phase:     pipeline.PhaseBuild,
		Criteria:  suite.DefaultCriteria(pipeline.PhaseBuild),
		DependsOn: deps,
		Timeout:   time.Second,
	}
}

func testSuite(steps ...pipeline.Step) *pipeline.Suite {
	return &pipeline.Suite{ID: "suite-1", Name: "test-suite", Steps: steps}
}

func defaultSuite() *pipeline.Suite {
	return suite.NewBuilder(suite.NewCatalog()).BuildDefault()
}

// validatorFunc adapts a function to the Validator interface.
type validatorFunc func(step pipeline.Step, output pipeline.Output) pipeline.Verdict

func (f validatorFunc) Validate(step pipeline.Step, output pipeline.Output) pipeline.Verdict {
	return f(step, output)
}

func passWith(score int) pipeline.Verdict {
	return pipeline.Verdict{Valid: true, Score: score}
}

// recordingObserver captures notifications for assertions.
type recordingObserver struct {
	NopObserver
	mu       sync.Mutex
	started  int
	waves    [][]string
	steps    []string
	finished []pipeline.StepResult
	final    *pipeline.Execution
}

func (o *recordingObserver) ExecutionStarted(*pipeline.Execution, int) { o.started++ }

func (o *recordingObserver) WaveStarted(_ int, ids []string) {
	o.waves = append(o.waves, append([]string(nil), ids...))
}

func (o *recordingObserver) StepStarted(step pipeline.Step) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, step.ID)
}

func (o *recordingObserver) StepFinished(r pipeline.StepResult) { o.finished = append(o.finished, r) }

func (o *recordingObserver) ExecutionFinished(e *pipeline.Execution) { o.final = e }

func TestNew(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts            []Option
		wantMaxParallel int
	}{
		"default options": {
			opts:            nil,
			wantMaxParallel: DefaultMaxParallel,
		},
		"custom max parallel": {
			opts:            []Option{WithMaxParallel(8)},
			wantMaxParallel: 8,
		},
		"zero is clamped": {
			opts:            []Option{WithMaxParallel(0)},
			wantMaxParallel: 1,
		},
		"nil collaborators are ignored": {
			opts:            []Option{WithWorker(nil), WithValidator(nil), WithObserver(nil), WithLogger(nil)},
			wantMaxParallel: DefaultMaxParallel,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			e := New(tt.opts...)
			require.NotNil(t, e)
			assert.Equal(t, tt.wantMaxParallel, e.MaxParallel())
		})
	}
}

func TestExecute_DefaultSuitePasses(t *testing.T) {
	t.Parallel()

	exec := New().Execute(context.Background(), defaultSuite())

	assert.Equal(t, pipeline.ExecutionPassed, exec.Status)
	assert.Equal(t, 100.0, exec.Score)
	assert.Empty(t, exec.ErrorSummary)
	assert.Equal(t, 6, exec.Waves)
	require.Len(t, exec.Results, 6)

	wantOrder := []string{
		"requirements-analysis", "architecture-design", "build-artifacts",
		"test-execution", "deployment", "monitoring-setup",
	}
	for i, r := range exec.Results {
		assert.Equal(t, wantOrder[i], r.StepID)
		assert.Equal(t, pipeline.StepPassed, r.Status)
		assert.Equal(t, i+1, r.Wave)
		assert.Equal(t, 1, r.Attempts)
		assert.Equal(t, exec.ID, r.ExecutionID)
		require.NotNil(t, r.Verdict)
		assert.Equal(t, 100, r.Verdict.Score)
	}
	assert.True(t, exec.Status.IsTerminal())
	assert.False(t, exec.CompletedAt.Before(exec.StartedAt))
}

func TestExecute_GraphErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		steps       []pipeline.Step
		wantSummary string
	}{
		"two step cycle": {
			steps:       []pipeline.Step{testStep("a", "b"), testStep("b", "a")},
			wantSummary: "circular dependency",
		},
		"cycle behind a healthy root": {
			steps:       []pipeline.Step{testStep("root"), testStep("x", "root", "y"), testStep("y", "x")},
			wantSummary: "circular dependency",
		},
		"dangling reference": {
			steps:       []pipeline.Step{testStep("a"), testStep("b", "ghost")},
			wantSummary: "unknown step ghost",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			w := worker.NewFixtureWorker(worker.CompleteFixtures())
			exec := New(WithWorker(w)).Execute(context.Background(), testSuite(tt.steps...))

			assert.Equal(t, pipeline.ExecutionErrored, exec.Status)
			assert.Contains(t, exec.ErrorSummary, tt.wantSummary)
			assert.Empty(t, exec.Results)
			assert.Zero(t, exec.Score)
			assert.Zero(t, exec.Waves)
			for _, s := range tt.steps {
				assert.Zero(t, w.Calls(s.ID), "step %s must not run", s.ID)
			}
		})
	}
}

func TestExecute_CriticalFailureStopsLaterWaves(t *testing.T) {
	t.Parallel()

	fixtures := worker.CompleteFixtures().Merge(worker.Fixtures{
		pipeline.PhaseBuild: {"test_coverage": 50},
	})
	w := worker.NewFixtureWorker(fixtures)

	exec := New(WithWorker(w)).Execute(context.Background(), defaultSuite())

	assert.Equal(t, pipeline.ExecutionFailed, exec.Status)
	assert.Contains(t, exec.ErrorSummary, "critical step build-artifacts failed")
	require.Len(t, exec.Results, 3)

	build, ok := exec.Result("build-artifacts")
	require.True(t, ok)
	assert.Equal(t, pipeline.StepFailed, build.Status)
	require.NotNil(t, build.Verdict)
	assert.False(t, build.Verdict.Valid)
	assert.Contains(t, build.Error, "test coverage 50 is below the minimum of 80")

	_, ok = exec.Result("test-execution")
	assert.False(t, ok, "test step depends on build and must not run")
	assert.Zero(t, w.Calls("test-execution"))
	assert.Equal(t, 3, exec.Waves)
}

func TestExecute_SameWaveStepsFinishAfterCriticalFailure(t *testing.T) {
	t.Parallel()

	bad := testStep("bad")
	bad.Critical = true
	slow := testStep("slow")
	later := testStep("later", "bad", "slow")

	var slowDone atomic.Bool
	w := WorkerFunc(func(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
		switch step.ID {
		case "bad":
			return nil, errors.New("exploded")
		case "slow":
			time.Sleep(20 * time.Millisecond)
			slowDone.Store(true)
		}
		return worker.CompleteFixtures()[pipeline.PhaseBuild], nil
	})

	exec := New(WithWorker(w)).Execute(context.Background(), testSuite(bad, slow, later))

	assert.Equal(t, pipeline.ExecutionFailed, exec.Status)
	assert.True(t, slowDone.Load())
	require.Len(t, exec.Results, 2)
	_, ok := exec.Result("slow")
	assert.True(t, ok)
	_, ok = exec.Result("later")
	assert.False(t, ok)
	assert.Contains(t, exec.ErrorSummary, "critical step bad errored: exploded")
}

func TestExecute_NonCriticalFailuresDoNotStop(t *testing.T) {
	t.Parallel()

	w := WorkerFunc(func(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
		if step.ID == "flaky" {
			return nil, errors.New("connection reset")
		}
		if step.ID == "weak" {
			return pipeline.Output{"artifacts": []any{"compiled_binary"}}, nil
		}
		return worker.CompleteFixtures()[pipeline.PhaseBuild], nil
	})

	exec := New(WithWorker(w)).Execute(context.Background(),
		testSuite(testStep("flaky"), testStep("weak"), testStep("after", "flaky", "weak")))

	assert.Equal(t, pipeline.ExecutionPassed, exec.Status)

	flaky, _ := exec.Result("flaky")
	assert.Equal(t, pipeline.StepErrored, flaky.Status)
	assert.Nil(t, flaky.Verdict)
	assert.Equal(t, "connection reset", flaky.Error)

	weak, _ := exec.Result("weak")
	assert.Equal(t, pipeline.StepFailed, weak.Status)
	assert.Equal(t, 33, weak.Verdict.Score)

	after, ok := exec.Result("after")
	require.True(t, ok)
	assert.Equal(t, pipeline.StepPassed, after.Status)

	// flaky has no verdict, so the mean covers weak and after only.
	assert.Equal(t, 66.5, exec.Score)
}

func TestExecute_StepOutcomes(t *testing.T) {
	t.Parallel()

	blocking := WorkerFunc(func(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ignoring := WorkerFunc(func(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
		time.Sleep(200 * time.Millisecond)
		return pipeline.Output{}, nil
	})
	panicking := WorkerFunc(func(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
		panic("nil map write")
	})
	fine := worker.NewFixtureWorker(worker.CompleteFixtures())
	brokenValidator := validatorFunc(func(pipeline.Step, pipeline.Output) pipeline.Verdict {
		panic("index out of range")
	})

	tests := map[string]struct {
		opts       []Option
		wantStatus pipeline.StepStatus
		wantError  string
	}{
		"timeout honoured by worker": {
			opts:       []Option{WithWorker(blocking)},
			wantStatus: pipeline.StepFailed,
			wantError:  "timed out after 20ms",
		},
		"timeout ignored by worker": {
			opts:       []Option{WithWorker(ignoring)},
			wantStatus: pipeline.StepFailed,
			wantError:  "timed out after 20ms",
		},
		"worker panic": {
			opts:       []Option{WithWorker(panicking)},
			wantStatus: pipeline.StepErrored,
			wantError:  "step s panicked: nil map write",
		},
		"validator panic": {
			opts:       []Option{WithWorker(fine), WithValidator(brokenValidator)},
			wantStatus: pipeline.StepErrored,
			wantError:  "validator panicked: index out of range",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			step := testStep("s")
			step.Timeout = 20 * time.Millisecond
			step.Critical = true

			exec := New(tt.opts...).Execute(context.Background(), testSuite(step))

			require.Len(t, exec.Results, 1)
			r := exec.Results[0]
			assert.Equal(t, tt.wantStatus, r.Status)
			assert.Equal(t, tt.wantError, r.Error)
			assert.Nil(t, r.Verdict)
			assert.Equal(t, pipeline.ExecutionFailed, exec.Status, "critical step must fail the execution")
			assert.Zero(t, exec.Score)
		})
	}
}

func TestExecute_DependencyOrdering(t *testing.T) {
	t.Parallel()

	steps := []pipeline.Step{
		testStep("a"),
		testStep("b", "a"),
		testStep("c", "a"),
		testStep("d", "b", "c"),
		testStep("e"),
		testStep("f", "e", "d"),
	}

	exec := New(WithMaxParallel(3)).Execute(context.Background(), testSuite(steps...))
	require.Equal(t, pipeline.ExecutionPassed, exec.Status)
	require.Len(t, exec.Results, len(steps))

	position := make(map[string]int, len(exec.Results))
	for i, r := range exec.Results {
		position[r.StepID] = i
	}
	for _, s := range steps {
		r, _ := exec.Result(s.ID)
		for _, dep := range s.DependsOn {
			assert.Less(t, position[dep], position[s.ID], "%s must complete before %s", dep, s.ID)
			depResult, _ := exec.Result(dep)
			assert.False(t, r.StartedAt.Before(depResult.CompletedAt), "%s started before %s finished", s.ID, dep)
		}
	}
	assert.Equal(t, 4, exec.Waves)
}

func TestExecute_WaveRunsConcurrently(t *testing.T) {
	t.Parallel()

	const n = 3
	var arrived sync.WaitGroup
	arrived.Add(n)
	allHere := make(chan struct{})
	go func() {
		arrived.Wait()
		close(allHere)
	}()

	// Each step waits for every sibling to start, which only succeeds when
	// the wave really runs them at the same time.
	w := WorkerFunc(func(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
		arrived.Done()
		select {
		case <-allHere:
			return worker.CompleteFixtures()[pipeline.PhaseBuild], nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	exec := New(WithWorker(w), WithMaxParallel(n)).
		Execute(context.Background(), testSuite(testStep("a"), testStep("b"), testStep("c")))

	assert.Equal(t, pipeline.ExecutionPassed, exec.Status)
	assert.Equal(t, 1, exec.Waves)
}

func TestExecute_MaxParallelLimit(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	w := WorkerFunc(func(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
		now := running.Add(1)
		for {
			old := peak.Load()
			if now <= old || peak.CompareAndSwap(old, now) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return worker.CompleteFixtures()[pipeline.PhaseBuild], nil
	})

	steps := make([]pipeline.Step, 0, 6)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		steps = append(steps, testStep(id))
	}

	exec := New(WithWorker(w), WithMaxParallel(2)).Execute(context.Background(), testSuite(steps...))

	assert.Equal(t, pipeline.ExecutionPassed, exec.Status)
	assert.Len(t, exec.Results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestExecute_IdempotentRerun(t *testing.T) {
	t.Parallel()

	e := New()
	s := defaultSuite()

	first := e.Execute(context.Background(), s)
	second := e.Execute(context.Background(), s)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Score, second.Score)
	require.Len(t, second.Results, len(first.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].StepID, second.Results[i].StepID)
		assert.Equal(t, first.Results[i].Status, second.Results[i].Status)
		assert.Equal(t, first.Results[i].Verdict, second.Results[i].Verdict)
	}
}

func TestExecute_ScoreRounding(t *testing.T) {
	t.Parallel()

	scores := map[string]int{"a": 100, "b": 100, "c": 0}
	v := validatorFunc(func(step pipeline.Step, _ pipeline.Output) pipeline.Verdict {
		return passWith(scores[step.ID])
	})

	exec := New(WithValidator(v)).Execute(context.Background(),
		testSuite(testStep("a"), testStep("b"), testStep("c")))

	assert.Equal(t, pipeline.ExecutionPassed, exec.Status)
	assert.Equal(t, 66.67, exec.Score)
}

func TestExecute_Retry(t *testing.T) {
	t.Parallel()

	fastRetry := RetryPolicy{Enabled: true, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

	tests := map[string]struct {
		policy       RetryPolicy
		failures     int32
		retries      int
		badOutput    bool
		wantStatus   pipeline.StepStatus
		wantAttempts int
	}{
		"disabled by default": {
			policy:       DefaultRetryPolicy(),
			failures:     1,
			retries:      2,
			wantStatus:   pipeline.StepErrored,
			wantAttempts: 1,
		},
		"recovers within budget": {
			policy:       fastRetry,
			failures:     2,
			retries:      2,
			wantStatus:   pipeline.StepPassed,
			wantAttempts: 3,
		},
		"budget exhausted": {
			policy:       fastRetry,
			failures:     5,
			retries:      2,
			wantStatus:   pipeline.StepErrored,
			wantAttempts: 3,
		},
		"zero budget": {
			policy:       fastRetry,
			failures:     1,
			retries:      0,
			wantStatus:   pipeline.StepErrored,
			wantAttempts: 1,
		},
		"validation rejections are not retried": {
			policy:       fastRetry,
			retries:      2,
			badOutput:    true,
			wantStatus:   pipeline.StepFailed,
			wantAttempts: 1,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			w := WorkerFunc(func(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
				if calls.Add(1) <= tt.failures {
					return nil, errors.New("transient")
				}
				if tt.badOutput {
					return pipeline.Output{}, nil
				}
				return worker.CompleteFixtures()[pipeline.PhaseBuild], nil
			})

			step := testStep("s")
			step.Retries = tt.retries

			exec := New(WithWorker(w), WithRetryPolicy(tt.policy)).Execute(context.Background(), testSuite(step))

			require.Len(t, exec.Results, 1)
			assert.Equal(t, tt.wantStatus, exec.Results[0].Status)
			assert.Equal(t, tt.wantAttempts, exec.Results[0].Attempts)
			assert.Equal(t, int32(tt.wantAttempts), calls.Load())
		})
	}
}

func TestExecute_RetryDoesNotRetryPanics(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	w := WorkerFunc(func(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
		calls.Add(1)
		panic("boom")
	})

	step := testStep("s")
	step.Retries = 3
	policy := RetryPolicy{Enabled: true, InitialInterval: time.Millisecond}

	exec := New(WithWorker(w), WithRetryPolicy(policy)).Execute(context.Background(), testSuite(step))

	require.Len(t, exec.Results, 1)
	assert.Equal(t, pipeline.StepErrored, exec.Results[0].Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExecute_Observer(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	exec := New(WithObserver(obs)).Execute(context.Background(),
		testSuite(testStep("a"), testStep("b", "a"), testStep("c", "a")))

	assert.Equal(t, 1, obs.started)
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}}, obs.waves)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, obs.steps)
	assert.Len(t, obs.finished, 3)
	assert.Same(t, exec, obs.final)
	assert.Equal(t, pipeline.ExecutionPassed, obs.final.Status)
}

// panickingObserver panics in StepStarted for one step id, or in
// StepFinished when finishedPanics is set.
type panickingObserver struct {
	NopObserver
	stepID         string
	finishedPanics bool
}

func (o panickingObserver) StepStarted(step pipeline.Step) {
	if step.ID == o.stepID {
		panic("observer boom")
	}
}

func (o panickingObserver) StepFinished(pipeline.StepResult) {
	if o.finishedPanics {
		panic("finished boom")
	}
}

func TestExecute_ObserverPanics(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		observer    panickingObserver
		wantStatus  pipeline.ExecutionStatus
		wantSummary string
		check       func(t *testing.T, exec *pipeline.Execution)
	}{
		"step started on a critical step": {
			observer:    panickingObserver{stepID: "a"},
			wantStatus:  pipeline.ExecutionFailed,
			wantSummary: "critical step a errored",
			check: func(t *testing.T, exec *pipeline.Execution) {
				a, ok := exec.Result("a")
				require.True(t, ok)
				assert.Equal(t, pipeline.StepErrored, a.Status)
				assert.Contains(t, a.Error, "observer boom")
				assert.Nil(t, a.Verdict)

				_, ok = exec.Result("b")
				assert.False(t, ok, "dependents of the failed step never run")
			},
		},
		"step finished": {
			observer:    panickingObserver{finishedPanics: true},
			wantStatus:  pipeline.ExecutionErrored,
			wantSummary: "finished boom",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := testStep("a")
			a.Critical = true
			exec := New(WithObserver(tt.observer)).Execute(context.Background(), testSuite(a, testStep("b", "a")))

			assert.Equal(t, tt.wantStatus, exec.Status)
			assert.Contains(t, exec.ErrorSummary, tt.wantSummary)
			if tt.check != nil {
				tt.check(t, exec)
			}
		})
	}
}

func TestExecute_CriticalFailureSummaryFollowsSuiteOrder(t *testing.T) {
	t.Parallel()

	// "slow" is listed first but finishes last.
	w := WorkerFunc(func(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
		if step.ID == "slow" {
			time.Sleep(30 * time.Millisecond)
		}
		return nil, errors.New(step.ID + " broke")
	})

	slow := testStep("slow")
	slow.Critical = true
	fast := testStep("fast")
	fast.Critical = true

	for i := 0; i < 3; i++ {
		exec := New(WithWorker(w)).Execute(context.Background(), testSuite(slow, fast))

		require.Equal(t, pipeline.ExecutionFailed, exec.Status)
		require.Len(t, exec.Results, 2)
		assert.Equal(t, "fast", exec.Results[0].StepID, "results stay in completion order")
		assert.Equal(t, "critical step slow errored: slow broke", exec.ErrorSummary)
	}
}

func TestExecute_MultipleObservers(t *testing.T) {
	t.Parallel()

	first := &recordingObserver{}
	second := &recordingObserver{}
	exec := New(WithObserver(first), WithObserver(nil), WithObserver(second)).
		Execute(context.Background(), testSuite(testStep("a"), testStep("b", "a")))

	for _, obs := range []*recordingObserver{first, second} {
		assert.Equal(t, 1, obs.started)
		assert.Len(t, obs.finished, 2)
		assert.Same(t, exec, obs.final)
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := New().Execute(ctx, testSuite(testStep("a")))

	assert.Equal(t, pipeline.ExecutionErrored, exec.Status)
	assert.Contains(t, exec.ErrorSummary, "execution cancelled")
	assert.Empty(t, exec.Results)
}

func TestExecute_NilSuite(t *testing.T) {
	t.Parallel()

	exec := New().Execute(context.Background(), nil)

	assert.Equal(t, pipeline.ExecutionErrored, exec.Status)
	assert.NotEmpty(t, exec.ErrorSummary)
}

func TestExecute_InjectedClockAndID(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var ticks atomic.Int64
	clock := func() time.Time {
		return base.Add(time.Duration(ticks.Add(1)) * time.Second)
	}

	exec := New(WithClock(clock), WithIDGenerator(func() string { return "exec-1" })).
		Execute(context.Background(), testSuite(testStep("a")))

	assert.Equal(t, "exec-1", exec.ID)
	assert.Equal(t, "exec-1", exec.Results[0].ExecutionID)
	assert.Equal(t, base.Add(time.Second), exec.StartedAt)
	assert.Equal(t, 3*time.Second, exec.Duration)
	assert.Equal(t, time.Second, exec.Results[0].Duration)
}
