package executor

import (
	"context"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// Worker performs the delegated work of a single step and returns the output
// to be judged. Implementations must honour ctx: it carries the step timeout.
type Worker interface {
	Perform(ctx context.Context, step pipeline.Step) (pipeline.Output, error)
}

// WorkerFunc adapts a plain function to the Worker interface.
type WorkerFunc func(ctx context.Context, step pipeline.Step) (pipeline.Output, error)

// Perform calls f(ctx, step).
func (f WorkerFunc) Perform(ctx context.Context, step pipeline.Step) (pipeline.Output, error) {
	return f(ctx, step)
}

// Validator judges a step output.
type Validator interface {
	Validate(step pipeline.Step, output pipeline.Output) pipeline.Verdict
}

// Observer receives lifecycle notifications while an execution runs.
// StepStarted is called from worker goroutines and must be safe for
// concurrent use; every other hook is called from the executing goroutine.
type Observer interface {
	ExecutionStarted(exec *pipeline.Execution, totalSteps int)
	WaveStarted(number int, stepIDs []string)
	StepStarted(step pipeline.Step)
	StepFinished(result pipeline.StepResult)
	ExecutionFinished(exec *pipeline.Execution)
}

// NopObserver ignores every notification. Embed it to implement only the
// hooks you need.
type NopObserver struct{}

func (NopObserver) ExecutionStarted(*pipeline.Execution, int) {}
func (NopObserver) WaveStarted(int, []string)                 {}
func (NopObserver) StepStarted(pipeline.Step)                 {}
func (NopObserver) StepFinished(pipeline.StepResult)          {}
func (NopObserver) ExecutionFinished(*pipeline.Execution)     {}

// Observers fans every notification out to each non-nil observer in order.
func Observers(obs ...Observer) Observer {
	list := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) ExecutionStarted(exec *pipeline.Execution, totalSteps int) {
	for _, o := range m {
		o.ExecutionStarted(exec, totalSteps)
	}
}

func (m multiObserver) WaveStarted(number int, stepIDs []string) {
	for _, o := range m {
		o.WaveStarted(number, stepIDs)
	}
}

func (m multiObserver) StepStarted(step pipeline.Step) {
	for _, o := range m {
		o.StepStarted(step)
	}
}

func (m multiObserver) StepFinished(result pipeline.StepResult) {
	for _, o := range m {
		o.StepFinished(result)
	}
}

func (m multiObserver) ExecutionFinished(exec *pipeline.Execution) {
	for _, o := range m {
		o.ExecutionFinished(exec)
	}
}
