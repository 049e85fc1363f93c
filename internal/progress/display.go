package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/ariel-frischer/pipecheck/internal/executor"
	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

var _ executor.Observer = (*Display)(nil)

// Display shows execution progress. It implements executor.Observer, so it
// can be passed straight to executor.WithObserver.
type Display struct {
	capabilities TerminalCapabilities
	symbols      ProgressSymbols
	out          io.Writer

	mu          sync.Mutex
	spinner     *spinner.Spinner
	wave        *WaveInfo
	wavePending int
	done        int
	total       int
}

// NewDisplay creates a display writing to out with the given terminal
// capabilities.
func NewDisplay(caps TerminalCapabilities, out io.Writer) *Display {
	return &Display{
		capabilities: caps,
		symbols:      SelectSymbols(caps),
		out:          out,
	}
}

// StartWave begins displaying progress for a wave
func (d *Display) StartWave(w WaveInfo) error {
	if err := w.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.wave = &w
	d.wavePending = len(w.StepIDs)
	d.startSpinner(buildWaveMessage(w))
	return nil
}

// CompleteStep stops the spinner, prints the step outcome and resumes the
// spinner while other steps of the wave are still running.
func (d *Display) CompleteStep(r pipeline.StepResult) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopSpinner()
	d.done++
	mark := markFor(r.Status, d.symbols, d.capabilities.SupportsColor)
	fmt.Fprintf(d.out, "%s %s\n", mark, buildStepMessage(r, d.done, d.total))

	if d.wavePending > 0 {
		d.wavePending--
	}
	if d.wave != nil && d.wavePending > 0 && d.capabilities.IsTTY {
		w := *d.wave
		w.Done = d.done
		d.startSpinner(buildWaveMessage(w))
	}
}

// Finish stops the spinner and prints the execution summary.
func (d *Display) Finish(exec *pipeline.Execution) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopSpinner()
	d.wave = nil
	mark := executionMark(exec.Status, d.symbols, d.capabilities.SupportsColor)
	fmt.Fprintf(d.out, "%s %s\n", mark, buildSummaryMessage(exec))
}

// StopSpinner stops the spinner without printing anything.
func (d *Display) StopSpinner() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopSpinner()
}

// ExecutionStarted implements executor.Observer.
func (d *Display) ExecutionStarted(exec *pipeline.Execution, totalSteps int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.done = 0
	d.total = totalSteps
	fmt.Fprintf(d.out, "Running suite %s (%d steps)\n", exec.SuiteName, totalSteps)
}

// WaveStarted implements executor.Observer.
func (d *Display) WaveStarted(number int, stepIDs []string) {
	d.mu.Lock()
	info := WaveInfo{Number: number, StepIDs: stepIDs, Done: d.done, TotalSteps: d.total}
	d.mu.Unlock()

	// The executor only announces non-empty waves of a validated graph.
	_ = d.StartWave(info)
}

// StepStarted implements executor.Observer.
func (d *Display) StepStarted(pipeline.Step) {}

// StepFinished implements executor.Observer.
func (d *Display) StepFinished(r pipeline.StepResult) {
	d.CompleteStep(r)
}

// ExecutionFinished implements executor.Observer.
func (d *Display) ExecutionFinished(exec *pipeline.Execution) {
	d.Finish(exec)
}

// startSpinner must be called with d.mu held.
func (d *Display) startSpinner(msg string) {
	if !d.capabilities.IsTTY {
		fmt.Fprintln(d.out, msg)
		return
	}

	d.spinner = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond)
	d.spinner.Writer = d.out
	d.spinner.Suffix = " " + msg
	d.spinner.Start()
}

// stopSpinner must be called with d.mu held.
func (d *Display) stopSpinner() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
