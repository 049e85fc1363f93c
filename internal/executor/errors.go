package executor

import (
	"fmt"
	"time"
)

// TimeoutError reports a step whose worker did not answer within the step's
// timeout. Timed-out steps are recorded as failed, not errored.
type TimeoutError struct {
	StepID  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s", e.Timeout)
}

// PanicError wraps a value recovered from a panicking worker.
type PanicError struct {
	StepID string
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("step %s panicked: %v", e.StepID, e.Value)
}
