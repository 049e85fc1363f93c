// Package history keeps the record of past executions: a bounded in-memory
// log for the running process, and a YAML run log persisted under the state
// directory so results survive between CLI invocations.
package history

import (
	"sync"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// DefaultLimit is the number of executions a Log keeps when none is given.
const DefaultLimit = 1000

// Log is an append-only, bounded list of executions held in memory.
// Once the limit is reached the oldest execution is dropped for each new
// one. The log lives as long as its owner and is never persisted.
// It is safe for concurrent use.
type Log struct {
	mu         sync.RWMutex
	executions []*pipeline.Execution
	limit      int
}

// NewLog creates a log holding at most limit executions.
// A limit of zero or less uses DefaultLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{limit: limit}
}

// Append records exec, pruning the oldest entry when full.
func (l *Log) Append(exec *pipeline.Execution) {
	if exec == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.executions = append(l.executions, exec)
	if excess := len(l.executions) - l.limit; excess > 0 {
		l.executions = append([]*pipeline.Execution(nil), l.executions[excess:]...)
	}
}

// Recent returns up to limit executions, most recent first.
// A limit of zero or less returns every execution.
func (l *Log) Recent(limit int) []*pipeline.Execution {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.executions)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*pipeline.Execution, 0, n)
	for i := len(l.executions) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.executions[i])
	}
	return out
}

// Len returns the number of executions held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.executions)
}

// Statistics summarises every execution currently held.
func (l *Log) Statistics() Statistics {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var t tally
	for _, exec := range l.executions {
		t.add(exec.Status, exec.Score)
	}
	return t.statistics()
}
