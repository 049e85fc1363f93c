package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// DefaultMaxEntries is the number of run log entries kept on disk.
const DefaultMaxEntries = 500

// Writer appends executions to the run log under StateDir, pruning the
// oldest entries beyond MaxEntries. Writes from one process are serialised.
type Writer struct {
	// StateDir is the directory containing the run log.
	StateDir string
	// MaxEntries is the maximum number of entries to retain. Zero keeps all.
	MaxEntries int

	mu  sync.Mutex
	now func() time.Time
}

// NewWriter creates a run log writer.
func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
		now:        time.Now,
	}
}

// Record persists a summary of exec and returns the memorable id assigned
// to it.
func (w *Writer) Record(exec *pipeline.Execution) (string, error) {
	if exec == nil {
		return "", fmt.Errorf("recording execution: nil execution")
	}

	now := w.now
	if now == nil {
		now = time.Now
	}
	id, err := GenerateID(now())
	if err != nil {
		return "", fmt.Errorf("generating run id: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	log, err := LoadRunLog(w.StateDir)
	if err != nil {
		return "", fmt.Errorf("loading run log: %w", err)
	}

	log.Entries = append(log.Entries, EntryFromExecution(id, exec))

	if w.MaxEntries > 0 && len(log.Entries) > w.MaxEntries {
		excess := len(log.Entries) - w.MaxEntries
		log.Entries = log.Entries[excess:]
	}

	if err := SaveRunLog(w.StateDir, log); err != nil {
		return "", fmt.Errorf("saving run log: %w", err)
	}
	return id, nil
}
