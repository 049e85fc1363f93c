package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

const (
	// RunLogFileName is the name of the persisted run log.
	RunLogFileName = "runs.yaml"
	// BackupSuffix is appended to a run log that could not be parsed.
	BackupSuffix = ".backup"
)

// Entry is one persisted execution summary.
type Entry struct {
	// ID is a memorable adjective_noun_YYYYMMDD_HHMMSS identifier.
	ID           string                   `json:"id" yaml:"id"`
	ExecutionID  string                   `json:"execution_id" yaml:"execution_id"`
	SuiteID      string                   `json:"suite_id" yaml:"suite_id"`
	Suite        string                   `json:"suite" yaml:"suite"`
	Status       pipeline.ExecutionStatus `json:"status" yaml:"status"`
	Score        float64                  `json:"score" yaml:"score"`
	StartedAt    time.Time                `json:"started_at" yaml:"started_at"`
	CompletedAt  time.Time                `json:"completed_at" yaml:"completed_at"`
	Duration     string                   `json:"duration" yaml:"duration"`
	Waves        int                      `json:"waves" yaml:"waves"`
	Steps        map[string]int           `json:"steps,omitempty" yaml:"steps,omitempty"`
	ErrorSummary string                   `json:"error_summary,omitempty" yaml:"error_summary,omitempty"`
}

// RunLog is the YAML document holding every persisted entry, oldest first.
type RunLog struct {
	Entries []Entry `yaml:"entries"`
}

// Statistics summarises the persisted entries.
func (r *RunLog) Statistics() Statistics {
	var t tally
	for _, e := range r.Entries {
		t.add(e.Status, e.Score)
	}
	return t.statistics()
}

// EntryFromExecution summarises exec for the run log.
func EntryFromExecution(id string, exec *pipeline.Execution) Entry {
	steps := make(map[string]int)
	for status, n := range exec.CountByStatus() {
		steps[string(status)] = n
	}
	return Entry{
		ID:           id,
		ExecutionID:  exec.ID,
		SuiteID:      exec.SuiteID,
		Suite:        exec.SuiteName,
		Status:       exec.Status,
		Score:        exec.Score,
		StartedAt:    exec.StartedAt,
		CompletedAt:  exec.CompletedAt,
		Duration:     exec.Duration.String(),
		Waves:        exec.Waves,
		Steps:        steps,
		ErrorSummary: exec.ErrorSummary,
	}
}

// DefaultStateDir returns ~/.pipecheck/state.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".pipecheck", "state"), nil
}

// LoadRunLog reads the run log from stateDir. A missing file yields an empty
// log; an unparseable one is moved aside with BackupSuffix and replaced by an
// empty log.
func LoadRunLog(stateDir string) (*RunLog, error) {
	path := filepath.Join(stateDir, RunLogFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RunLog{Entries: []Entry{}}, nil
		}
		return nil, fmt.Errorf("reading run log: %w", err)
	}

	var log RunLog
	if err := yaml.Unmarshal(data, &log); err != nil {
		if backupErr := os.Rename(path, path+BackupSuffix); backupErr != nil {
			return nil, fmt.Errorf("backing up corrupted run log: %w", backupErr)
		}
		return &RunLog{Entries: []Entry{}}, nil
	}

	if log.Entries == nil {
		log.Entries = []Entry{}
	}
	return &log, nil
}

// SaveRunLog writes log to stateDir atomically via a temp file and rename.
func SaveRunLog(stateDir string, log *RunLog) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshaling run log: %w", err)
	}

	path := filepath.Join(stateDir, RunLogFileName)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp run log: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp run log: %w", err)
	}
	return nil
}

// ClearRunLog removes every persisted entry.
func ClearRunLog(stateDir string) error {
	return SaveRunLog(stateDir, &RunLog{Entries: []Entry{}})
}

// Filter returns the entries matching status (empty matches all), keeping
// only the limit most recent when limit is positive. Order is preserved.
func Filter(entries []Entry, status string, limit int) []Entry {
	var out []Entry
	for _, e := range entries {
		if status != "" && string(e.Status) != status {
			continue
		}
		out = append(out, e)
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
