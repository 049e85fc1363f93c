// Package health runs the environment checks behind `pipecheck doctor`.
package health

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/pipecheck/internal/config"
	"github.com/ariel-frischer/pipecheck/internal/dag"
	"github.com/ariel-frischer/pipecheck/internal/history"
	"github.com/ariel-frischer/pipecheck/internal/notify"
	"github.com/ariel-frischer/pipecheck/internal/suite"
	"github.com/ariel-frischer/pipecheck/internal/worker"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string `json:"name" yaml:"name"`
	Passed  bool   `json:"passed" yaml:"passed"`
	Message string `json:"message" yaml:"message"`
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult `json:"checks" yaml:"checks"`
	Passed bool          `json:"passed" yaml:"passed"`
}

func (r *HealthReport) add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// RunHealthChecks loads the configuration at configPath and checks
// everything a run depends on. When the configuration cannot be loaded the
// remaining checks are skipped.
func RunHealthChecks(configPath string, sender notify.Sender) *HealthReport {
	report := &HealthReport{Checks: make([]CheckResult, 0), Passed: true}

	cfg, err := config.Load(configPath)
	report.add(CheckConfig(err))
	if err != nil {
		return report
	}

	report.add(CheckDefaultSuite())
	if cfg.PersistHistory {
		report.add(CheckStateDir(cfg.StateDir))
		report.add(CheckRunLog(cfg.StateDir))
	}
	if cfg.FixturesFile != "" {
		report.add(CheckFixtures(cfg.FixturesFile))
	}
	if cfg.NotifyEnabled {
		report.add(CheckNotifications(cfg.NotifyType, sender))
	}
	return report
}

// CheckConfig reports the outcome of loading the configuration.
func CheckConfig(loadErr error) CheckResult {
	if loadErr != nil {
		return CheckResult{Name: "Configuration", Message: loadErr.Error()}
	}
	return CheckResult{Name: "Configuration", Passed: true, Message: "configuration loaded"}
}

// CheckDefaultSuite builds the default suite and plans its waves.
func CheckDefaultSuite() CheckResult {
	s := suite.NewBuilder(suite.NewCatalog()).BuildDefault()
	g, err := dag.Resolve(s.Steps)
	if err != nil {
		return CheckResult{Name: "Default suite", Message: err.Error()}
	}
	waves, err := g.ComputeWaves()
	if err != nil {
		return CheckResult{Name: "Default suite", Message: err.Error()}
	}
	return CheckResult{
		Name:    "Default suite",
		Passed:  true,
		Message: fmt.Sprintf("%d steps in %d waves", len(s.Steps), len(waves)),
	}
}

// CheckStateDir verifies that dir exists or can be created, and is writable.
func CheckStateDir(dir string) CheckResult {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return CheckResult{Name: "State directory", Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return CheckResult{Name: "State directory", Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return CheckResult{Name: "State directory", Passed: true, Message: dir}
}

// CheckRunLog parses the persisted run log without repairing it.
func CheckRunLog(stateDir string) CheckResult {
	path := filepath.Join(stateDir, history.RunLogFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return CheckResult{Name: "Run log", Passed: true, Message: "no runs recorded yet"}
	}
	if err != nil {
		return CheckResult{Name: "Run log", Message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}

	var log history.RunLog
	if err := yaml.Unmarshal(data, &log); err != nil {
		return CheckResult{Name: "Run log", Message: fmt.Sprintf("%s is corrupted and will be reset on the next run: %v", path, err)}
	}
	return CheckResult{Name: "Run log", Passed: true, Message: fmt.Sprintf("%d entries", len(log.Entries))}
}

// CheckFixtures loads the configured fixtures file.
func CheckFixtures(path string) CheckResult {
	if _, err := worker.LoadFixtures(path); err != nil {
		return CheckResult{Name: "Fixtures", Message: err.Error()}
	}
	return CheckResult{Name: "Fixtures", Passed: true, Message: path}
}

// CheckNotifications verifies that the platform can deliver the configured
// notification type.
func CheckNotifications(notifyType string, sender notify.Sender) CheckResult {
	output, err := notify.ParseOutputType(notifyType)
	if err != nil {
		return CheckResult{Name: "Notifications", Message: err.Error()}
	}

	var missing []string
	if (output == notify.OutputVisual || output == notify.OutputBoth) && !sender.VisualAvailable() {
		missing = append(missing, "visual")
	}
	if (output == notify.OutputSound || output == notify.OutputBoth) && !sender.SoundAvailable() {
		missing = append(missing, "sound")
	}
	if len(missing) > 0 {
		return CheckResult{
			Name:    "Notifications",
			Message: fmt.Sprintf("no %s notification tool found on this platform", strings.Join(missing, " or ")),
		}
	}
	return CheckResult{Name: "Notifications", Passed: true, Message: string(output) + " notifications available"}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var b strings.Builder
	for _, check := range report.Checks {
		mark := "✓"
		if !check.Passed {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s %s: %s\n", mark, check.Name, check.Message)
	}
	return b.String()
}
