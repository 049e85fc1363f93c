package shared

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/pipecheck/internal/config"
	"github.com/ariel-frischer/pipecheck/internal/engine"
	clierrors "github.com/ariel-frischer/pipecheck/internal/errors"
	"github.com/ariel-frischer/pipecheck/internal/executor"
	"github.com/ariel-frischer/pipecheck/internal/history"
	"github.com/ariel-frischer/pipecheck/internal/notify"
	"github.com/ariel-frischer/pipecheck/internal/pipeline"
	"github.com/ariel-frischer/pipecheck/internal/progress"
	"github.com/ariel-frischer/pipecheck/internal/suite"
	"github.com/ariel-frischer/pipecheck/internal/worker"
)

// NewEngine wires an engine from configuration: fixture worker, retry
// policy, progress display, notifications and the persisted run log.
func NewEngine(cmd *cobra.Command, cfg *config.Configuration) (*engine.Engine, error) {
	fixtures, err := loadFixtures(cmd, cfg)
	if err != nil {
		return nil, err
	}

	initial, maximum := cfg.RetryIntervals()
	execOpts := []executor.Option{
		executor.WithMaxParallel(cfg.MaxParallel),
		executor.WithWorker(worker.NewFixtureWorker(fixtures)),
		executor.WithRetryPolicy(executor.RetryPolicy{
			Enabled:         cfg.RetryEnabled,
			InitialInterval: initial,
			MaxInterval:     maximum,
		}),
	}
	if display := newDisplay(cmd, cfg); display != nil {
		execOpts = append(execOpts, executor.WithObserver(display))
	}

	logger := cfg.Logger(cmd.ErrOrStderr())
	if handler := newNotifier(cfg, logger); handler != nil {
		execOpts = append(execOpts, executor.WithObserver(handler))
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithHistoryLimit(cfg.HistoryLimit),
		engine.WithExecutorOptions(execOpts...),
	}
	if cfg.PersistHistory {
		opts = append(opts, engine.WithRecorder(history.NewWriter(cfg.StateDir, cfg.MaxHistoryEntries)))
	}
	return engine.New(opts...), nil
}

// loadFixtures prefers --fixtures over the fixtures_file setting.
func loadFixtures(cmd *cobra.Command, cfg *config.Configuration) (worker.Fixtures, error) {
	path := cfg.FixturesFile
	if cmd.Flags().Lookup(FixturesFlagName) != nil {
		if p, _ := cmd.Flags().GetString(FixturesFlagName); p != "" {
			path = p
		}
	}
	if path == "" {
		return worker.CompleteFixtures(), nil
	}

	fixtures, err := worker.LoadFixtures(path)
	if err != nil {
		return nil, clierrors.FixturesParseError(path, err)
	}
	return fixtures, nil
}

// newDisplay returns nil when progress is disabled. Progress goes to stderr
// so structured output on stdout stays clean.
func newDisplay(cmd *cobra.Command, cfg *config.Configuration) *progress.Display {
	noProgress, _ := cmd.Flags().GetBool(NoProgressFlagName)
	if !cfg.ShowProgress || noProgress {
		return nil
	}

	w := cmd.ErrOrStderr()
	var caps progress.TerminalCapabilities
	if f, ok := w.(*os.File); ok {
		caps = progress.DetectTerminalCapabilities(f)
	}
	return progress.NewDisplay(caps, w)
}

// newNotifier returns nil when notifications are disabled.
func newNotifier(cfg *config.Configuration, logger *slog.Logger) *notify.Handler {
	if !cfg.NotifyEnabled {
		return nil
	}
	output, err := notify.ParseOutputType(cfg.NotifyType)
	if err != nil {
		output = notify.OutputBoth
	}
	return notify.NewHandler(notify.Config{
		Enabled:              true,
		Output:               output,
		SoundFile:            cfg.NotifySoundFile,
		OnComplete:           cfg.NotifyOnComplete,
		OnStepFailure:        cfg.NotifyOnStepFailure,
		LongRunningThreshold: cfg.LongRunningThreshold(),
	}, notify.WithLogger(logger))
}

// LoadDefinition reads a suite definition, mapping failures to CLI errors.
func LoadDefinition(path string) (*suite.Definition, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, clierrors.MissingDefinitionFile(path)
	}

	def, err := suite.LoadDefinition(path)
	if err != nil {
		return nil, clierrors.DefinitionParseError(path, err)
	}
	return def, nil
}

// NotPassed counts executions that did not pass.
func NotPassed(execs []*pipeline.Execution) int {
	n := 0
	for _, exec := range execs {
		if exec.Status != pipeline.ExecutionPassed {
			n++
		}
	}
	return n
}
