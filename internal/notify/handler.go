package notify

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/ariel-frischer/pipecheck/internal/executor"
	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// DefaultDispatchTimeout bounds how long one notification may hold up the
// execution that triggered it.
const DefaultDispatchTimeout = 5 * time.Second

// Handler turns execution lifecycle events into notifications. It
// implements executor.Observer.
type Handler struct {
	executor.NopObserver

	config  Config
	sender  Sender
	logger  *slog.Logger
	allowed func() bool
	timeout time.Duration
}

// Option is a functional option for configuring a Handler.
type Option func(*Handler)

// WithSender replaces the platform sender.
func WithSender(s Sender) Option {
	return func(h *Handler) {
		if s != nil {
			h.sender = s
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithEnvironmentCheck replaces the CI and terminal detection that decides
// whether notifications may be shown at all.
func WithEnvironmentCheck(fn func() bool) Option {
	return func(h *Handler) {
		if fn != nil {
			h.allowed = fn
		}
	}
}

// WithDispatchTimeout bounds each dispatch. Zero or less uses
// DefaultDispatchTimeout.
func WithDispatchTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewHandler creates a Handler for cfg.
func NewHandler(cfg Config, opts ...Option) *Handler {
	h := &Handler{
		config:  cfg,
		logger:  slog.Default(),
		allowed: interactiveSession,
		timeout: DefaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.sender == nil {
		h.sender = NewSender()
	}
	h.logger = h.logger.With("component", "notify")
	return h
}

// Config returns the handler configuration.
func (h *Handler) Config() Config {
	return h.config
}

// Enabled reports whether notifications would currently be delivered.
func (h *Handler) Enabled() bool {
	return h.config.Enabled && h.allowed()
}

// StepFinished notifies about critical steps that did not pass.
func (h *Handler) StepFinished(result pipeline.StepResult) {
	if !h.config.OnStepFailure || !result.Critical || result.Status == pipeline.StepPassed {
		return
	}
	if !h.Enabled() {
		return
	}

	msg := fmt.Sprintf("Critical step '%s' %s", result.StepID, result.Status)
	if result.Error != "" {
		msg += ": " + result.Error
	}
	h.dispatch(Notification{Title: "pipecheck", Message: msg, Kind: KindFailure})
}

// ExecutionFinished notifies about the terminal status of exec.
func (h *Handler) ExecutionFinished(exec *pipeline.Execution) {
	if !h.config.OnComplete || exec == nil {
		return
	}
	if threshold := h.config.LongRunningThreshold; threshold > 0 && exec.Duration < threshold {
		return
	}
	if !h.Enabled() {
		return
	}

	kind := KindSuccess
	if exec.Status != pipeline.ExecutionPassed {
		kind = KindFailure
	}
	msg := fmt.Sprintf("Suite '%s' %s with score %.2f (%s)",
		exec.SuiteName, exec.Status, exec.Score, formatDuration(exec.Duration))
	h.dispatch(Notification{Title: "pipecheck", Message: msg, Kind: kind})
}

// dispatch sends n and waits at most the dispatch timeout. A sender still
// running after the timeout finishes in the background.
func (h *Handler) dispatch(n Notification) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.send(n)
	}()

	select {
	case <-done:
	case <-time.After(h.timeout):
		h.logger.Debug("notification dispatch timed out", "timeout", h.timeout)
	}
}

func (h *Handler) send(n Notification) {
	if h.config.Output == OutputVisual || h.config.Output == OutputBoth {
		if err := h.sender.SendVisual(n); err != nil {
			h.logger.Debug("visual notification failed", "error", err)
		}
	}
	if h.config.Output == OutputSound || h.config.Output == OutputBoth {
		if err := h.sender.SendSound(h.config.SoundFile); err != nil {
			h.logger.Debug("sound notification failed", "error", err)
		}
	}
}

var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"TRAVIS",
	"JENKINS_URL",
	"BUILDKITE",
	"DRONE",
	"TEAMCITY_VERSION",
	"TF_BUILD",            // Azure DevOps
	"BITBUCKET_PIPELINES", // Bitbucket
	"CODEBUILD_BUILD_ID",  // AWS CodeBuild
}

func isCI() bool {
	for _, v := range ciEnvVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

func interactiveSession() bool {
	if isCI() {
		return false
	}
	for _, f := range []*os.File{os.Stdout, os.Stderr, os.Stdin} {
		if term.IsTerminal(int(f.Fd())) {
			return true
		}
	}
	return false
}
