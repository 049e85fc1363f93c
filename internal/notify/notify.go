// Package notify alerts the user with desktop notifications and sounds when
// a suite execution finishes or a critical step does not pass.
//
// Notifications are best effort. Missing platform tools, CI environments
// and non-interactive sessions silently disable them, and a slow
// notification never blocks an execution for longer than the dispatch
// timeout.
package notify

import (
	"fmt"
	"strings"
	"time"
)

// OutputType selects how a notification is delivered.
type OutputType string

const (
	OutputSound  OutputType = "sound"
	OutputVisual OutputType = "visual"
	OutputBoth   OutputType = "both"
)

// ParseOutputType accepts sound, visual or both in any case.
func ParseOutputType(s string) (OutputType, error) {
	switch t := OutputType(strings.ToLower(strings.TrimSpace(s))); t {
	case OutputSound, OutputVisual, OutputBoth:
		return t, nil
	default:
		return "", fmt.Errorf("unknown notification type %q (want sound, visual or both)", s)
	}
}

// Kind classifies a notification. Senders may use it for urgency.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Notification is a single message shown to the user.
type Notification struct {
	Title   string
	Message string
	Kind    Kind
}

// Config controls when and how notifications are sent.
type Config struct {
	Enabled   bool
	Output    OutputType
	SoundFile string
	// OnComplete notifies when an execution reaches a terminal status.
	OnComplete bool
	// OnStepFailure notifies when a critical step fails or errors.
	OnStepFailure bool
	// LongRunningThreshold suppresses completion notifications for
	// executions shorter than it. Zero notifies for every execution.
	LongRunningThreshold time.Duration
}

// DefaultConfig returns a disabled configuration with every trigger on.
func DefaultConfig() Config {
	return Config{
		Output:        OutputBoth,
		OnComplete:    true,
		OnStepFailure: true,
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
