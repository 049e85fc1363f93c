package notify

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Sender delivers notifications through platform tools.
type Sender interface {
	SendVisual(n Notification) error
	SendSound(soundFile string) error
	VisualAvailable() bool
	SoundAvailable() bool
}

// DefaultMacOSSound is played on darwin when no sound file is configured.
const DefaultMacOSSound = "/System/Library/Sounds/Glass.aiff"

// commandSender runs one external command per notification. A nil builder
// means the platform has no tool for that output.
type commandSender struct {
	visual func(n Notification) *exec.Cmd
	sound  func(file string) *exec.Cmd
}

// NewSender returns the sender for the running platform. Platforms without
// the needed tools get a sender that does nothing.
func NewSender() Sender {
	return newSenderFor(runtime.GOOS, toolAvailable, hasDisplay())
}

func newSenderFor(goos string, available func(string) bool, display bool) *commandSender {
	s := &commandSender{}
	switch goos {
	case "darwin":
		if available("osascript") {
			s.visual = func(n Notification) *exec.Cmd {
				script := fmt.Sprintf(`display notification %q with title %q`, n.Message, n.Title)
				return exec.Command("osascript", "-e", script)
			}
		}
		if available("afplay") {
			s.sound = func(file string) *exec.Cmd {
				if file == "" {
					file = DefaultMacOSSound
				}
				return exec.Command("afplay", file)
			}
		}
	case "linux":
		if available("notify-send") && display {
			s.visual = func(n Notification) *exec.Cmd {
				urgency := "normal"
				if n.Kind == KindFailure {
					urgency = "critical"
				}
				return exec.Command("notify-send", "-u", urgency, n.Title, n.Message)
			}
		}
		if available("paplay") {
			s.sound = func(file string) *exec.Cmd {
				if file == "" {
					return nil
				}
				return exec.Command("paplay", file)
			}
		}
	case "windows":
		if available("powershell") {
			s.visual = func(n Notification) *exec.Cmd {
				script := fmt.Sprintf(
					`Add-Type -AssemblyName System.Windows.Forms; `+
						`$n = New-Object System.Windows.Forms.NotifyIcon; `+
						`$n.Icon = [System.Drawing.SystemIcons]::Information; `+
						`$n.Visible = $true; $n.ShowBalloonTip(5000, '%s', '%s', 'None')`,
					psQuote(n.Title), psQuote(n.Message))
				return powershell(script)
			}
			s.sound = func(file string) *exec.Cmd {
				if file == "" {
					return powershell("[Console]::Beep(800, 200)")
				}
				return powershell(fmt.Sprintf(`(New-Object Media.SoundPlayer '%s').PlaySync()`, psQuote(file)))
			}
		}
	}
	return s
}

func powershell(script string) *exec.Cmd {
	return exec.Command("powershell", "-ExecutionPolicy", "Bypass", "-NoProfile", "-Command", script)
}

func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (s *commandSender) SendVisual(n Notification) error {
	if s.visual == nil {
		return nil
	}
	return s.visual(n).Run()
}

func (s *commandSender) SendSound(soundFile string) error {
	if s.sound == nil {
		return nil
	}
	cmd := s.sound(ValidateSoundFile(soundFile))
	if cmd == nil {
		return nil
	}
	return cmd.Run()
}

func (s *commandSender) VisualAvailable() bool { return s.visual != nil }
func (s *commandSender) SoundAvailable() bool  { return s.sound != nil }

func toolAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

var supportedAudioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".aiff": true,
	".aif":  true,
	".ogg":  true,
	".flac": true,
	".m4a":  true,
}

// ValidateSoundFile returns soundFile when it names a readable audio file
// with a supported extension, and "" otherwise so the platform default is
// used.
func ValidateSoundFile(soundFile string) string {
	if soundFile == "" {
		return ""
	}

	info, err := os.Stat(soundFile)
	if err != nil {
		slog.Warn("sound file unavailable, using default", "file", soundFile, "error", err)
		return ""
	}
	if info.IsDir() {
		slog.Warn("sound path is a directory, using default", "file", soundFile)
		return ""
	}

	ext := strings.ToLower(filepath.Ext(soundFile))
	if !supportedAudioExtensions[ext] {
		slog.Warn("unsupported audio format, using default", "file", soundFile, "extension", ext)
		return ""
	}
	return soundFile
}
