package progress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTerminalCapabilities_NotATerminal(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("PIPECHECK_ASCII", "")

	f, err := os.Create(filepath.Join(t.TempDir(), "progress.log"))
	require.NoError(t, err)
	defer f.Close()

	caps := DetectTerminalCapabilities(f)
	assert.False(t, caps.IsTTY)
	assert.False(t, caps.SupportsColor, "no color without a terminal")
	assert.False(t, caps.SupportsUnicode, "no unicode without a terminal")
	assert.Zero(t, caps.Width)
}

func TestSelectSymbols(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		capabilities  TerminalCapabilities
		wantCheckmark string
		wantFailure   string
		wantError     string
	}{
		"unicode": {
			capabilities:  TerminalCapabilities{IsTTY: true, SupportsUnicode: true, SupportsColor: true},
			wantCheckmark: "✓",
			wantFailure:   "✗",
			wantError:     "!",
		},
		"ascii fallback": {
			capabilities:  TerminalCapabilities{IsTTY: true},
			wantCheckmark: "[OK]",
			wantFailure:   "[FAIL]",
			wantError:     "[ERR]",
		},
		"non-TTY": {
			capabilities:  TerminalCapabilities{},
			wantCheckmark: "[OK]",
			wantFailure:   "[FAIL]",
			wantError:     "[ERR]",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			symbols := SelectSymbols(tt.capabilities)
			assert.Equal(t, tt.wantCheckmark, symbols.Checkmark)
			assert.Equal(t, tt.wantFailure, symbols.Failure)
			assert.Equal(t, tt.wantError, symbols.Error)
			assert.GreaterOrEqual(t, symbols.SpinnerSet, 0)
		})
	}
}
