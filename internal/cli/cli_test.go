package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/pipecheck/internal/cli/shared"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type result struct {
	stdout string
	stderr string
	code   int
}

// runCLI executes the command tree with HOME pointed at a temp dir, so the
// run log and global config are isolated. Callers cannot run in parallel.
func runCLI(t *testing.T, home string, args ...string) result {
	t.Helper()
	t.Setenv("HOME", home)

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	reportError(cmd, err)
	return result{stdout: stdout.String(), stderr: stderr.String(), code: shared.ExitCode(err)}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const apiSuite = `
name: api-release
description: Build and ship the API
steps:
  - id: build
    name: Build
    phase: build
    timeout: 1m
    critical: true
    criteria:
      required: [compiled_binary]
      min_coverage: 80
  - id: unit
    name: Unit tests
    phase: test
    timeout: 1m
    depends_on: [build]
  - id: ship
    name: Ship
    phase: deploy
    timeout: 1m
    depends_on: [unit]
`

const cyclicSuite = `
name: cyclic
steps:
  - {id: a, name: A, phase: build, timeout: 1m, depends_on: [b]}
  - {id: b, name: B, phase: test, timeout: 1m, depends_on: [a]}
`

func TestRun_DefaultSuitePasses(t *testing.T) {
	home := t.TempDir()

	res := runCLI(t, home, "run")
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Suite complete-pipeline")
	assert.Contains(t, res.stdout, "Status:   passed")
	assert.Contains(t, res.stdout, "Score:    100.00")
	assert.Contains(t, res.stderr, "Running suite complete-pipeline (6 steps)")

	hist := runCLI(t, home, "history")
	require.Equal(t, shared.ExitSuccess, hist.code, hist.stderr)
	assert.Contains(t, hist.stdout, "complete-pipeline")
	assert.Contains(t, hist.stdout, "waves=6")

	stats := runCLI(t, home, "stats", "-o", "json")
	require.Equal(t, shared.ExitSuccess, stats.code, stats.stderr)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(stats.stdout), &decoded))
	assert.Equal(t, 1.0, decoded["total"])
	assert.Equal(t, 100.0, decoded["pass_rate_percent"])
}

func TestRun_RepeatWithFailingFixtures(t *testing.T) {
	home := t.TempDir()
	fixtures := writeFile(t, "fixtures.yaml", "build:\n  test_coverage: 50\n")

	res := runCLI(t, home, "run", "--repeat", "2", "--fixtures", fixtures, "--no-progress")
	assert.Equal(t, shared.ExitExecutionFailed, res.code)
	assert.Contains(t, res.stdout, "Executions: 2 (0 passed, 2 failed, 0 errored)")
	assert.Contains(t, res.stderr, "2 of 2 executions did not pass")
	assert.NotContains(t, res.stderr, "Running suite", "progress disabled")

	failed := runCLI(t, home, "history", "--status", "failed", "-n", "1")
	require.Equal(t, shared.ExitSuccess, failed.code)
	assert.Contains(t, failed.stdout, "critical step build-artifacts failed")

	none := runCLI(t, home, "history", "--status", "passed")
	assert.Equal(t, "No matching entries for status 'passed'.\n", none.stdout)
}

func TestRun_ArgumentErrors(t *testing.T) {
	tests := map[string]struct {
		args     []string
		wantCode int
		wantErr  string
	}{
		"repeat zero": {
			args:     []string{"run", "--repeat", "0"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "invalid value for --repeat",
		},
		"unknown output format": {
			args:     []string{"run", "-o", "xml"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  `invalid output format "xml"`,
		},
		"unexpected argument": {
			args:     []string{"run", "extra"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "Usage:",
		},
		"unknown flag": {
			args:     []string{"run", "--bogus"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "unknown flag",
		},
		"missing fixtures": {
			args:     []string{"run", "--fixtures", "/does/not/exist.yaml"},
			wantCode: shared.ExitConfiguration,
			wantErr:  "failed to load fixtures",
		},
		"missing definition": {
			args:     []string{"run-suite", "/does/not/exist.yaml"},
			wantCode: shared.ExitMissingDependency,
			wantErr:  "suite definition not found",
		},
		"negative history limit": {
			args:     []string{"history", "--limit", "-1"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "must be positive",
		},
		"unknown history status": {
			args:     []string{"history", "--status", "running"},
			wantCode: shared.ExitInvalidArguments,
			wantErr:  "must be one of passed, failed, errored",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res := runCLI(t, t.TempDir(), tt.args...)
			assert.Equal(t, tt.wantCode, res.code)
			assert.Contains(t, res.stderr, tt.wantErr)
		})
	}
}

func TestRunSuite(t *testing.T) {
	t.Run("custom suite passes", func(t *testing.T) {
		def := writeFile(t, "api.yaml", apiSuite)

		res := runCLI(t, t.TempDir(), "run-suite", def, "-o", "json", "--no-progress")
		require.Equal(t, shared.ExitSuccess, res.code, res.stderr)

		var exec map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &exec))
		assert.Equal(t, "api-release", exec["suite_name"])
		assert.Equal(t, 3.0, exec["waves"])
	})

	t.Run("cycle is reported as an errored execution", func(t *testing.T) {
		def := writeFile(t, "cyclic.yaml", cyclicSuite)

		res := runCLI(t, t.TempDir(), "run-suite", def)
		assert.Equal(t, shared.ExitExecutionFailed, res.code)
		assert.Contains(t, res.stdout, "Status:   errored")
		assert.Contains(t, res.stdout, "circular dependency detected")
	})

	t.Run("invalid definition", func(t *testing.T) {
		def := writeFile(t, "bad.yaml", "steps:\n  - id: a\n")

		res := runCLI(t, t.TempDir(), "run-suite", def)
		assert.Equal(t, shared.ExitConfiguration, res.code)
		assert.Contains(t, res.stderr, "invalid suite definition")
	})
}

func TestSuites(t *testing.T) {
	def := writeFile(t, "api.yaml", apiSuite)

	res := runCLI(t, t.TempDir(), "suites", "-f", def)
	require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "complete-pipeline")
	assert.Contains(t, res.stdout, "api-release")
	assert.Contains(t, res.stdout, "Build and ship the API")
}

func TestValidate(t *testing.T) {
	good := writeFile(t, "good.json", `{"artifacts": ["compiled_binary", "container_image", "test_report"], "test_coverage": 91, "build_success": true}`)
	low := writeFile(t, "low.json", `{"artifacts": ["compiled_binary"], "test_coverage": 40}`)
	notObject := writeFile(t, "list.json", `[1, 2]`)
	lenient := writeFile(t, "criteria.yaml", "required: [compiled_binary]\nmin_coverage: 30\n")
	badCriteria := writeFile(t, "criteria.yaml", "min_coverage: 150\n")

	tests := map[string]struct {
		args     []string
		wantCode int
		contains string
	}{
		"valid output": {
			args:     []string{"validate", "build", good},
			wantCode: shared.ExitSuccess,
			contains: "Phase build: valid (score 100)",
		},
		"invalid output": {
			args:     []string{"validate", "build", low},
			wantCode: shared.ExitValidationFailed,
			contains: "Phase build: invalid",
		},
		"custom criteria": {
			args:     []string{"validate", "build", low, "--criteria", lenient},
			wantCode: shared.ExitSuccess,
			contains: "valid",
		},
		"json verdict": {
			args:     []string{"validate", "BUILD", good, "-o", "json"},
			wantCode: shared.ExitSuccess,
			contains: `"valid": true`,
		},
		"unknown phase": {
			args:     []string{"validate", "release", good},
			wantCode: shared.ExitInvalidArguments,
			contains: `unknown phase "release"`,
		},
		"output not an object": {
			args:     []string{"validate", "build", notObject},
			wantCode: shared.ExitInvalidArguments,
			contains: "cannot read step output",
		},
		"criteria out of range": {
			args:     []string{"validate", "build", good, "--criteria", badCriteria},
			wantCode: shared.ExitConfiguration,
			contains: "invalid criteria file",
		},
		"missing argument": {
			args:     []string{"validate", "build"},
			wantCode: shared.ExitInvalidArguments,
			contains: "expects 2 argument(s), got 1",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res := runCLI(t, t.TempDir(), tt.args...)
			assert.Equal(t, tt.wantCode, res.code, res.stderr)
			assert.Contains(t, res.stdout+res.stderr, tt.contains)
		})
	}
}

func TestPlan(t *testing.T) {
	t.Run("default suite", func(t *testing.T) {
		res := runCLI(t, t.TempDir(), "plan")
		require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
		assert.Contains(t, res.stdout, "Wave 1: [requirements-analysis] -> Wave 2: [architecture-design]")
		assert.Contains(t, res.stdout, "Depends on: build-artifacts")
	})

	t.Run("definition as yaml", func(t *testing.T) {
		def := writeFile(t, "api.yaml", apiSuite)

		res := runCLI(t, t.TempDir(), "plan", def, "-o", "yaml")
		require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
		assert.Contains(t, res.stdout, "suite_name: api-release")
		assert.Contains(t, res.stdout, "total_waves: 3")
	})

	t.Run("tree view", func(t *testing.T) {
		res := runCLI(t, t.TempDir(), "plan", "--view", "tree")
		require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
		assert.Contains(t, res.stdout, "   `-- requirements-analysis !")
		assert.Contains(t, res.stdout, "6 steps in 6 waves, widest wave 1, 6 critical")
	})

	t.Run("unknown view", func(t *testing.T) {
		res := runCLI(t, t.TempDir(), "plan", "--view", "graphviz")
		assert.Equal(t, shared.ExitInvalidArguments, res.code)
		assert.Contains(t, res.stderr, "unknown plan view")
	})

	t.Run("cycle", func(t *testing.T) {
		def := writeFile(t, "cyclic.yaml", cyclicSuite)

		res := runCLI(t, t.TempDir(), "plan", def)
		assert.Equal(t, shared.ExitConfiguration, res.code)
		assert.Contains(t, res.stderr, "cannot plan suite")
		assert.Contains(t, res.stderr, "To fix this:")
	})
}

func TestHistory_Clear(t *testing.T) {
	home := t.TempDir()
	require.Equal(t, shared.ExitSuccess, runCLI(t, home, "run", "--no-progress").code)

	res := runCLI(t, home, "history", "--clear")
	require.Equal(t, shared.ExitSuccess, res.code)
	assert.Equal(t, "History cleared.\n", res.stdout)

	empty := runCLI(t, home, "history")
	assert.Equal(t, "No history available.\n", empty.stdout)

	stats := runCLI(t, home, "stats")
	assert.Equal(t, "No executions recorded.\n", stats.stdout)
}

func TestPersistHistoryDisabled(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PIPECHECK_PERSIST_HISTORY", "false")

	require.Equal(t, shared.ExitSuccess, runCLI(t, home, "run", "--no-progress").code)
	_, err := os.Stat(filepath.Join(home, ".pipecheck", "state", "runs.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestDoctor(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		res := runCLI(t, t.TempDir(), "doctor")
		require.Equal(t, shared.ExitSuccess, res.code, res.stderr)
		assert.Contains(t, res.stdout, "✓ Configuration: configuration loaded")
		assert.Contains(t, res.stdout, "✓ Default suite: 6 steps in 6 waves")
		assert.Contains(t, res.stdout, "✓ Run log: no runs recorded yet")
	})

	t.Run("missing fixtures file", func(t *testing.T) {
		t.Setenv("PIPECHECK_FIXTURES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

		res := runCLI(t, t.TempDir(), "doctor", "-o", "json")
		assert.Equal(t, shared.ExitMissingDependency, res.code)
		assert.Contains(t, res.stdout, `"name": "Fixtures"`)
		assert.Contains(t, res.stdout, `"passed": false`)
		assert.Empty(t, res.stderr)
	})
}

func TestVersion(t *testing.T) {
	res := runCLI(t, t.TempDir(), "version", "--plain")
	require.Equal(t, shared.ExitSuccess, res.code)
	assert.Contains(t, res.stdout, "pipecheck dev")
	assert.Contains(t, res.stdout, "platform: ")

	pretty := runCLI(t, t.TempDir(), "v")
	assert.Contains(t, pretty.stdout, "(development build)")
}
