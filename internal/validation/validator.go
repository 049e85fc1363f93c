package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// Validator computes verdicts for step outputs.
type Validator struct{}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate checks a step's output against the step's own phase and criteria.
func (v *Validator) Validate(step pipeline.Step, output pipeline.Output) pipeline.Verdict {
	return v.ValidatePhase(step.Phase, step.Criteria, output)
}

// ValidatePhase checks an output against the rules of the given phase.
// It never panics: an unknown phase yields an invalid verdict, and a panic
// raised while judging is converted into a failed verdict with its text.
func (v *Validator) ValidatePhase(phase pipeline.Phase, criteria pipeline.Criteria, output pipeline.Output) (verdict pipeline.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = failedVerdict(fmt.Sprintf("validation error: %v", r))
		}
	}()

	if output == nil {
		output = pipeline.Output{}
	}

	switch phase {
	case pipeline.PhaseRequirements:
		return validateRequirements(criteria, output)
	case pipeline.PhaseArchitecture:
		return validateArchitecture(criteria, output)
	case pipeline.PhaseBuild:
		return validateBuild(criteria, output)
	case pipeline.PhaseTest:
		return validateTest(criteria, output)
	case pipeline.PhaseDeploy:
		return validateDeploy(criteria, output)
	case pipeline.PhaseMonitor:
		return validateMonitor(criteria, output)
	default:
		return failedVerdict(fmt.Sprintf("no validator for phase %q", phase))
	}
}

func validateRequirements(c pipeline.Criteria, out pipeline.Output) pipeline.Verdict {
	b := newVerdictBuilder()
	b.requireItems(out, "sections", "section", c.Required)
	b.atLeast(out, "word_count", "word count", float64(c.MinWordCount),
		"Expand the requirements document to at least %s words")
	return b.verdict()
}

func validateArchitecture(c pipeline.Criteria, out pipeline.Output) pipeline.Verdict {
	b := newVerdictBuilder()
	b.requireItems(out, "components", "component", c.Required)
	b.atMost(out, "complexity_score", "complexity score", c.MaxComplexity,
		"Split or simplify components to bring complexity to %s or lower")
	return b.verdict()
}

func validateBuild(c pipeline.Criteria, out pipeline.Output) pipeline.Verdict {
	b := newVerdictBuilder()
	b.requireItems(out, "artifacts", "artifact", c.Required)
	b.atLeast(out, "test_coverage", "test coverage", c.MinCoverage,
		"Add tests to raise coverage to at least %s%%")

	success, ok, err := flag(out, "build_success")
	switch {
	case err != nil:
		b.fail("%v", err)
	case ok && !success:
		b.fail("build reported failure")
		b.recommend("Fix compilation errors before packaging artifacts")
	}
	return b.verdict()
}

func validateTest(c pipeline.Criteria, out pipeline.Output) pipeline.Verdict {
	b := newVerdictBuilder()
	b.requireItems(out, "tests", "test suite", c.Required)
	b.atLeast(out, "pass_rate", "pass rate", c.MinPassRate,
		"Fix failing tests to reach a pass rate of at least %s%%")
	b.atLeast(out, "test_coverage", "test coverage", c.MinCoverage,
		"Add tests to raise coverage to at least %s%%")

	if failed, ok, err := number(out, "failed_tests"); err == nil && ok && failed > 0 {
		b.recommend("Investigate %s failing tests", formatNumber(failed))
	}
	return b.verdict()
}

func validateDeploy(c pipeline.Criteria, out pipeline.Output) pipeline.Verdict {
	b := newVerdictBuilder()
	b.requireItems(out, "checks", "deployment check", c.Required)
	b.atMost(out, "response_time_ms", "response time (ms)", c.MaxResponseTimeMS,
		"Optimise the service to respond within %sms")

	if c.RequireHealthChecks {
		checkHealth(b, out["health_checks"])
	}
	return b.verdict()
}

// checkHealth requires at least one health check and every check to pass.
func checkHealth(b *verdictBuilder, raw any) {
	results := healthResults(raw)
	if len(results) == 0 {
		b.fail("no health checks reported")
		b.recommend("Run health checks against the deployed service")
		return
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !results[name] {
			b.fail("health check failed: %s", name)
			b.recommend("Investigate the %s health check before promoting the release", name)
		}
	}
}

// healthResults normalises health checks given either as an object of
// name -> bool/status or as a list of {name, healthy|status} objects.
func healthResults(raw any) map[string]bool {
	results := make(map[string]bool)
	switch val := raw.(type) {
	case map[string]bool:
		for k, ok := range val {
			results[k] = ok
		}
	case map[string]any:
		for k, v := range val {
			results[k] = healthy(v)
		}
	case []any:
		for i, elem := range val {
			entry, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			name, _ := entry["name"].(string)
			if name == "" {
				name = fmt.Sprintf("check_%d", i+1)
			}
			if h, exists := entry["healthy"]; exists {
				results[name] = healthy(h)
			} else {
				results[name] = healthy(entry["status"])
			}
		}
	}
	return results
}

func healthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(val) {
		case "healthy", "pass", "passed", "passing", "ok", "up":
			return true
		}
	}
	return false
}

func validateMonitor(c pipeline.Criteria, out pipeline.Output) pipeline.Verdict {
	b := newVerdictBuilder()
	b.requireItems(out, "metrics", "metric", c.Required)

	if c.RequireAlerting {
		enabled, _, err := flag(out, "alerting_enabled")
		switch {
		case err != nil:
			b.fail("%v", err)
		case !enabled:
			b.fail("alerting is not enabled")
			b.recommend("Configure alert rules and notification channels")
		}
	}
	return b.verdict()
}
