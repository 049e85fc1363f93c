// Package validation judges step outputs against phase-specific acceptance
// criteria. Every phase follows the same shape: a list of required items is
// looked up in the output payload and scored, then phase thresholds are
// layered on top.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// verdictBuilder accumulates issues and recommendations for a single verdict.
type verdictBuilder struct {
	valid           bool
	score           int
	issues          []string
	recommendations []string
}

func newVerdictBuilder() *verdictBuilder {
	return &verdictBuilder{
		valid:           true,
		score:           100,
		issues:          []string{},
		recommendations: []string{},
	}
}

// fail records an issue and marks the verdict invalid.
func (b *verdictBuilder) fail(format string, args ...any) {
	b.issues = append(b.issues, fmt.Sprintf(format, args...))
	b.valid = false
}

func (b *verdictBuilder) recommend(format string, args ...any) {
	b.recommendations = append(b.recommendations, fmt.Sprintf(format, args...))
}

func (b *verdictBuilder) verdict() pipeline.Verdict {
	return pipeline.Verdict{
		Valid:           b.valid,
		Score:           b.score,
		Issues:          b.issues,
		Recommendations: b.recommendations,
	}
}

// failedVerdict returns a zero-score invalid verdict carrying one issue.
func failedVerdict(issue string) pipeline.Verdict {
	return pipeline.Verdict{
		Valid:           false,
		Score:           0,
		Issues:          []string{issue},
		Recommendations: []string{},
	}
}

// requireItems checks that every required item appears under key in the
// output and sets the score to the rounded percentage of items present.
// kind names the item type in messages ("section", "component", ...).
func (b *verdictBuilder) requireItems(output pipeline.Output, key, kind string, required []string) {
	if len(required) == 0 {
		b.score = 100
		return
	}

	present := itemSet(output[key])
	found := 0
	for _, item := range required {
		if present[strings.ToLower(item)] {
			found++
			continue
		}
		b.fail("missing required %s: %s", kind, item)
		b.recommend("Add the %s '%s' to %s", kind, item, key)
	}

	b.score = int(math.Round(float64(found) / float64(len(required)) * 100))
}

// itemSet collects the item names present in a payload value. Lists of
// strings, lists of objects with a "name" field, and objects keyed by item
// name (with a non-empty value) are understood. Names are lowercased.
func itemSet(v any) map[string]bool {
	set := make(map[string]bool)
	switch val := v.(type) {
	case []string:
		for _, s := range val {
			set[strings.ToLower(s)] = true
		}
	case []any:
		for _, elem := range val {
			switch e := elem.(type) {
			case string:
				set[strings.ToLower(e)] = true
			case map[string]any:
				if name, ok := e["name"].(string); ok {
					set[strings.ToLower(name)] = true
				}
			}
		}
	case map[string]any:
		for k, elem := range val {
			if isPresent(elem) {
				set[strings.ToLower(k)] = true
			}
		}
	case map[string]bool:
		for k, ok := range val {
			if ok {
				set[strings.ToLower(k)] = true
			}
		}
	case map[string]string:
		for k, s := range val {
			if s != "" {
				set[strings.ToLower(k)] = true
			}
		}
	}
	return set
}

// isPresent reports whether an object entry counts as provided.
func isPresent(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return strings.TrimSpace(val) != ""
	default:
		return true
	}
}

// number extracts a numeric field. ok is false when the field is absent;
// err is set when the field exists but is not a number.
func number(output pipeline.Output, key string) (value float64, ok bool, err error) {
	raw, exists := output[key]
	if !exists || raw == nil {
		return 0, false, nil
	}

	switch n := raw.(type) {
	case int:
		return float64(n), true, nil
	case int8:
		return float64(n), true, nil
	case int16:
		return float64(n), true, nil
	case int32:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case uint:
		return float64(n), true, nil
	case uint8:
		return float64(n), true, nil
	case uint16:
		return float64(n), true, nil
	case uint32:
		return float64(n), true, nil
	case uint64:
		return float64(n), true, nil
	case float32:
		return float64(n), true, nil
	case float64:
		return n, true, nil
	case json.Number:
		f, convErr := n.Float64()
		if convErr != nil {
			return 0, true, fmt.Errorf("field %s: %w", key, convErr)
		}
		return f, true, nil
	default:
		return 0, true, fmt.Errorf("field %s must be numeric, got %T", key, raw)
	}
}

// flag extracts a boolean field. ok is false when the field is absent.
func flag(output pipeline.Output, key string) (value bool, ok bool, err error) {
	raw, exists := output[key]
	if !exists || raw == nil {
		return false, false, nil
	}
	b, isBool := raw.(bool)
	if !isBool {
		return false, true, fmt.Errorf("field %s must be a boolean, got %T", key, raw)
	}
	return b, true, nil
}

// atLeast enforces value >= minimum for a numeric output field.
func (b *verdictBuilder) atLeast(output pipeline.Output, key, label string, minimum float64, advice string) {
	if minimum <= 0 {
		return
	}
	value, ok, err := number(output, key)
	switch {
	case err != nil:
		b.fail("%v", err)
		b.recommend("Report %s as a number", label)
	case !ok:
		b.fail("missing %s (minimum %s)", label, formatNumber(minimum))
		b.recommend("Report %s in the %s field", label, key)
	case value < minimum:
		b.fail("%s %s is below the minimum of %s", label, formatNumber(value), formatNumber(minimum))
		b.recommend(advice, formatNumber(minimum))
	}
}

// atMost enforces value <= maximum for a numeric output field.
func (b *verdictBuilder) atMost(output pipeline.Output, key, label string, maximum float64, advice string) {
	if maximum <= 0 {
		return
	}
	value, ok, err := number(output, key)
	switch {
	case err != nil:
		b.fail("%v", err)
		b.recommend("Report %s as a number", label)
	case !ok:
		b.fail("missing %s (maximum %s)", label, formatNumber(maximum))
		b.recommend("Report %s in the %s field", label, key)
	case value > maximum:
		b.fail("%s %s exceeds the maximum of %s", label, formatNumber(value), formatNumber(maximum))
		b.recommend(advice, formatNumber(maximum))
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.2f", f)
}
