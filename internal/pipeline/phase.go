// Package pipeline defines the data model shared by the suite builder, the
// validator, the executor and the engine: phases, steps, suites, step results
// and executions.
package pipeline

import (
	"fmt"
	"strings"
)

// Phase is one of the six fixed pipeline stages a Step is tagged with.
type Phase string

const (
	PhaseRequirements Phase = "requirements"
	PhaseArchitecture Phase = "architecture"
	PhaseBuild        Phase = "build"
	PhaseTest         Phase = "test"
	PhaseDeploy       Phase = "deploy"
	PhaseMonitor      Phase = "monitor"
)

// AllPhases returns the phases in pipeline order.
func AllPhases() []Phase {
	return []Phase{
		PhaseRequirements,
		PhaseArchitecture,
		PhaseBuild,
		PhaseTest,
		PhaseDeploy,
		PhaseMonitor,
	}
}

// Valid reports whether p is one of the enumerated phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseRequirements, PhaseArchitecture, PhaseBuild, PhaseTest, PhaseDeploy, PhaseMonitor:
		return true
	default:
		return false
	}
}

// String returns the phase name.
func (p Phase) String() string {
	return string(p)
}

// ParsePhase converts a case-insensitive name into a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase %q (valid: %s)", s, phaseNames())
	}
	return p, nil
}

func phaseNames() string {
	names := make([]string, 0, 6)
	for _, p := range AllPhases() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
