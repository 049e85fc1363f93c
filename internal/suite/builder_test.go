package suite

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

func newTestBuilder() *Builder {
	n := 0
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewBuilder(NewCatalog(),
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("suite-%d", n)
		}),
	)
}

func TestBuilder_BuildDefault(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	s := b.BuildDefault()

	require.Len(t, s.Steps, 6)
	assert.Equal(t, DefaultSuiteName, s.Name)
	assert.Equal(t, pipeline.AllPhases(), s.Phases)

	for i, st := range s.Steps {
		assert.Equal(t, pipeline.AllPhases()[i], st.Phase, "step %s", st.ID)
		assert.True(t, st.Critical, "step %s should be critical", st.ID)
		assert.GreaterOrEqual(t, st.Timeout, 5*time.Minute)
		assert.LessOrEqual(t, st.Timeout, 30*time.Minute)
		if i == 0 {
			assert.Empty(t, st.DependsOn)
			continue
		}
		assert.Equal(t, []string{s.Steps[i-1].ID}, st.DependsOn)
	}

	got, err := b.Catalog().Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestBuilder_BuildCustom(t *testing.T) {
	t.Parallel()

	valid := func(id string, deps ...string) pipeline.Step {
		return pipeline.Step{
			ID:        id,
			Name:      "Step " + id,
			Phase:     pipeline.PhaseBuild,
			Timeout:   time.Minute,
			DependsOn: deps,
		}
	}

	tests := map[string]struct {
		name      string
		phases    []pipeline.Phase
		steps     []pipeline.Step
		wantErr   error
		wantSteps int
	}{
		"verbatim steps": {
			name:      "custom",
			phases:    []pipeline.Phase{pipeline.PhaseBuild},
			steps:     []pipeline.Step{valid("a"), valid("b", "a")},
			wantSteps: 2,
		},
		"dangling dependency accepted": {
			name:      "dangling",
			steps:     []pipeline.Step{valid("a", "ghost")},
			wantSteps: 1,
		},
		"missing name": {
			steps:   []pipeline.Step{valid("a")},
			wantErr: ErrInvalidSuite,
		},
		"duplicate id": {
			name:    "dup",
			steps:   []pipeline.Step{valid("a"), valid("a")},
			wantErr: ErrDuplicateStep,
		},
		"unknown phase on step": {
			name: "bad-phase",
			steps: []pipeline.Step{{
				ID: "a", Name: "A", Phase: "release", Timeout: time.Minute,
			}},
			wantErr: ErrInvalidSuite,
		},
		"zero timeout": {
			name:    "no-timeout",
			steps:   []pipeline.Step{{ID: "a", Name: "A", Phase: pipeline.PhaseTest}},
			wantErr: ErrInvalidSuite,
		},
		"unknown phase in list": {
			name:    "bad-list",
			phases:  []pipeline.Phase{"qa"},
			steps:   []pipeline.Step{valid("a")},
			wantErr: ErrInvalidSuite,
		},
		"template steps from phases": {
			name:      "templated",
			phases:    []pipeline.Phase{pipeline.PhaseBuild, pipeline.PhaseTest},
			wantSteps: 2,
		},
		"nothing to build": {
			name:    "empty",
			wantErr: ErrInvalidSuite,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			b := newTestBuilder()
			s, err := b.BuildCustom(tt.name, "desc", tt.phases, tt.steps)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, b.Catalog().Len())
				return
			}
			require.NoError(t, err)
			assert.Len(t, s.Steps, tt.wantSteps)
			assert.Equal(t, 1, b.Catalog().Len())
		})
	}
}

func TestBuilder_BuildCustom_NoInjection(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	steps := []pipeline.Step{
		{ID: "a", Name: "A", Phase: pipeline.PhaseRequirements, Timeout: time.Minute},
		{ID: "b", Name: "B", Phase: pipeline.PhaseDeploy, Timeout: time.Minute},
	}

	s, err := b.BuildCustom("flat", "", nil, steps)
	require.NoError(t, err)

	for _, st := range s.Steps {
		assert.Empty(t, st.DependsOn)
		assert.False(t, st.Critical)
	}
	assert.Equal(t, []pipeline.Phase{pipeline.PhaseRequirements, pipeline.PhaseDeploy}, s.Phases)

	// Caller mutation must not leak into the built suite.
	steps[0].DependsOn = []string{"b"}
	assert.Empty(t, s.Steps[0].DependsOn)
}

func TestBuilder_TemplateStepsHaveNoDependencies(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	s, err := b.BuildCustom("templated", "", []pipeline.Phase{pipeline.PhaseTest, pipeline.PhaseDeploy}, nil)
	require.NoError(t, err)

	require.Len(t, s.Steps, 2)
	assert.Equal(t, pipeline.PhaseTest, s.Steps[0].Phase)
	assert.Equal(t, pipeline.PhaseDeploy, s.Steps[1].Phase)
	for _, st := range s.Steps {
		assert.Empty(t, st.DependsOn)
	}
}
