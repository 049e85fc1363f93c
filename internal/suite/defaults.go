package suite

import (
	"time"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// DefaultSuiteName is the name of the suite returned by BuildDefault.
const DefaultSuiteName = "complete-pipeline"

// DefaultCriteria returns the acceptance criteria used by the default suite
// for the given phase. Unknown phases get empty criteria.
func DefaultCriteria(phase pipeline.Phase) pipeline.Criteria {
	switch phase {
	case pipeline.PhaseRequirements:
		return pipeline.Criteria{
			Required:     []string{"overview", "user_stories", "acceptance_criteria", "non_functional_requirements"},
			MinWordCount: 500,
		}
	case pipeline.PhaseArchitecture:
		return pipeline.Criteria{
			Required:      []string{"api_gateway", "service_layer", "data_layer", "auth"},
			MaxComplexity: 7,
		}
	case pipeline.PhaseBuild:
		return pipeline.Criteria{
			Required:    []string{"compiled_binary", "container_image", "test_report"},
			MinCoverage: 80,
		}
	case pipeline.PhaseTest:
		return pipeline.Criteria{
			Required:    []string{"unit", "integration", "e2e"},
			MinPassRate: 95,
			MinCoverage: 80,
		}
	case pipeline.PhaseDeploy:
		return pipeline.Criteria{
			Required:            []string{"staging", "production", "rollback_plan"},
			MaxResponseTimeMS:   500,
			RequireHealthChecks: true,
		}
	case pipeline.PhaseMonitor:
		return pipeline.Criteria{
			Required:        []string{"latency", "error_rate", "throughput"},
			RequireAlerting: true,
		}
	default:
		return pipeline.Criteria{}
	}
}

// defaultSteps is the straight requirements -> monitor chain. Every step is
// critical and depends only on its predecessor.
func defaultSteps() []pipeline.Step {
	return []pipeline.Step{
		{
			ID:          "requirements-analysis",
			Name:        "Requirements Analysis",
			Phase:       pipeline.PhaseRequirements,
			Description: "Produce a PRD covering overview, user stories, acceptance criteria and NFRs",
			ExpectedOutput: map[string]string{
				"sections":   "list of PRD section names",
				"word_count": "integer",
			},
			Criteria: DefaultCriteria(pipeline.PhaseRequirements),
			Timeout:  10 * time.Minute,
			Retries:  2,
			Critical: true,
		},
		{
			ID:          "architecture-design",
			Name:        "Architecture Design",
			Phase:       pipeline.PhaseArchitecture,
			Description: "Design system components and evaluate structural complexity",
			ExpectedOutput: map[string]string{
				"components":       "list of component names",
				"complexity_score": "number 0-10",
			},
			Criteria:  DefaultCriteria(pipeline.PhaseArchitecture),
			DependsOn: []string{"requirements-analysis"},
			Timeout:   15 * time.Minute,
			Retries:   2,
			Critical:  true,
		},
		{
			ID:          "build-artifacts",
			Name:        "Build Artifacts",
			Phase:       pipeline.PhaseBuild,
			Description: "Compile, package and unit-test the service",
			ExpectedOutput: map[string]string{
				"artifacts":     "list of produced artifacts",
				"test_coverage": "percentage",
				"build_success": "boolean",
			},
			Criteria:  DefaultCriteria(pipeline.PhaseBuild),
			DependsOn: []string{"architecture-design"},
			Timeout:   30 * time.Minute,
			Retries:   1,
			Critical:  true,
		},
		{
			ID:          "test-execution",
			Name:        "Test Execution",
			Phase:       pipeline.PhaseTest,
			Description: "Run unit, integration and end-to-end test suites",
			ExpectedOutput: map[string]string{
				"tests":         "list of executed suites",
				"pass_rate":     "percentage",
				"test_coverage": "percentage",
			},
			Criteria:  DefaultCriteria(pipeline.PhaseTest),
			DependsOn: []string{"build-artifacts"},
			Timeout:   30 * time.Minute,
			Retries:   1,
			Critical:  true,
		},
		{
			ID:          "deployment",
			Name:        "Deployment",
			Phase:       pipeline.PhaseDeploy,
			Description: "Deploy to staging and production and verify health",
			ExpectedOutput: map[string]string{
				"checks":           "list of completed deployment checks",
				"response_time_ms": "number",
				"health_checks":    "object of check name to boolean",
			},
			Criteria:  DefaultCriteria(pipeline.PhaseDeploy),
			DependsOn: []string{"test-execution"},
			Timeout:   20 * time.Minute,
			Retries:   1,
			Critical:  true,
		},
		{
			ID:          "monitoring-setup",
			Name:        "Monitoring Setup",
			Phase:       pipeline.PhaseMonitor,
			Description: "Wire metrics collection and alerting",
			ExpectedOutput: map[string]string{
				"metrics":          "list of collected metrics",
				"alerting_enabled": "boolean",
			},
			Criteria:  DefaultCriteria(pipeline.PhaseMonitor),
			DependsOn: []string{"deployment"},
			Timeout:   5 * time.Minute,
			Retries:   1,
			Critical:  true,
		},
	}
}
