// Package dag provides dependency graph construction, cycle detection and
// wave computation for concurrent step execution.
package dag

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

var (
	// ErrDuplicateStep indicates a step id was added twice.
	ErrDuplicateStep = errors.New("duplicate step id")

	// ErrMissingDependency indicates a step depends on an id not in the graph.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrNoRoots indicates every step has at least one dependency.
	ErrNoRoots = errors.New("no root steps")
)

// CycleError reports a circular dependency and the path that closes it.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

// StepNode represents a node in the dependency graph.
type StepNode struct {
	ID           string        // Step identifier
	Dependencies []string      // IDs of steps this depends on
	Dependents   []string      // IDs of steps that depend on this
	Depth        int           // Longest distance from any root (determines wave)
	Step         pipeline.Step // Original step
}

// DependencyGraph is a directed graph of step dependencies.
type DependencyGraph struct {
	nodes map[string]*StepNode
	order []string        // Insertion order, for deterministic iteration
	roots []string        // Step IDs with no dependencies
	waves []ExecutionWave // Computed execution waves in order
}

// NewDependencyGraph creates an empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*StepNode),
		roots: []string{},
		waves: []ExecutionWave{},
	}
}

// AddStep adds a step with its dependencies to the graph.
func (g *DependencyGraph) AddStep(step pipeline.Step) error {
	if _, exists := g.nodes[step.ID]; exists {
		return fmt.Errorf("adding step: %w: %s", ErrDuplicateStep, step.ID)
	}

	g.nodes[step.ID] = &StepNode{
		ID:           step.ID,
		Dependencies: append([]string(nil), step.DependsOn...),
		Dependents:   []string{},
		Step:         step,
	}
	g.order = append(g.order, step.ID)
	return nil
}

// BuildFromSteps constructs a dependency graph from a list of steps.
// Returns an error if a dependency references a step that is not present.
// Cycles are not checked here; call Validate or DetectCycle.
func BuildFromSteps(steps []pipeline.Step) (*DependencyGraph, error) {
	g := NewDependencyGraph()

	for i := range steps {
		if err := g.AddStep(steps[i]); err != nil {
			return nil, fmt.Errorf("building graph: %w", err)
		}
	}

	if err := g.buildDependentsAndValidate(); err != nil {
		return nil, err
	}

	g.identifyRoots()
	return g, nil
}

// Resolve builds the graph for steps and verifies it can be fully scheduled:
// every dependency exists and there is no cycle.
func Resolve(steps []pipeline.Step) (*DependencyGraph, error) {
	g, err := BuildFromSteps(steps)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// buildDependentsAndValidate validates dependencies exist and builds the dependents lists.
func (g *DependencyGraph) buildDependentsAndValidate() error {
	for _, id := range g.order {
		node := g.nodes[id]
		for _, depID := range node.Dependencies {
			depNode, exists := g.nodes[depID]
			if !exists {
				return fmt.Errorf("validating dependencies: %w: step %s depends on unknown step %s",
					ErrMissingDependency, id, depID)
			}
			depNode.Dependents = append(depNode.Dependents, id)
		}
	}
	return nil
}

// identifyRoots finds all steps with no dependencies.
func (g *DependencyGraph) identifyRoots() {
	g.roots = []string{}
	for _, id := range g.order {
		if len(g.nodes[id].Dependencies) == 0 {
			g.roots = append(g.roots, id)
		}
	}
}

// Roots returns the ids of steps with no dependencies.
func (g *DependencyGraph) Roots() []string {
	return g.roots
}

// GetNode returns a step node by ID, or nil if not found.
func (g *DependencyGraph) GetNode(id string) *StepNode {
	return g.nodes[id]
}

// Size returns the number of steps in the graph.
func (g *DependencyGraph) Size() int {
	return len(g.nodes)
}

// Ready returns the ids of steps not in executed whose dependencies are all
// in executed, sorted for stable output.
func (g *DependencyGraph) Ready(executed map[string]bool) []string {
	ready := []string{}
	for _, id := range g.order {
		if executed[id] {
			continue
		}
		if allIn(g.nodes[id].Dependencies, executed) {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)
	return ready
}

func allIn(ids []string, set map[string]bool) bool {
	for _, id := range ids {
		if !set[id] {
			return false
		}
	}
	return true
}

// DetectCycle checks for circular dependencies in the graph.
// Returns a *CycleError with the cycle path if found, nil otherwise.
func (g *DependencyGraph) DetectCycle() error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make([]string, 0)

	for _, id := range g.order {
		if !visited[id] {
			if cycle := g.detectCycleDFS(id, visited, recStack, path); cycle != nil {
				return &CycleError{Path: cycle}
			}
		}
	}
	return nil
}

// detectCycleDFS performs depth-first search for cycle detection.
func (g *DependencyGraph) detectCycleDFS(id string, visited, recStack map[string]bool, path []string) []string {
	visited[id] = true
	recStack[id] = true
	path = append(path, id)

	node := g.nodes[id]
	for _, depID := range node.Dependencies {
		if _, exists := g.nodes[depID]; !exists {
			continue
		}
		if !visited[depID] {
			if cycle := g.detectCycleDFS(depID, visited, recStack, path); cycle != nil {
				return cycle
			}
		} else if recStack[depID] {
			return buildCyclePath(path, depID)
		}
	}

	recStack[id] = false
	return nil
}

// buildCyclePath constructs the cycle path from the DFS path.
func buildCyclePath(path []string, cycleStart string) []string {
	for i, id := range path {
		if id == cycleStart {
			cycle := append([]string(nil), path[i:]...)
			return append(cycle, cycleStart)
		}
	}
	return append(append([]string(nil), path...), cycleStart)
}

// Validate performs full validation of the graph including cycle detection.
func (g *DependencyGraph) Validate() error {
	if len(g.nodes) == 0 {
		return nil
	}

	// A cycle means there may be no valid roots, so check it first.
	if err := g.DetectCycle(); err != nil {
		return err
	}

	if len(g.roots) == 0 {
		return fmt.Errorf("validating graph: %w", ErrNoRoots)
	}
	return nil
}
