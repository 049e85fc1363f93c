package dag

import (
	"fmt"
	"sort"
)

// ExecutionWave is a group of steps that can execute concurrently.
type ExecutionWave struct {
	Number  int      // Wave number (1, 2, 3...)
	StepIDs []string // Steps in this wave
}

// Size returns the number of steps in the wave.
func (w ExecutionWave) Size() int {
	return len(w.StepIDs)
}

// ComputeWaves groups steps by their longest dependency chain.
// Wave N contains all steps whose longest dependency chain has length N-1,
// which is the same grouping the executor's ready-set loop produces when no
// step is short-circuited.
func (g *DependencyGraph) ComputeWaves() ([]ExecutionWave, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("computing waves: %w", err)
	}

	if len(g.nodes) == 0 {
		g.waves = []ExecutionWave{}
		return g.waves, nil
	}

	g.computeDepths()
	g.waves = createWavesFromGroups(g.groupByDepth())
	return g.waves, nil
}

// computeDepths calculates the longest path from any root to each node
// using Kahn's algorithm.
func (g *DependencyGraph) computeDepths() {
	inDegree := make(map[string]int)
	for id, node := range g.nodes {
		node.Depth = 0
		inDegree[id] = len(node.Dependencies)
	}

	queue := make([]string, 0, len(g.roots))
	queue = append(queue, g.roots...)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		node := g.nodes[id]

		for _, depID := range node.Dependents {
			depNode := g.nodes[depID]
			if newDepth := node.Depth + 1; newDepth > depNode.Depth {
				depNode.Depth = newDepth
			}

			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}
}

// groupByDepth groups step IDs by their depth level.
func (g *DependencyGraph) groupByDepth() map[int][]string {
	groups := make(map[int][]string)
	for id, node := range g.nodes {
		groups[node.Depth] = append(groups[node.Depth], id)
	}
	return groups
}

// createWavesFromGroups creates waves from depth groups.
func createWavesFromGroups(groups map[int][]string) []ExecutionWave {
	depths := make([]int, 0, len(groups))
	for depth := range groups {
		depths = append(depths, depth)
	}
	sort.Ints(depths)

	waves := make([]ExecutionWave, 0, len(depths))
	for i, depth := range depths {
		ids := groups[depth]
		sort.Strings(ids)
		waves = append(waves, ExecutionWave{
			Number:  i + 1,
			StepIDs: ids,
		})
	}
	return waves
}

// GetWaveForStep returns the wave number (1-indexed) for a step, or 0.
func (g *DependencyGraph) GetWaveForStep(stepID string) int {
	for _, wave := range g.waves {
		for _, id := range wave.StepIDs {
			if id == stepID {
				return wave.Number
			}
		}
	}
	return 0
}

// WaveStats summarises the computed waves.
type WaveStats struct {
	TotalWaves  int // Number of waves
	TotalSteps  int // Total steps across all waves
	MaxWaveSize int // Size of the largest wave
	MinWaveSize int // Size of the smallest wave
	Critical    int // Number of critical steps
}

// GetWaveStats returns statistics about the computed waves.
func (g *DependencyGraph) GetWaveStats() WaveStats {
	if len(g.waves) == 0 {
		return WaveStats{}
	}

	stats := WaveStats{
		TotalWaves:  len(g.waves),
		MinWaveSize: g.waves[0].Size(),
	}

	for _, wave := range g.waves {
		size := wave.Size()
		stats.TotalSteps += size
		if size > stats.MaxWaveSize {
			stats.MaxWaveSize = size
		}
		if size < stats.MinWaveSize {
			stats.MinWaveSize = size
		}
	}

	for _, node := range g.nodes {
		if node.Step.Critical {
			stats.Critical++
		}
	}

	return stats
}
