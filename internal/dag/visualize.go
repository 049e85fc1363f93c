package dag

import (
	"fmt"
	"sort"
	"strings"
)

// RenderTree draws the waves top to bottom with one branch per step and a
// one-line summary. Critical steps end with '!'. Output is plain ASCII.
func (g *DependencyGraph) RenderTree() string {
	if len(g.waves) == 0 {
		return "No waves computed"
	}

	var sb strings.Builder
	for i, wave := range g.waves {
		if i > 0 {
			sb.WriteString("   |\n")
		}
		fmt.Fprintf(&sb, "Wave %d (%s)\n", wave.Number, countSteps(len(wave.StepIDs)))

		ids := sortedCopy(wave.StepIDs)
		for j, id := range ids {
			branch := "|--"
			if j == len(ids)-1 {
				branch = "`--"
			}
			mark := ""
			if node := g.nodes[id]; node != nil && node.Step.Critical {
				mark = " !"
			}
			fmt.Fprintf(&sb, "   %s %s%s\n", branch, id, mark)
		}
	}

	stats := g.GetWaveStats()
	fmt.Fprintf(&sb, "\n%s in %d waves, widest wave %d, %d critical\n",
		countSteps(stats.TotalSteps), stats.TotalWaves, stats.MaxWaveSize, stats.Critical)
	return sb.String()
}

func countSteps(n int) string {
	if n == 1 {
		return "1 step"
	}
	return fmt.Sprintf("%d steps", n)
}

// RenderCompact generates a compact single-line representation.
// Format: Wave 1: [a] -> Wave 2: [b, c] -> Wave 3: [d]
func (g *DependencyGraph) RenderCompact() string {
	if len(g.waves) == 0 {
		return "No waves computed"
	}

	parts := make([]string, len(g.waves))
	for i, wave := range g.waves {
		parts[i] = fmt.Sprintf("Wave %d: [%s]", wave.Number, strings.Join(sortedCopy(wave.StepIDs), ", "))
	}
	return strings.Join(parts, " -> ")
}

// RenderDetailed generates a detailed view with step info.
func (g *DependencyGraph) RenderDetailed() string {
	if len(g.waves) == 0 {
		return "No waves computed. Run ComputeWaves() first."
	}

	var sb strings.Builder
	sb.WriteString("Detailed Step Execution Plan\n")
	sb.WriteString("============================\n\n")

	for _, wave := range g.waves {
		sb.WriteString(fmt.Sprintf("Wave %d:\n", wave.Number))
		sb.WriteString(strings.Repeat("-", 40) + "\n")

		for _, id := range sortedCopy(wave.StepIDs) {
			if node := g.GetNode(id); node != nil {
				sb.WriteString(renderDetailedStep(node))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func renderDetailedStep(node *StepNode) string {
	var sb strings.Builder
	critical := ""
	if node.Step.Critical {
		critical = ", critical"
	}
	sb.WriteString(fmt.Sprintf("  [%s] %s (%s, timeout %s%s)\n",
		node.ID, node.Step.Name, node.Step.Phase, node.Step.Timeout, critical))

	if len(node.Dependencies) > 0 {
		sb.WriteString(fmt.Sprintf("    Depends on: %s\n", strings.Join(sortedCopy(node.Dependencies), ", ")))
	}
	if len(node.Dependents) > 0 {
		sb.WriteString(fmt.Sprintf("    Blocks: %s\n", strings.Join(sortedCopy(node.Dependents), ", ")))
	}
	return sb.String()
}

func sortedCopy(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
