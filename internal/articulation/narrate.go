// Package articulation renders agent activity for humans: one-line step narration,
// the known-facts listing, plain-text boards and Markdown episode reports.
package articulation

import (
	"fmt"
	"strings"

	"wumpus/internal/core"
	"wumpus/internal/types"
	"wumpus/internal/world"
)

// Narrate renders one step as a single line.
func Narrate(rec core.StepRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Step %d at %s: ", rec.N, rec.Location)
	sb.WriteString(DescribePercept(rec.Percept))
	fmt.Fprintf(&sb, " -> %s", rec.Action)
	if rec.Reason != "" {
		fmt.Fprintf(&sb, " (%s)", rec.Reason)
	}
	if rec.Result.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(rec.Result.Message)
	}
	return sb.String()
}

// DescribePercept lists the active signals, or "nothing".
func DescribePercept(p types.Percept) string {
	var parts []string
	if p.Stench {
		parts = append(parts, "stench")
	}
	if p.Breeze {
		parts = append(parts, "breeze")
	}
	if p.Glitter {
		parts = append(parts, "glitter")
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}

// OutcomeMessage is the closing line for an episode outcome.
func OutcomeMessage(outcome string) string {
	switch outcome {
	case types.ExitedWithItem.String():
		return "VICTORY! The agent escaped with the gold."
	case types.ExitedEmpty.String():
		return "The agent escaped without the gold."
	case types.Died.String():
		return "DEATH! The agent fell into a pit or was eaten by the wumpus."
	case types.Alive.String():
		return "The agent is still exploring."
	}
	return fmt.Sprintf("The episode ended: %s.", outcome)
}

// KnownFacts renders the knowledge base one fact per line, sorted.
func KnownFacts(facts []types.Fact) string {
	var sb strings.Builder
	sb.WriteString("--- Known facts ---\n")
	for _, f := range facts {
		sb.WriteString(f.String())
		sb.WriteByte('\n')
	}
	sb.WriteString("-------------------\n")
	return sb.String()
}

// Board renders the ground truth with the top row first. Each cell shows the
// agent (A), pit (P), live wumpus (W), dead wumpus (x), gold (G), a visited
// empty cell (+) or an unvisited empty cell (.).
func Board(w *world.World, visited map[types.Location]bool) string {
	var sb strings.Builder
	size := w.Size()
	for y := size; y >= 1; y-- {
		fmt.Fprintf(&sb, "%2d ", y)
		for x := 1; x <= size; x++ {
			loc := types.Loc(x, y)
			sb.WriteByte(' ')
			sb.WriteString(cellGlyph(w.Cell(loc), visited[loc]))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   ")
	for x := 1; x <= size; x++ {
		fmt.Fprintf(&sb, " %d", x%10)
	}
	sb.WriteByte('\n')
	return sb.String()
}

func cellGlyph(c world.Cell, visited bool) string {
	switch {
	case c.Agent:
		return "A"
	case c.Pit:
		return "P"
	case c.Wumpus:
		return "W"
	case c.DeadWumpus:
		return "x"
	case c.Gold:
		return "G"
	case visited:
		return "+"
	}
	return "."
}
