package articulation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"wumpus/internal/core"
	"wumpus/internal/types"
	"wumpus/internal/world"
)

// Report is everything needed to describe a finished episode.
type Report struct {
	EpisodeID string
	Seed      uint64
	Outcome   string
	Steps     []core.StepRecord
	Facts     []types.Fact
	Board     string
	Layout    world.Layout
	Duration  time.Duration
}

// Markdown renders the report as a Markdown document.
func (r Report) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Episode %s\n\n", r.EpisodeID)
	fmt.Fprintf(&sb, "**%s**\n\n", OutcomeMessage(r.Outcome))

	sb.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Outcome | `%s` |\n", r.Outcome)
	fmt.Fprintf(&sb, "| Steps | %d |\n", len(r.Steps))
	fmt.Fprintf(&sb, "| Seed | %d |\n", r.Seed)
	fmt.Fprintf(&sb, "| Board | %dx%d, gold %s, wumpus %s, %d pits |\n",
		r.Layout.Size, r.Layout.Size, r.Layout.Gold, r.Layout.Wumpus, len(r.Layout.Pits))
	fmt.Fprintf(&sb, "| Known facts | %d |\n", len(r.Facts))
	if r.Duration > 0 {
		fmt.Fprintf(&sb, "| Duration | %s |\n", r.Duration.Round(time.Microsecond))
	}

	if r.Board != "" {
		sb.WriteString("\n## Board\n\n```\n")
		sb.WriteString(r.Board)
		sb.WriteString("```\n")
	}

	if len(r.Steps) > 0 {
		sb.WriteString("\n## Steps\n\n")
		sb.WriteString("| # | At | Percept | Action | Why | Result |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, rec := range r.Steps {
			fmt.Fprintf(&sb, "| %d | %s | %s | `%s` | %s | %s |\n",
				rec.N, rec.Location, DescribePercept(rec.Percept), rec.Action, rec.Reason,
				escapeCell(rec.Result.Message))
		}
	}

	if len(r.Facts) > 0 {
		sb.WriteString("\n## Knowledge\n\n")
		for _, group := range groupByKind(r.Facts) {
			fmt.Fprintf(&sb, "- **%s**: %s\n", group.kind, strings.Join(group.cells, ", "))
		}
	}

	return sb.String()
}

type kindGroup struct {
	kind  types.Kind
	cells []string
}

func groupByKind(facts []types.Fact) []kindGroup {
	byKind := map[types.Kind][]string{}
	for _, f := range facts {
		byKind[f.Kind] = append(byKind[f.Kind], f.At.String())
	}
	groups := make([]kindGroup, 0, len(byKind))
	for kind, cells := range byKind {
		groups = append(groups, kindGroup{kind: kind, cells: cells})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].kind < groups[j].kind })
	return groups
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
