package graph

import (
	"fmt"

	"github.com/ritzau/bundle-compare/pkg/compare"
	"github.com/ritzau/bundle-compare/pkg/logging"
)

// Direction selects which references the expansion follows
type Direction int

const (
	// Dependents follows importedBy: everything that imports the roots
	Dependents Direction = iota
	// Dependencies follows imports: everything the roots import
	Dependencies
)

func (d Direction) String() string {
	switch d {
	case Dependents:
		return "dependents"
	case Dependencies:
		return "dependencies"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection parses "dependents" or "dependencies"
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "dependents", "":
		return Dependents, nil
	case "dependencies":
		return Dependencies, nil
	default:
		return Dependents, fmt.Errorf("unknown direction %q", s)
	}
}

func (d Direction) references(r compare.Record) []string {
	if d == Dependencies {
		return r.Imports
	}
	return r.ImportedBy
}

// Expand walks the comparison breadth-first from the roots along the given
// direction. Each visited record becomes one node; each traversed reference
// becomes one edge from the visited record to the referenced one. References
// missing from the comparison (for example excluded by chunk scope) are skipped.
// The graph may contain cycles; every identifier is visited at most once.
func Expand(c *compare.Comparison, roots []compare.Record, dir Direction) *Data {
	data := NewData()
	mg := NewModuleGraph()

	visited := make(map[string]bool)
	queue := append(make([]compare.Record, 0, len(roots)), roots...)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current.ID] {
			continue
		}
		visited[current.ID] = true

		mg.AddModule(current.ID)
		data.Nodes = append(data.Nodes, NodeFromRecord(current))

		for _, ref := range dir.references(current) {
			next, ok := c.Get(ref)
			if !ok {
				logging.Trace("skipping unresolved reference", "from", current.ID, "ref", ref)
				continue
			}

			if mg.AddDependency(current.ID, ref) {
				data.Edges = append(data.Edges, Edge{Source: current.ID, Target: ref})
			}
			if !visited[ref] {
				queue = append(queue, next)
			}
		}
	}

	return data
}

// Invert returns new edges with source and target swapped
func Invert(edges []Edge) []Edge {
	inverted := make([]Edge, len(edges))
	for i, e := range edges {
		inverted[i] = Edge{Source: e.Target, Target: e.Source}
	}
	return inverted
}
