// Package cycles detects circular imports among the modules of a rendered graph.
package cycles

import (
	"slices"
	"strings"

	"github.com/ritzau/bundle-compare/pkg/graph"
)

// Cycle is a set of modules that import each other, directly or transitively
type Cycle struct {
	Modules []string `json:"modules"` // Sorted module ids
}

// Find returns the circular imports of a module graph. Modules within a cycle
// are sorted, and cycles are ordered by their first module.
func Find(mg *graph.ModuleGraph) []Cycle {
	sccs := newTarjanSCC(mg.Graph()).findSCCs()

	cycles := make([]Cycle, 0, len(sccs))
	for _, scc := range sccs {
		modules := make([]string, 0, len(scc))
		for _, gid := range scc {
			if name, ok := mg.Name(gid); ok {
				modules = append(modules, name)
			}
		}
		slices.Sort(modules)
		cycles = append(cycles, Cycle{Modules: modules})
	}

	slices.SortFunc(cycles, func(a, b Cycle) int {
		return strings.Compare(a.Modules[0], b.Modules[0])
	})
	return cycles
}

// Mark flags every node of the graph that takes part in one of the cycles
func Mark(d *graph.Data, cycles []Cycle) {
	inCycle := make(map[string]bool)
	for _, c := range cycles {
		for _, m := range c.Modules {
			inCycle[m] = true
		}
	}
	for i := range d.Nodes {
		d.Nodes[i].InCycle = inCycle[d.Nodes[i].ID]
	}
}
