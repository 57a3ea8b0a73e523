package cycles

import (
	"testing"

	"github.com/ritzau/bundle-compare/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moduleGraph(edges ...[2]string) *graph.ModuleGraph {
	mg := graph.NewModuleGraph()
	for _, e := range edges {
		mg.AddDependency(e[0], e[1])
	}
	return mg
}

func TestFindNoCycles(t *testing.T) {
	mg := moduleGraph([2]string{"a.js", "b.js"}, [2]string{"b.js", "c.js"})
	assert.Empty(t, Find(mg))
}

func TestFindSimpleCycle(t *testing.T) {
	mg := moduleGraph([2]string{"b.js", "a.js"}, [2]string{"a.js", "b.js"})

	cycles := Find(mg)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a.js", "b.js"}, cycles[0].Modules)
}

func TestFindMultipleCycles(t *testing.T) {
	mg := moduleGraph(
		[2]string{"d.js", "e.js"},
		[2]string{"e.js", "f.js"},
		[2]string{"f.js", "d.js"},
		[2]string{"a.js", "b.js"},
		[2]string{"b.js", "a.js"},
		[2]string{"b.js", "d.js"},
		[2]string{"x.js", "a.js"},
	)

	cycles := Find(mg)
	require.Len(t, cycles, 2)
	assert.Equal(t, []string{"a.js", "b.js"}, cycles[0].Modules)
	assert.Equal(t, []string{"d.js", "e.js", "f.js"}, cycles[1].Modules)
}

func TestMark(t *testing.T) {
	d := &graph.Data{
		Nodes: []graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c", InCycle: true}},
		Edges: []graph.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}, {Source: "c", Target: "a"}},
	}

	Mark(d, Find(graph.FromData(d)))

	assert.True(t, d.Nodes[0].InCycle)
	assert.True(t, d.Nodes[1].InCycle)
	assert.False(t, d.Nodes[2].InCycle, "stale flags are cleared")
}
