package query

import (
	"testing"

	"github.com/ritzau/bundle-compare/pkg/compare"
	"github.com/ritzau/bundle-compare/pkg/graph"
	"github.com/ritzau/bundle-compare/pkg/index"
	"github.com/ritzau/bundle-compare/pkg/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mainJS  = "/w/src/main.js"
	pkgMain = "node_modules/pkg/index.js"
	pkgUtil = "node_modules/pkg/lib/util.js"
)

func reasons(from ...string) []stats.Reason {
	out := make([]stats.Reason, 0, len(from))
	for _, f := range from {
		out = append(out, stats.Reason{ModuleIdentifier: f, Type: "harmony import"})
	}
	return out
}

// builds returns a previous and current build where main.js imports the entry
// module of "pkg", which imports a module internal to the package.
func builds() (*stats.Stats, *stats.Stats) {
	previous := &stats.Stats{Modules: []stats.Module{
		{Identifier: mainJS, Name: "./src/main.js", Size: 10, Chunks: []stats.ChunkID{"0"}},
		{Identifier: "/w/" + pkgMain, Name: "./" + pkgMain, Size: 40, Chunks: []stats.ChunkID{"0"}, Reasons: reasons(mainJS)},
	}}
	current := &stats.Stats{Modules: []stats.Module{
		{Identifier: mainJS, Name: "./src/main.js", Size: 10, Chunks: []stats.ChunkID{"0"}},
		{Identifier: "/w/" + pkgMain, Name: "./" + pkgMain, Size: 50, Chunks: []stats.ChunkID{"0"}, Reasons: reasons(mainJS)},
		{Identifier: "/w/" + pkgUtil, Name: "./" + pkgUtil, Size: 5, Chunks: []stats.ChunkID{"1"}, Reasons: reasons("/w/" + pkgMain)},
	}}
	return previous, current
}

func nodeIDs(d *graph.Data) []string {
	ids := make([]string, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestPackageDependents(t *testing.T) {
	previous, current := builds()

	d := Run(Input{Previous: previous, Current: current}, PackageDependents("pkg"))

	assert.ElementsMatch(t, []string{pkgMain, mainJS, graph.RootID}, nodeIDs(d))
	assert.ElementsMatch(t, []graph.Edge{
		{Source: mainJS, Target: pkgMain},
		{Source: pkgMain, Target: graph.RootID},
	}, d.Edges)
	assert.Equal(t, []string{graph.RootID}, d.Entries)

	root, ok := d.Node(graph.RootID)
	require.True(t, ok)
	assert.Equal(t, "pkg", root.Label)
	assert.Equal(t, graph.ToneRoot, root.Tone)

	m1, ok := d.Node(pkgMain)
	require.True(t, ok)
	assert.Equal(t, compare.StatusChanged, m1.Status)
	assert.Equal(t, graph.ToneIncreased, m1.Tone)
	assert.Equal(t, 1, m1.Depth)

	m2, ok := d.Node(mainJS)
	require.True(t, ok)
	assert.Equal(t, compare.StatusUnchanged, m2.Status)
	assert.Equal(t, 2, m2.Depth)
}

func TestModuleDependents(t *testing.T) {
	previous, current := builds()
	root := &stats.Module{Identifier: "babel-loader!" + mainJS, Name: "babel-loader!./src/main.js"}

	d := Run(Input{Previous: previous, Current: current}, ModuleDependents(root))

	rootNode, ok := d.Node(graph.RootID)
	require.True(t, ok)
	assert.Equal(t, "./src/main.js", rootNode.Label)
	assert.ElementsMatch(t, []graph.Edge{
		{Source: mainJS, Target: pkgMain},
		{Source: pkgMain, Target: graph.RootID},
	}, d.Edges)
}

func TestModuleDependencies(t *testing.T) {
	previous, current := builds()
	root := &current.Modules[0]

	d := Run(Input{Previous: previous, Current: current}, ModuleDependencies(root))

	assert.ElementsMatch(t, []string{pkgMain, pkgUtil, graph.RootID}, nodeIDs(d))
	assert.ElementsMatch(t, []graph.Edge{
		{Source: pkgMain, Target: pkgUtil},
		{Source: graph.RootID, Target: pkgMain},
	}, d.Edges)

	util, ok := d.Node(pkgUtil)
	require.True(t, ok)
	assert.Equal(t, compare.StatusAdded, util.Status)
	assert.Equal(t, 2, util.Depth)
}

func TestRunWithChunkScope(t *testing.T) {
	previous, current := builds()

	d := Run(Input{Previous: previous, Current: current, Chunk: "0"}, ModuleDependencies(&current.Modules[0]))
	assert.ElementsMatch(t, []string{pkgMain, graph.RootID}, nodeIDs(d), "util lives in chunk 1")

	d = Run(Input{Previous: previous, Current: current, Chunk: "1"}, PackageDependents("pkg"))
	assert.Equal(t, []string{graph.RootID}, nodeIDs(d), "roots outside the chunk are dropped")
	assert.Empty(t, d.Edges)
}

func TestRunWithoutRoots(t *testing.T) {
	previous, current := builds()

	d := Run(Input{Previous: previous, Current: current}, PackageDependents("unknown"))
	require.Len(t, d.Nodes, 1)
	assert.Equal(t, "unknown", d.Nodes[0].Label)
	assert.Empty(t, d.Edges)

	d = Run(Input{}, PackageDependents("pkg"))
	assert.Len(t, d.Nodes, 1)
}

func TestRunMarksCycles(t *testing.T) {
	_, current := builds()
	current.Modules[1].Reasons = reasons(mainJS, "/w/"+pkgUtil)

	d := Run(Input{Current: current}, PackageDependents("pkg"))

	for _, id := range []string{pkgMain, pkgUtil} {
		n, ok := d.Node(id)
		require.True(t, ok, id)
		assert.True(t, n.InCycle, id)
	}
	n, ok := d.Node(mainJS)
	require.True(t, ok)
	assert.False(t, n.InCycle)
}

func TestRootIDsNormalizeAndDeduplicate(t *testing.T) {
	ids := RootIDs([]*stats.Module{
		{Identifier: "css-loader!/w/a.css"},
		{Identifier: "style-loader!css-loader!/w/a.css"},
		{Identifier: "/w/b.js"},
	})
	assert.Equal(t, []string{"/w/a.css", "/w/b.js"}, ids)
}

func TestViewRebuildsOnlyOnRelevantChanges(t *testing.T) {
	previous, current := builds()
	v := NewView(PackageDependents("pkg"))

	first, built := v.Graph(Input{Previous: previous, Current: current})
	require.True(t, built)

	again, built := v.Graph(Input{Previous: previous, Current: current})
	assert.False(t, built)
	assert.Same(t, first, again)

	_, built = v.Graph(Input{Previous: previous, Current: current, Chunk: "0"})
	assert.True(t, built, "chunk changed")

	_, built = v.Graph(Input{Previous: nil, Current: current, Chunk: "0"})
	assert.True(t, built, "previous build changed")

	reloaded, _ := builds()
	_, built = v.Graph(Input{Previous: nil, Current: reloaded, Chunk: "0"})
	assert.True(t, built, "current build changed")

	assert.Equal(t, 4, v.Builds())
}

func TestViewRebuildsWhenRootsChange(t *testing.T) {
	previous, current := builds()

	count := 1
	q := Query{
		Name: "test",
		Roots: func(idx *index.Index) []*stats.Module {
			return idx.Stats().Modules[:count]
		},
		Label:     func() string { return "test" },
		Direction: graph.Dependencies,
	}
	v := NewView(q)
	in := Input{Previous: previous, Current: current}

	_, built := v.Graph(in)
	require.True(t, built)

	_, built = v.Graph(in)
	assert.False(t, built)

	count = 2
	d, built := v.Graph(in)
	assert.True(t, built)
	assert.Contains(t, d.Edges, graph.Edge{Source: graph.RootID, Target: pkgMain})
}

func TestFindModule(t *testing.T) {
	previous, current := builds()
	previous.Modules = append(previous.Modules, stats.Module{Identifier: "/w/src/gone.js", Size: 3})
	prevIdx, curIdx := index.New(previous), index.New(current)

	m, ok := FindModule(prevIdx, curIdx, "babel-loader!"+mainJS)
	require.True(t, ok)
	assert.Same(t, &current.Modules[0], m, "current build wins")

	m, ok = FindModule(prevIdx, curIdx, "/w/src/gone.js")
	require.True(t, ok)
	assert.Equal(t, int64(3), m.Size)

	_, ok = FindModule(prevIdx, curIdx, "/w/src/missing.js")
	assert.False(t, ok)
}

func TestModuleNamedLikeRootKeepsUniqueIDs(t *testing.T) {
	current := &stats.Stats{Modules: []stats.Module{
		{Identifier: "index", Name: "index", Size: 10},
		{Identifier: "/w/" + pkgMain, Name: "./" + pkgMain, Size: 50, Reasons: reasons("index")},
	}}

	d := Run(Input{Current: current}, PackageDependents("pkg"))

	seen := make(map[string]bool)
	for _, id := range nodeIDs(d) {
		assert.False(t, seen[id], "duplicate node %s", id)
		seen[id] = true
	}
	assert.ElementsMatch(t, []string{"./index", pkgMain, graph.RootID}, nodeIDs(d))
	assert.Contains(t, d.Edges, graph.Edge{Source: "./index", Target: pkgMain})
}
