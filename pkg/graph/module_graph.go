package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// ModuleGraph is a directed graph of normalized module identifiers backed by gonum
type ModuleGraph struct {
	graph  *simple.DirectedGraph
	ids    map[string]int64 // module id -> graph id
	names  map[int64]string // graph id -> module id
	nextID int64
}

// NewModuleGraph creates an empty module graph
func NewModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		graph: simple.NewDirectedGraph(),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
	}
}

// FromData builds a module graph from rendered graph data
func FromData(d *Data) *ModuleGraph {
	mg := NewModuleGraph()
	for _, n := range d.Nodes {
		mg.AddModule(n.ID)
	}
	for _, e := range d.Edges {
		mg.AddDependency(e.Source, e.Target)
	}
	return mg
}

// AddModule adds a module if it is not already present and returns its graph id
func (mg *ModuleGraph) AddModule(id string) int64 {
	if gid, exists := mg.ids[id]; exists {
		return gid
	}

	gid := mg.nextID
	mg.ids[id] = gid
	mg.names[gid] = id
	mg.graph.AddNode(simple.Node(gid))
	mg.nextID++

	return gid
}

// AddDependency adds an edge from one module to another, adding missing modules.
// It returns false when the edge already exists or would be a self loop.
func (mg *ModuleGraph) AddDependency(from, to string) bool {
	if from == to {
		return false
	}

	fromID := mg.AddModule(from)
	toID := mg.AddModule(to)

	if mg.graph.HasEdgeFromTo(fromID, toID) {
		return false
	}

	mg.graph.SetEdge(mg.graph.NewEdge(mg.graph.Node(fromID), mg.graph.Node(toID)))
	return true
}

// HasModule reports whether the module is part of the graph
func (mg *ModuleGraph) HasModule(id string) bool {
	_, exists := mg.ids[id]
	return exists
}

// HasDependency reports whether an edge from one module to another exists
func (mg *ModuleGraph) HasDependency(from, to string) bool {
	fromID, ok := mg.ids[from]
	if !ok {
		return false
	}
	toID, ok := mg.ids[to]
	if !ok {
		return false
	}
	return mg.graph.HasEdgeFromTo(fromID, toID)
}

// Name returns the module id for a graph id
func (mg *ModuleGraph) Name(gid int64) (string, bool) {
	name, ok := mg.names[gid]
	return name, ok
}

// Len returns the number of modules
func (mg *ModuleGraph) Len() int {
	return len(mg.ids)
}

// Graph returns the underlying directed graph
func (mg *ModuleGraph) Graph() *simple.DirectedGraph {
	return mg.graph
}

// Successors returns the modules the given module points to, sorted
func (mg *ModuleGraph) Successors(id string) []string {
	gid, exists := mg.ids[id]
	if !exists {
		return nil
	}

	var succ []string
	iter := mg.graph.From(gid)
	for iter.Next() {
		succ = append(succ, mg.names[iter.Node().ID()])
	}
	sort.Strings(succ)
	return succ
}
