package graph

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
)

// GraphDiff is the difference between a previously served graph and a new one
type GraphDiff struct {
	Hash          string   `json:"hash"` // Hash of the new graph
	AddedNodes    []Node   `json:"addedNodes"`
	RemovedNodes  []string `json:"removedNodes"`
	ModifiedNodes []Node   `json:"modifiedNodes"`
	AddedEdges    []Edge   `json:"addedEdges"`
	RemovedEdges  []string `json:"removedEdges"` // Edge keys
	Entries       []string `json:"entries"`
	FullGraph     bool     `json:"fullGraph"`
}

// IsEmpty reports whether nothing changed
func (d *GraphDiff) IsEmpty() bool {
	return !d.FullGraph &&
		len(d.AddedNodes) == 0 &&
		len(d.RemovedNodes) == 0 &&
		len(d.ModifiedNodes) == 0 &&
		len(d.AddedEdges) == 0 &&
		len(d.RemovedEdges) == 0
}

// Snapshot is an indexed copy of a served graph used for diffing
type Snapshot struct {
	Hash  string
	Nodes map[string]Node
	Edges map[string]Edge
}

// Hash returns a stable hash of the graph contents
func Hash(d *Data) string {
	jsonData, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(jsonData))
}

// NewSnapshot indexes a graph for later diffing
func NewSnapshot(d *Data) *Snapshot {
	s := &Snapshot{
		Hash:  Hash(d),
		Nodes: make(map[string]Node, len(d.Nodes)),
		Edges: make(map[string]Edge, len(d.Edges)),
	}
	for _, n := range d.Nodes {
		s.Nodes[n.ID] = n
	}
	for _, e := range d.Edges {
		s.Edges[e.Key()] = e
	}
	return s
}

// Diff computes the changes from an old snapshot to a new graph. Without an old
// snapshot the whole graph is returned as added.
func Diff(old *Snapshot, d *Data) *GraphDiff {
	if old == nil {
		return &GraphDiff{
			Hash:       Hash(d),
			AddedNodes: d.Nodes,
			AddedEdges: d.Edges,
			Entries:    d.Entries,
			FullGraph:  true,
		}
	}

	next := NewSnapshot(d)
	diff := &GraphDiff{
		Hash:          next.Hash,
		AddedNodes:    make([]Node, 0),
		RemovedNodes:  make([]string, 0),
		ModifiedNodes: make([]Node, 0),
		AddedEdges:    make([]Edge, 0),
		RemovedEdges:  make([]string, 0),
		Entries:       d.Entries,
	}

	for _, n := range d.Nodes {
		prev, exists := old.Nodes[n.ID]
		switch {
		case !exists:
			diff.AddedNodes = append(diff.AddedNodes, n)
		case !nodesEqual(prev, n):
			diff.ModifiedNodes = append(diff.ModifiedNodes, n)
		}
	}
	for id := range old.Nodes {
		if _, exists := next.Nodes[id]; !exists {
			diff.RemovedNodes = append(diff.RemovedNodes, id)
		}
	}

	for _, e := range d.Edges {
		if _, exists := old.Edges[e.Key()]; !exists {
			diff.AddedEdges = append(diff.AddedEdges, e)
		}
	}
	for key := range old.Edges {
		if _, exists := next.Edges[key]; !exists {
			diff.RemovedEdges = append(diff.RemovedEdges, key)
		}
	}

	sort.Strings(diff.RemovedNodes)
	sort.Strings(diff.RemovedEdges)

	return diff
}

// nodesEqual compares everything the renderer displays
func nodesEqual(a, b Node) bool {
	return a.ID == b.ID &&
		a.Label == b.Label &&
		a.Status == b.Status &&
		a.Tone == b.Tone &&
		a.Width == b.Width &&
		a.Depth == b.Depth &&
		a.InCycle == b.InCycle &&
		sizesEqual(a.PreviousSize, b.PreviousSize) &&
		sizesEqual(a.CurrentSize, b.CurrentSize)
}

func sizesEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
