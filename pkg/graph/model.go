package graph

import (
	"github.com/ritzau/bundle-compare/pkg/compare"
	"github.com/ritzau/bundle-compare/pkg/index"
)

// RootID is the id of the synthetic node every rooted graph is anchored on
const RootID = index.RootNodeID

// Tone is a presentation hint describing how a node changed. The renderer maps
// tones to colors.
type Tone string

const (
	ToneRoot      Tone = "root"
	ToneAdded     Tone = "added"
	ToneRemoved   Tone = "removed"
	ToneIncreased Tone = "increased"
	ToneDecreased Tone = "decreased"
	ToneUnchanged Tone = "unchanged"
)

// Node is a vertex of a rendered graph: one compared module, or the synthetic root.
type Node struct {
	ID           string         `json:"id"`
	Label        string         `json:"label"`
	Status       compare.Status `json:"status,omitempty"`
	PreviousSize *int64         `json:"previousSize,omitempty"`
	CurrentSize  *int64         `json:"currentSize,omitempty"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	Tone         Tone           `json:"tone"`
	Depth        int            `json:"depth"`             // Distance from the entries, -1 if unreachable
	InCycle      bool           `json:"inCycle,omitempty"` // Part of a circular import
}

// Edge is a directed connection between two node ids
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Key identifies the edge by its ordered endpoints
func (e Edge) Key() string {
	return e.Source + "|" + e.Target
}

// Data is the graph handed to the renderer. Entries anchor the layout.
type Data struct {
	Nodes   []Node   `json:"nodes"`
	Edges   []Edge   `json:"edges"`
	Entries []string `json:"entries"`
}

// NewData creates an empty graph
func NewData() *Data {
	return &Data{
		Nodes:   make([]Node, 0),
		Edges:   make([]Edge, 0),
		Entries: make([]string, 0),
	}
}

// Node returns the node with the given id
func (d *Data) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
