package query

import (
	"slices"
	"sync"

	"github.com/ritzau/bundle-compare/pkg/graph"
	"github.com/ritzau/bundle-compare/pkg/index"
	"github.com/ritzau/bundle-compare/pkg/stats"
)

// viewKey holds everything a rooted graph depends on
type viewKey struct {
	previous *stats.Stats
	current  *stats.Stats
	chunk    stats.ChunkID
	roots    []string
}

func (k viewKey) equal(o viewKey) bool {
	return k.previous == o.previous &&
		k.current == o.current &&
		k.chunk == o.chunk &&
		slices.Equal(k.roots, o.roots)
}

// View keeps the last graph built for a query and rebuilds it only when the
// builds, the chunk or the resolved root identifiers change. Builds are compared
// by pointer, so a reloaded build must be a new *stats.Stats.
type View struct {
	query Query

	mu       sync.Mutex
	key      viewKey
	data     *graph.Data
	current  *index.Index // Index of key.current, reused for root selection
	previous *index.Index
	builds   int
}

// NewView creates a view for a query
func NewView(q Query) *View {
	return &View{query: q}
}

// Graph returns the graph for the input and whether it had to be rebuilt. The
// returned graph is shared between callers and must not be modified.
func (v *View) Graph(in Input) (*graph.Data, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	current := v.current
	if current == nil || v.key.current != in.Current {
		current = index.New(in.Current)
	}
	previous := v.previous
	if previous == nil || v.key.previous != in.Previous {
		previous = index.New(in.Previous)
	}

	key := viewKey{
		previous: in.Previous,
		current:  in.Current,
		chunk:    in.Chunk,
		roots:    RootIDs(v.query.roots(current)),
	}
	if v.data != nil && key.equal(v.key) {
		return v.data, false
	}

	v.data = run(previous, current, in.Chunk, v.query, key.roots)
	v.key = key
	v.current = current
	v.previous = previous
	v.builds++
	return v.data, true
}

// Builds returns how many times the graph has been built
func (v *View) Builds() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.builds
}
