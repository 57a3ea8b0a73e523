package query

import (
	"time"

	"github.com/ritzau/bundle-compare/pkg/compare"
	"github.com/ritzau/bundle-compare/pkg/cycles"
	"github.com/ritzau/bundle-compare/pkg/graph"
	"github.com/ritzau/bundle-compare/pkg/identifier"
	"github.com/ritzau/bundle-compare/pkg/index"
	"github.com/ritzau/bundle-compare/pkg/logging"
	"github.com/ritzau/bundle-compare/pkg/metrics"
	"github.com/ritzau/bundle-compare/pkg/stats"
)

// Run executes a query against a pair of builds
func Run(in Input, q Query) *graph.Data {
	previous := index.New(in.Previous)
	current := index.New(in.Current)
	return run(previous, current, in.Chunk, q, RootIDs(q.roots(current)))
}

// RootIDs returns the normalized identifiers of the root modules in order,
// without duplicates.
func RootIDs(roots []*stats.Module) []string {
	seen := make(map[string]bool, len(roots))
	ids := make([]string, 0, len(roots))
	for _, m := range roots {
		id := identifier.Normalize(m.Identifier)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func (q Query) roots(current *index.Index) []*stats.Module {
	if q.Roots == nil {
		return nil
	}
	return q.Roots(current)
}

func (q Query) label() string {
	if q.Label == nil {
		return ""
	}
	return q.Label()
}

func run(previous, current *index.Index, chunk stats.ChunkID, q Query, rootIDs []string) *graph.Data {
	start := time.Now()

	c := compare.CompareIndexes(previous, current, chunk)

	roots := make([]compare.Record, 0, len(rootIDs))
	for _, id := range rootIDs {
		if r, ok := c.Get(id); ok {
			roots = append(roots, r)
		} else {
			logging.Trace("root outside comparison", "query", q.Name, "root", id)
		}
	}

	data := graph.Expand(c, roots, q.Direction)
	if q.Direction == graph.Dependents {
		data.Edges = graph.Invert(data.Edges)
	}

	data.Nodes = append(data.Nodes, graph.RootNode(q.label()))
	for _, r := range roots {
		edge := graph.Edge{Source: r.ID, Target: graph.RootID}
		if q.Direction == graph.Dependencies {
			edge = graph.Edge{Source: graph.RootID, Target: r.ID}
		}
		data.Edges = append(data.Edges, edge)
	}
	data.Entries = []string{graph.RootID}

	found := cycles.Find(graph.FromData(data))
	cycles.Mark(data, found)
	graph.ApplyDepths(data)

	elapsed := time.Since(start)
	metrics.ExpandDuration.WithLabelValues(q.Name).Observe(elapsed.Seconds())
	metrics.GraphNodes.WithLabelValues(q.Name).Set(float64(len(data.Nodes)))
	logging.Debug("built graph",
		"query", q.Name, "direction", q.Direction.String(), "chunk", string(chunk),
		"roots", len(roots), "nodes", len(data.Nodes), "edges", len(data.Edges),
		"cycles", len(found), "durationMs", elapsed.Milliseconds())

	return data
}
