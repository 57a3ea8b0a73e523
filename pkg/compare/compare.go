package compare

import (
	"slices"
	"time"

	"github.com/ritzau/bundle-compare/pkg/index"
	"github.com/ritzau/bundle-compare/pkg/logging"
	"github.com/ritzau/bundle-compare/pkg/metrics"
	"github.com/ritzau/bundle-compare/pkg/stats"
)

// Comparison is the read-only result of comparing two builds. It holds exactly
// one record per normalized identifier present in either build within the
// chunk scope.
type Comparison struct {
	records map[string]Record
	ids     []string // sorted
	chunk   stats.ChunkID
}

// Compare compares a previous and a current build. A non-empty chunk restricts
// both builds to the modules belonging to that chunk; a module outside the chunk
// in one build counts as absent from that build.
func Compare(previous, current *stats.Stats, chunk stats.ChunkID) *Comparison {
	return CompareIndexes(index.New(previous), index.New(current), chunk)
}

// CompareIndexes is Compare over already indexed builds
func CompareIndexes(previous, current *index.Index, chunk stats.ChunkID) *Comparison {
	start := time.Now()

	c := &Comparison{
		records: make(map[string]Record),
		chunk:   chunk,
	}

	prevEntries := scoped(previous, chunk)
	curEntries := scoped(current, chunk)

	for id, prev := range prevEntries {
		c.records[id] = merge(prev, curEntries[id])
	}
	for id, cur := range curEntries {
		if _, done := c.records[id]; !done {
			c.records[id] = merge(nil, cur)
		}
	}

	c.ids = make([]string, 0, len(c.records))
	for id := range c.records {
		c.ids = append(c.ids, id)
	}
	slices.Sort(c.ids)

	elapsed := time.Since(start)
	metrics.CompareDuration.Observe(elapsed.Seconds())
	logging.Debug("compared builds",
		"previous", previous.Len(), "current", current.Len(),
		"chunk", string(chunk), "records", len(c.records), "durationMs", elapsed.Milliseconds())

	return c
}

// scoped returns the entries of a build that fall inside the chunk scope
func scoped(idx *index.Index, chunk stats.ChunkID) map[string]*index.Entry {
	entries := make(map[string]*index.Entry, idx.Len())
	for _, entry := range idx.Entries() {
		if entry.InChunk(chunk) {
			entries[entry.ID] = entry
		}
	}
	return entries
}

// Chunk returns the chunk scope the comparison was computed for
func (c *Comparison) Chunk() stats.ChunkID {
	return c.chunk
}

// Len returns the number of records
func (c *Comparison) Len() int {
	return len(c.records)
}

// Get returns a copy of the record for a normalized identifier
func (c *Comparison) Get(id string) (Record, bool) {
	r, ok := c.records[id]
	if !ok {
		return Record{}, false
	}
	return r.clone(), true
}

// Has reports whether a normalized identifier is part of the comparison
func (c *Comparison) Has(id string) bool {
	_, ok := c.records[id]
	return ok
}

// IDs returns all normalized identifiers, sorted
func (c *Comparison) IDs() []string {
	return slices.Clone(c.ids)
}

// Records returns copies of all records sorted by identifier
func (c *Comparison) Records() []Record {
	out := make([]Record, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.records[id].clone())
	}
	return out
}

// Filter returns the records with any of the given statuses, sorted by identifier
func (c *Comparison) Filter(statuses ...Status) []Record {
	var out []Record
	for _, id := range c.ids {
		r := c.records[id]
		if slices.Contains(statuses, r.Status) {
			out = append(out, r.clone())
		}
	}
	return out
}
