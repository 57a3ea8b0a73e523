package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/ritzau/bundle-compare/pkg/compare"
	"github.com/ritzau/bundle-compare/pkg/graph"
	"github.com/ritzau/bundle-compare/pkg/identifier"
	"github.com/ritzau/bundle-compare/pkg/index"
	"github.com/ritzau/bundle-compare/pkg/logging"
	"github.com/ritzau/bundle-compare/pkg/metrics"
	"github.com/ritzau/bundle-compare/pkg/pubsub"
	"github.com/ritzau/bundle-compare/pkg/query"
	"github.com/ritzau/bundle-compare/pkg/stats"
)

// GraphResponse is a full rooted graph
type GraphResponse struct {
	Hash       string `json:"hash"` // Pass as ?since= to receive a diff next time
	Generation int    `json:"generation"`
	*graph.Data
}

// SummaryResponse describes the loaded builds and their comparison
type SummaryResponse struct {
	Generation int               `json:"generation"`
	Previous   *pubsub.BuildInfo `json:"previous,omitempty"`
	Current    *pubsub.BuildInfo `json:"current"`
	Summary    compare.Summary   `json:"summary"`
	Largest    []compare.Record  `json:"largest"`
}

// state is a consistent view of the loaded builds for one request
type state struct {
	previous    *stats.Stats
	current     *stats.Stats
	previousIdx *index.Index
	currentIdx  *index.Index
	generation  int
}

func (s *Server) state() state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return state{
		previous:    s.previous,
		current:     s.current,
		previousIdx: s.previousIdx,
		currentIdx:  s.currentIdx,
		generation:  s.generation,
	}
}

// loadedState returns the builds, or writes 503 while nothing is loaded
func (s *Server) loadedState(w http.ResponseWriter) (state, bool) {
	st := s.state()
	if st.current == nil {
		writeError(w, http.StatusServiceUnavailable, "builds are not loaded yet")
		return st, false
	}
	return st, true
}

// chunkParam returns the requested chunk scope, or writes 404 for an unknown chunk
func (s *Server) chunkParam(w http.ResponseWriter, r *http.Request, st state) (stats.ChunkID, bool) {
	chunk := s.opts.Chunk
	if v, ok := r.URL.Query()["chunk"]; ok {
		chunk = stats.ChunkID(v[0])
	}
	if chunk == "" {
		return chunk, true
	}

	_, inCurrent := st.current.ChunkByID(chunk)
	inPrevious := false
	if st.previous != nil {
		_, inPrevious = st.previous.ChunkByID(chunk)
	}
	if !inCurrent && !inPrevious {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown chunk %q", chunk))
		return chunk, false
	}
	return chunk, true
}

func (s *Server) comparison(st state, chunk stats.ChunkID) *compare.Comparison {
	key := fmt.Sprintf("%d|%s", st.generation, chunk)
	if c, ok := s.comparisons.Get(key); ok {
		return c
	}
	c := compare.CompareIndexes(st.previousIdx, st.currentIdx, chunk)
	s.comparisons.Add(key, c)
	return c
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicBuildStatus && topic != pubsub.TopicComparison {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown topic %q", topic))
		return
	}
	pubsub.ServeSSE(w, r, s.publisher, topic)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadedState(w)
	if !ok {
		return
	}
	chunk, ok := s.chunkParam(w, r, st)
	if !ok {
		return
	}

	c := s.comparison(st, chunk)
	writeJSON(w, r, SummaryResponse{
		Generation: st.generation,
		Previous:   pubsub.Describe("", st.previous),
		Current:    pubsub.Describe("", st.current),
		Summary:    compare.Summarize(c),
		Largest:    compare.Largest(c, 10),
	})
}

func (s *Server) handleComparisons(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadedState(w)
	if !ok {
		return
	}
	chunk, ok := s.chunkParam(w, r, st)
	if !ok {
		return
	}

	var statuses []compare.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			status := compare.Status(strings.TrimSpace(name))
			switch status {
			case compare.StatusAdded, compare.StatusRemoved, compare.StatusChanged, compare.StatusUnchanged:
				statuses = append(statuses, status)
			default:
				writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", name))
				return
			}
		}
	}

	c := s.comparison(st, chunk)
	records := c.Records()
	if len(statuses) > 0 {
		records = c.Filter(statuses...)
	}
	if records == nil {
		records = []compare.Record{}
	}
	writeJSON(w, r, map[string]any{
		"chunk":   chunk,
		"records": records,
	})
}

func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadedState(w)
	if !ok {
		return
	}

	response := map[string][]stats.Chunk{
		"current":  nonNil(st.current.Chunks),
		"previous": {},
	}
	if st.previous != nil {
		response["previous"] = nonNil(st.previous.Chunks)
	}
	writeJSON(w, r, response)
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadedState(w)
	if !ok {
		return
	}
	writeJSON(w, r, st.currentIdx.Packages())
}

func (s *Server) handlePackageGraph(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadedState(w)
	if !ok {
		return
	}
	chunk, ok := s.chunkParam(w, r, st)
	if !ok {
		return
	}

	name := mux.Vars(r)["name"]
	if len(st.currentIdx.PackageModules(name)) == 0 && len(st.previousIdx.PackageModules(name)) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("package %q is not part of either build", name))
		return
	}

	key := fmt.Sprintf("package|%s|%s", name, chunk)
	s.serveGraph(w, r, st, key, func() query.Query { return query.PackageDependents(name) }, chunk)
}

func (s *Server) handleModuleGraph(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadedState(w)
	if !ok {
		return
	}

	rawID := r.URL.Query().Get("id")
	if rawID == "" {
		writeError(w, http.StatusBadRequest, "missing module id")
		return
	}
	dir, err := graph.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	chunk, ok := s.chunkParam(w, r, st)
	if !ok {
		return
	}

	root, found := query.FindModule(st.previousIdx, st.currentIdx, rawID)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("module %q is not part of either build", rawID))
		return
	}
	id := identifier.Normalize(rawID)

	// The query holds the root module of this generation's builds
	key := fmt.Sprintf("module|%d|%s|%s|%s", st.generation, id, dir, chunk)
	s.serveGraph(w, r, st, key, func() query.Query {
		if dir == graph.Dependencies {
			return query.ModuleDependencies(root)
		}
		return query.ModuleDependents(root)
	}, chunk)
}

// serveGraph answers from the cached view for key, creating it on first use.
// With ?since=<hash> the response is a diff against the graph served under that hash.
func (s *Server) serveGraph(w http.ResponseWriter, r *http.Request, st state, key string, newQuery func() query.Query, chunk stats.ChunkID) {
	view, ok := s.views.Get(key)
	if !ok {
		view = query.NewView(newQuery())
		s.views.Add(key, view)
	}

	d, built := view.Graph(query.Input{Previous: st.previous, Current: st.current, Chunk: chunk})
	if !built {
		metrics.GraphCacheHits.Inc()
	}

	hash := graph.Hash(d)
	if !s.snapshots.Contains(hash) {
		s.snapshots.Add(hash, graph.NewSnapshot(d))
	}

	if since := r.URL.Query().Get("since"); since != "" {
		old, found := s.snapshots.Get(since)
		if !found {
			logging.DebugContext(r.Context(), "unknown graph hash, sending full graph", "since", since)
		}
		writeJSON(w, r, graph.Diff(old, d))
		return
	}

	writeJSON(w, r, GraphResponse{Hash: hash, Generation: st.generation, Data: d})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	node := r.URL.Query().Get("node")
	if node == "" {
		writeError(w, http.StatusBadRequest, "missing node id")
		return
	}
	writeJSON(w, r, index.ResolveNode(node))
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
