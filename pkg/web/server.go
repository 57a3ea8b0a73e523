package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ritzau/bundle-compare/pkg/compare"
	"github.com/ritzau/bundle-compare/pkg/graph"
	"github.com/ritzau/bundle-compare/pkg/index"
	"github.com/ritzau/bundle-compare/pkg/logging"
	"github.com/ritzau/bundle-compare/pkg/pubsub"
	"github.com/ritzau/bundle-compare/pkg/query"
	"github.com/ritzau/bundle-compare/pkg/stats"
)

//go:embed static/*
var staticFiles embed.FS

// Options configures the server
type Options struct {
	Chunk     stats.ChunkID // Default chunk scope when a request names none
	CacheSize int           // Graph views and snapshots kept in memory
}

// Server serves comparisons and rooted graphs of the loaded builds
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher
	opts      Options

	mu          sync.RWMutex
	previous    *stats.Stats
	current     *stats.Stats
	previousIdx *index.Index
	currentIdx  *index.Index
	generation  int // Increases every time the builds are replaced

	comparisons *lru.Cache[string, *compare.Comparison] // generation|chunk -> comparison
	views       *lru.Cache[string, *query.View]         // Rebuild themselves on new builds
	snapshots   *lru.Cache[string, *graph.Snapshot]     // Graph hash -> served graph
}

// NewServer creates a new web server
func NewServer(opts Options) (*Server, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}

	comparisons, err := lru.New[string, *compare.Comparison](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating comparison cache: %w", err)
	}
	views, err := lru.New[string, *query.View](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating view cache: %w", err)
	}
	snapshots, err := lru.New[string, *graph.Snapshot](opts.CacheSize * 4)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot cache: %w", err)
	}

	publisher := pubsub.NewSSEPublisher()
	// New subscribers only need the current state of each topic
	publisher.ConfigureTopic(pubsub.TopicBuildStatus, pubsub.TopicConfig{History: 10, Replay: pubsub.ReplayLatest})
	publisher.ConfigureTopic(pubsub.TopicComparison, pubsub.TopicConfig{History: 5, Replay: pubsub.ReplayLatest})

	s := &Server{
		router:      mux.NewRouter(),
		publisher:   publisher,
		opts:        opts,
		comparisons: comparisons,
		views:       views,
		snapshots:   snapshots,
	}
	s.setupRoutes()
	return s, nil
}

// Builds returns the loaded builds
func (s *Server) Builds() (previous, current *stats.Stats) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previous, s.current
}

// SetBuilds replaces the loaded builds and returns the new generation
func (s *Server) SetBuilds(previous, current *stats.Stats) int {
	previousIdx := index.New(previous)
	idx := index.New(current)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.previous = previous
	s.current = current
	s.previousIdx = previousIdx
	s.currentIdx = idx
	s.generation++
	s.comparisons.Purge()

	logging.Debug("builds replaced", "generation", s.generation, "modules", idx.Len())
	return s.generation
}

// PublishBuildStatus publishes a build status event
func (s *Server) PublishBuildStatus(status pubsub.BuildStatus) error {
	return s.publisher.Publish(pubsub.TopicBuildStatus, status.State, status)
}

// PublishComparison publishes a comparison summary event
func (s *Server) PublishComparison(update pubsub.ComparisonUpdate) error {
	return s.publisher.Publish(pubsub.TopicComparison, pubsub.EventComplete, update)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	s.router.HandleFunc("/api/summary", s.handleSummary).Methods("GET")
	s.router.HandleFunc("/api/comparisons", s.handleComparisons).Methods("GET")
	s.router.HandleFunc("/api/chunks", s.handleChunks).Methods("GET")
	s.router.HandleFunc("/api/packages", s.handlePackages).Methods("GET")
	s.router.HandleFunc("/api/graph/package/{name:.+}", s.handlePackageGraph).Methods("GET")
	s.router.HandleFunc("/api/graph/module", s.handleModuleGraph).Methods("GET")
	s.router.HandleFunc("/api/navigate", s.handleNavigate).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded assets missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// Start serves on the port until ctx is done
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.publisher.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("server shutdown", "error", err)
		}
	}()

	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving on port %d: %w", port, err)
	}
	return nil
}
