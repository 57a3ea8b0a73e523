package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ritzau/bundle-compare/pkg/compare"
	"github.com/ritzau/bundle-compare/pkg/logging"
	"github.com/ritzau/bundle-compare/pkg/metrics"
	"github.com/ritzau/bundle-compare/pkg/pubsub"
	"github.com/ritzau/bundle-compare/pkg/stats"
	"github.com/ritzau/bundle-compare/pkg/watcher"
	"golang.org/x/sync/errgroup"
)

// Target receives loaded builds and status updates, normally the web server
type Target interface {
	Builds() (previous, current *stats.Stats)
	SetBuilds(previous, current *stats.Stats) int
	PublishBuildStatus(status pubsub.BuildStatus) error
	PublishComparison(update pubsub.ComparisonUpdate) error
}

// Config names the stats files and how to filter them
type Config struct {
	PreviousPath string // Empty compares the current build against nothing
	CurrentPath  string
	Exclude      []string
	Chunk        stats.ChunkID
}

// Options selects which builds a run reloads
type Options struct {
	ReloadPrevious bool
	ReloadCurrent  bool
	Reason         string // e.g. "initial load", "current stats changed"
}

// Runner loads builds and hands them to the target. Runs are serialized.
type Runner struct {
	cfg    Config
	target Target
	mu     sync.Mutex
}

// NewRunner creates a new runner
func NewRunner(cfg Config, target Target) *Runner {
	return &Runner{cfg: cfg, target: target}
}

// Run reloads the selected builds. On failure the previously loaded builds
// stay in place and a failed status is published.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	logging.Info("loading builds", "reason", opts.Reason,
		"previous", opts.ReloadPrevious, "current", opts.ReloadCurrent)
	r.publishStatus(pubsub.BuildStatus{State: pubsub.EventLoading, Message: "Loading stats...", Reason: opts.Reason})

	previous, current := r.target.Builds()

	g, gctx := errgroup.WithContext(ctx)
	if opts.ReloadPrevious && r.cfg.PreviousPath != "" {
		g.Go(func() error {
			s, err := r.load(gctx, "previous", r.cfg.PreviousPath)
			previous = s
			return err
		})
	}
	if opts.ReloadCurrent {
		g.Go(func() error {
			s, err := r.load(gctx, "current", r.cfg.CurrentPath)
			current = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		r.publishStatus(pubsub.BuildStatus{State: pubsub.EventFailed, Message: err.Error(), Reason: opts.Reason})
		return err
	}
	if current == nil {
		err := errors.New("current build is not loaded")
		r.publishStatus(pubsub.BuildStatus{State: pubsub.EventFailed, Message: err.Error(), Reason: opts.Reason})
		return err
	}

	generation := r.target.SetBuilds(previous, current)

	summary := compare.Summarize(compare.Compare(previous, current, r.cfg.Chunk))
	if err := r.target.PublishComparison(pubsub.ComparisonUpdate{
		Added:     summary.Added,
		Removed:   summary.Removed,
		Changed:   summary.Changed,
		Unchanged: summary.Unchanged,
		Delta:     summary.Delta(),
		Version:   generation,
	}); err != nil {
		logging.Warn("failed to publish comparison", "error", err)
	}

	r.publishStatus(pubsub.BuildStatus{
		State:    pubsub.EventReady,
		Message:  "Builds loaded",
		Reason:   opts.Reason,
		Previous: pubsub.Describe(r.cfg.PreviousPath, previous),
		Current:  pubsub.Describe(r.cfg.CurrentPath, current),
	})

	logging.Info("builds loaded", "reason", opts.Reason, "generation", generation,
		"added", summary.Added, "removed", summary.Removed, "changed", summary.Changed,
		"delta", summary.Delta(), "durationMs", time.Since(start).Milliseconds())
	return nil
}

func (r *Runner) load(ctx context.Context, build, path string) (*stats.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := stats.Load(path)
	if err == nil {
		s, err = stats.Exclude(s, r.cfg.Exclude)
	}
	if err != nil {
		metrics.ReloadsTotal.WithLabelValues(build, "error").Inc()
		return nil, fmt.Errorf("%s build: %w", build, err)
	}

	metrics.ReloadsTotal.WithLabelValues(build, "ok").Inc()
	logging.Debug("loaded stats", "build", build, "path", path, "modules", len(s.Modules))
	return s, nil
}

func (r *Runner) publishStatus(status pubsub.BuildStatus) {
	if err := r.target.PublishBuildStatus(status); err != nil {
		logging.Warn("failed to publish build status", "state", status.State, "error", err)
	}
}

// Watch reloads builds for every debounced change until the channel closes
// or ctx is done. Failed reloads are logged and the previous builds kept.
func (r *Runner) Watch(ctx context.Context, events <-chan watcher.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			changes := watcher.AnalyzeChanges(event)
			if !changes.NeedsReload() {
				continue
			}
			err := r.Run(ctx, Options{
				ReloadPrevious: changes.ReloadPrevious,
				ReloadCurrent:  changes.ReloadCurrent,
				Reason:         fmt.Sprintf("%s stats changed", event.Type),
			})
			if err != nil {
				logging.Warn("reload failed, keeping loaded builds", "error", err)
			}
		}
	}
}
