package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ritzau/bundle-compare/pkg/analysis"
	"github.com/ritzau/bundle-compare/pkg/compare"
	"github.com/ritzau/bundle-compare/pkg/config"
	"github.com/ritzau/bundle-compare/pkg/cycles"
	"github.com/ritzau/bundle-compare/pkg/graph"
	"github.com/ritzau/bundle-compare/pkg/index"
	"github.com/ritzau/bundle-compare/pkg/logging"
	"github.com/ritzau/bundle-compare/pkg/output"
	"github.com/ritzau/bundle-compare/pkg/pubsub"
	"github.com/ritzau/bundle-compare/pkg/query"
	"github.com/ritzau/bundle-compare/pkg/stats"
	"github.com/ritzau/bundle-compare/pkg/watcher"
	"github.com/ritzau/bundle-compare/pkg/web"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("bundle-compare", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bundle-compare [flags] [previous.json] current.json\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	applyArgs(cfg, flags.Args())
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flags.Usage()
		os.Exit(2)
	}

	level, err := logging.LevelFromVerbosity(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logging.Setup(logging.Options{Level: level, JSON: cfg.Log.JSON})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WebMode {
		err = serve(ctx, cfg)
	} else {
		err = report(ctx, cfg)
	}
	if err != nil {
		logging.Error("bundle-compare failed", "error", err)
		os.Exit(1)
	}
}

// applyArgs lets the stats files be given positionally: one argument is the
// current build, two are the previous and the current build.
func applyArgs(cfg *config.Config, args []string) {
	switch len(args) {
	case 1:
		cfg.Current = args[0]
	case 2:
		cfg.Previous, cfg.Current = args[0], args[1]
	}
}

func runnerConfig(cfg *config.Config) analysis.Config {
	return analysis.Config{
		PreviousPath: cfg.Previous,
		CurrentPath:  cfg.Current,
		Exclude:      cfg.Exclude,
		Chunk:        stats.ChunkID(cfg.Chunk),
	}
}

// builds is the runner target in CLI mode. It keeps the loaded builds and
// drops the published events.
type builds struct {
	previous, current *stats.Stats
}

func (b *builds) Builds() (*stats.Stats, *stats.Stats) { return b.previous, b.current }

func (b *builds) SetBuilds(previous, current *stats.Stats) int {
	b.previous, b.current = previous, current
	return 1
}

func (b *builds) PublishBuildStatus(pubsub.BuildStatus) error     { return nil }
func (b *builds) PublishComparison(pubsub.ComparisonUpdate) error { return nil }

func report(ctx context.Context, cfg *config.Config) error {
	loaded := &builds{}
	runner := analysis.NewRunner(runnerConfig(cfg), loaded)
	if err := runner.Run(ctx, analysis.Options{ReloadPrevious: true, ReloadCurrent: true, Reason: "report"}); err != nil {
		return err
	}

	in := query.Input{Previous: loaded.previous, Current: loaded.current, Chunk: stats.ChunkID(cfg.Chunk)}

	var q *query.Query
	switch {
	case cfg.Package != "":
		pq := query.PackageDependents(cfg.Package)
		q = &pq
	case cfg.Module != "":
		root, ok := query.FindModule(index.New(in.Previous), index.New(in.Current), cfg.Module)
		if !ok {
			return fmt.Errorf("module %q is not part of either build", cfg.Module)
		}
		mq := query.ModuleDependents(root)
		if cfg.Dependencies {
			mq = query.ModuleDependencies(root)
		}
		q = &mq
	}

	if q == nil {
		c := compare.Compare(in.Previous, in.Current, in.Chunk)
		summary := compare.Summarize(c)
		largest := compare.Largest(c, cfg.Top)
		if cfg.Format == "json" {
			return output.WriteJSON(os.Stdout, map[string]any{"summary": summary, "largest": largest})
		}
		output.PrintComparisonReport(os.Stdout, output.Report{
			Previous: cfg.Previous,
			Current:  cfg.Current,
			Summary:  summary,
			Largest:  largest,
		})
		return nil
	}

	d := query.Run(in, *q)
	if cfg.Format == "json" {
		return output.WriteJSON(os.Stdout, d)
	}
	output.PrintGraphReport(os.Stdout, d, cycles.Find(graph.FromData(d)))
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	server, err := web.NewServer(web.Options{Chunk: stats.ChunkID(cfg.Chunk), CacheSize: cfg.Cache.Size})
	if err != nil {
		return err
	}
	runner := analysis.NewRunner(runnerConfig(cfg), server)

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx, cfg.Port)
	}()

	// Builds load in the background so the page can show progress
	go func() {
		if err := runner.Run(ctx, analysis.Options{ReloadPrevious: true, ReloadCurrent: true, Reason: "initial load"}); err != nil {
			logging.Error("initial load failed", "error", err)
		}
	}()

	if cfg.Watch {
		if err := watch(ctx, cfg, runner); err != nil {
			return err
		}
	}

	if cfg.OpenBrowser {
		time.Sleep(500 * time.Millisecond)
		openBrowser(url)
	}

	return <-errCh
}

func watch(ctx context.Context, cfg *config.Config, runner *analysis.Runner) error {
	fw, err := watcher.NewFileWatcher(cfg.Previous, cfg.Current)
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Start(ctx); err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}

	debouncer := watcher.NewDebouncer(fw.Events(), cfg.Debounce.Quiet(), cfg.Debounce.Max())
	debouncer.Start(ctx)
	go runner.Watch(ctx, debouncer.Output())

	logging.Info("watching stats files", "previous", cfg.Previous, "current", cfg.Current)
	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser", "platform", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
