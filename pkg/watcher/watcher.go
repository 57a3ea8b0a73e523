package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/bundle-compare/pkg/logging"
	"github.com/ritzau/bundle-compare/pkg/metrics"
)

// ChangeType tells which build's stats file changed
type ChangeType int

const (
	ChangeTypePrevious ChangeType = iota
	ChangeTypeCurrent
)

func (t ChangeType) String() string {
	if t == ChangeTypePrevious {
		return "previous"
	}
	return "current"
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches the two stats files. Their directories are watched
// rather than the files so that editors and bundlers replacing the file by
// rename are noticed too.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]ChangeType // Absolute path -> build
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher for the previous and current stats files.
// An empty previous path watches the current build only.
func NewFileWatcher(previous, current string) (*FileWatcher, error) {
	files := make(map[string]ChangeType, 2)
	for path, kind := range map[string]ChangeType{previous: ChangeTypePrevious, current: ChangeTypeCurrent} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		files[abs] = kind
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		files:   files,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching. The event channel is closed when ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for path := range fw.files {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		logging.Debug("watching directory", "path", dir)
	}

	logging.Info("started watching stats files", "files", len(fw.files))

	go fw.processEvents(ctx)
	return nil
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			kind, watched := fw.files[filepath.Clean(event.Name)]
			if !watched {
				continue
			}

			metrics.WatcherEventsTotal.Inc()
			logging.Trace("stats file event", "path", event.Name, "op", event.Op.String())

			select {
			case fw.events <- ChangeEvent{Type: kind, Paths: []string{event.Name}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
