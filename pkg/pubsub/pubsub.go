package pubsub

import (
	"context"
	"encoding/json"

	"github.com/ritzau/bundle-compare/pkg/stats"
)

// Topics published by the analysis runner
const (
	TopicBuildStatus = "build_status" // Loading state of the two builds
	TopicComparison  = "comparison"   // Summary of the latest comparison
)

// Event types
const (
	EventLoading  = "loading"
	EventReady    = "ready"
	EventFailed   = "failed"
	EventComplete = "complete"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // Per topic, increases by one per publish
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation will close the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	Close() error
}

// BuildInfo describes one loaded stats file
type BuildInfo struct {
	Path    string `json:"path"`
	Hash    string `json:"hash,omitempty"`
	Modules int    `json:"modules"`
	Bytes   int64  `json:"bytes"`
}

// BuildStatus is the payload of TopicBuildStatus
type BuildStatus struct {
	State    string     `json:"state"` // loading, ready or failed
	Message  string     `json:"message"`
	Reason   string     `json:"reason,omitempty"` // What triggered the load
	Previous *BuildInfo `json:"previous,omitempty"`
	Current  *BuildInfo `json:"current,omitempty"`
}

// ComparisonUpdate is the payload of TopicComparison
type ComparisonUpdate struct {
	Added     int   `json:"added"`
	Removed   int   `json:"removed"`
	Changed   int   `json:"changed"`
	Unchanged int   `json:"unchanged"`
	Delta     int64 `json:"delta"`
	Version   int   `json:"version"` // Builds generation the summary belongs to
}

// Describe summarizes a loaded build. A nil build yields nil.
func Describe(path string, s *stats.Stats) *BuildInfo {
	if s == nil {
		return nil
	}
	return &BuildInfo{
		Path:    path,
		Hash:    s.Hash,
		Modules: len(s.Modules),
		Bytes:   s.TotalSize(),
	}
}
