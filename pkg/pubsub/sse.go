package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/ritzau/bundle-compare/pkg/logging"
)

// ErrClosed is returned once the publisher has shut down
var ErrClosed = errors.New("publisher is closed")

// ReplayMode decides what a new subscriber receives from a topic's history
type ReplayMode int

const (
	ReplayNone   ReplayMode = iota // Live events only
	ReplayLatest                   // The most recent event, i.e. the current state
	ReplayAll                      // Everything kept in the history
)

// TopicConfig configures the history kept for a topic
type TopicConfig struct {
	History int // Events kept per topic, 0 keeps none
	Replay  ReplayMode
}

// subscriptionBuffer bounds the events queued per subscriber; publishers never block
const subscriptionBuffer = 100

type topicState struct {
	config      TopicConfig
	version     int
	history     []Event
	subscribers map[*sseSubscription]struct{}
}

func (t *topicState) record(event Event) {
	if t.config.History <= 0 {
		return
	}
	t.history = append(t.history, event)
	if n := len(t.history) - t.config.History; n > 0 {
		t.history = t.history[n:]
	}
}

func (t *topicState) replay() []Event {
	if len(t.history) == 0 {
		return nil
	}
	switch t.config.Replay {
	case ReplayAll:
		return append([]Event(nil), t.history...)
	case ReplayLatest:
		return []Event{t.history[len(t.history)-1]}
	default:
		return nil
	}
}

// SSEPublisher fans topic events out to Server-Sent Events subscribers
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topicState
	closed bool
}

// NewSSEPublisher creates a publisher with no configured topics
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topicState)}
}

// topic returns the state of a topic, creating it on first use. Callers hold mu.
func (p *SSEPublisher) topic(name string) *topicState {
	t, ok := p.topics[name]
	if !ok {
		t = &topicState{subscribers: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets the history kept for a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic(name).config = config
}

// Subscribe registers a subscriber and queues the topic's replay for it.
// The subscription closes when ctx is done.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}

	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriptionBuffer),
		publisher: p,
	}
	t := p.topic(name)
	t.subscribers[sub] = struct{}{}

	// Queue the replay before releasing the lock so live events cannot overtake it
	replayed := t.replay()
	for _, event := range replayed {
		select {
		case sub.events <- event:
		default:
			logging.Warn("could not replay event to new subscriber", "topic", name, "version", event.Version)
		}
	}
	p.mu.Unlock()

	if len(replayed) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", name, "events", len(replayed))
	}

	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()

	return sub, nil
}

// Publish encodes data once and delivers it to every subscriber of the topic.
// Subscribers that fall behind lose the event.
func (p *SSEPublisher) Publish(name string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	t := p.topic(name)
	t.version++
	event := Event{Topic: name, Type: eventType, Data: payload, Version: t.version}
	t.record(event)

	for sub := range t.subscribers {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscriber is behind, dropping event", "topic", name, "version", event.Version)
		}
	}
	return nil
}

// Close ends every subscription. It is safe to call more than once.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subscribers {
			close(sub.events)
		}
		t.subscribers = make(map[*sseSubscription]struct{})
	}
	return nil
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.topics[sub.topic]; ok {
		delete(t.subscribers, sub)
	}
}

type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
}

func (s *sseSubscription) Topic() string { return s.topic }

func (s *sseSubscription) Events() <-chan Event { return s.events }

func (s *sseSubscription) Close() error {
	s.once.Do(func() { s.publisher.unsubscribe(s) })
	return nil
}

// WriteSSE writes one event frame. The id line lets EventSource clients report
// the last version they saw.
func WriteSSE(w io.Writer, event Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", event.Version, frame)
	return err
}

// ServeSSE streams a topic to an HTTP client until the request is done or the
// publisher closes.
func ServeSSE(w http.ResponseWriter, r *http.Request, pub Publisher, topic string) {
	sub, err := pub.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer func() { _ = sub.Close() }()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	// Safari only opens the stream once something is written
	fmt.Fprint(w, ": connected\n\n")
	flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := WriteSSE(w, event); err != nil {
				logging.DebugContext(r.Context(), "client went away", "topic", topic, "error", err)
				return
			}
			flush()
		}
	}
}
