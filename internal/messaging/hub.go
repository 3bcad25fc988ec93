package messaging

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/banshee-data/navmodel/internal/timeutil"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("hub closed")

// DefaultDepth is the subscriber channel buffer used when Subscribe is given a
// non-positive depth.
const DefaultDepth = 8

// Publisher sends events to a topic.
type Publisher interface {
	Publish(topic string, ev *Event) error
}

// Hub is an in-process publish/subscribe fan-out keyed by topic. Publishing
// never blocks: a subscriber whose buffer is full misses the event and the drop
// is counted.
type Hub struct {
	clock timeutil.Clock

	mu     sync.Mutex
	topics map[string]map[string]chan *Event
	owners map[string]string // subscriber id -> topic
	closed bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

var _ Publisher = (*Hub)(nil)

// NewHub creates a Hub stamping events with clock's monotonic time. A nil clock
// uses the real clock.
func NewHub(clock timeutil.Clock) *Hub {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Hub{
		clock:  clock,
		topics: make(map[string]map[string]chan *Event),
		owners: make(map[string]string),
	}
}

// Subscribe registers a buffered channel for topic. The id is used to
// Unsubscribe. Subscribing to a closed hub returns an already-closed channel so
// readers never block.
func (h *Hub) Subscribe(topic string, depth int) (string, <-chan *Event) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	id := uuid.NewString()
	ch := make(chan *Event, depth)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]chan *Event)
		h.topics[topic] = subs
	}
	subs[id] = ch
	h.owners[id] = topic
	return id, ch
}

// Unsubscribe closes and removes the subscriber channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	topic, ok := h.owners[id]
	if !ok {
		return
	}
	if ch, ok := h.topics[topic][id]; ok {
		close(ch)
		delete(h.topics[topic], id)
	}
	delete(h.owners, id)
}

// Publish fans ev out to every subscriber of topic. ev must not be modified
// afterwards.
func (h *Hub) Publish(topic string, ev *Event) error {
	if ev.LogMonoTime == 0 {
		ev.LogMonoTime = h.clock.MonoNanos()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.published.Add(1)
	for _, ch := range h.topics[topic] {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Subscribers returns the number of live subscribers on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}

// HubStats is a snapshot of hub counters.
type HubStats struct {
	Published uint64
	Dropped   uint64
}

// Stats returns the publish and drop counters.
func (h *Hub) Stats() HubStats {
	return HubStats{Published: h.published.Load(), Dropped: h.dropped.Load()}
}

// Close closes every subscriber channel. Further publishes fail with ErrClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for topic, subs := range h.topics {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(h.topics, topic)
	}
	h.owners = make(map[string]string)
	return nil
}
