package hub

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const subscriberBuffer = 16

// Notice announces that a timeline was re-rendered, or failed to be.
type Notice struct {
	Seq        int64     `json:"seq"`
	Input      string    `json:"input"`
	RenderedAt time.Time `json:"rendered_at"`
	Operations int       `json:"operations"`
	Error      string    `json:"error,omitempty"`
}

// Hub receives notices and broadcasts them to all subscribers.
type Hub struct {
	input       <-chan Notice
	mu          sync.RWMutex
	subscribers map[chan Notice]struct{}
	dropped     int64
	latest      *Notice
	log         *zap.SugaredLogger
}

// New creates a Hub that reads from the input channel.
func New(input <-chan Notice, log *zap.SugaredLogger) *Hub {
	return &Hub{
		input:       input,
		subscribers: make(map[chan Notice]struct{}),
		log:         log,
	}
}

// Subscribe returns a buffered channel that will receive every notice, and a
// function that releases it. The most recent notice, if any, is delivered
// first so late subscribers know the current state.
func (h *Hub) Subscribe() (<-chan Notice, func()) {
	ch := make(chan Notice, subscriberBuffer)
	h.mu.Lock()
	if h.latest != nil {
		ch <- *h.latest
	}
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subscribers[ch]; ok {
				delete(h.subscribers, ch)
				close(ch)
			}
		})
	}
}

// Dropped returns the total number of notices dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Latest returns the most recent notice.
func (h *Hub) Latest() (Notice, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return Notice{}, false
	}
	return *h.latest, true
}

// Start broadcasts notices until the context is cancelled or the input
// channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-h.input:
			if !ok {
				return
			}
			h.broadcast(n)
		}
	}
}

// broadcast sends a notice to all subscribers.
// If a subscriber's channel is full, the notice is dropped for that subscriber.
func (h *Hub) broadcast(n Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = &n
	for ch := range h.subscribers {
		select {
		case ch <- n:
		default:
			h.dropped++
			h.log.Warnw("dropped notice for slow subscriber", "seq", n.Seq, "dropped_total", h.dropped)
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, ch)
	}
}
