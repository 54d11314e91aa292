package server

import (
	"sync"

	"github.com/wrsmith108/bingo-demo/internal/session"
)

// subscriberBuffer bounds the per-client queue. A client that falls behind
// loses intermediate snapshots, never the connection.
const subscriberBuffer = 8

// Hub fans game state changes out to websocket subscribers. The session
// controller's change callback feeds Publish; each websocket connection
// holds one subscription.
type Hub struct {
	mu   sync.Mutex
	subs map[chan session.Snapshot]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan session.Snapshot]struct{})}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cancel function. Cancel is idempotent and closes the channel.
func (h *Hub) Subscribe() (<-chan session.Snapshot, func()) {
	ch := make(chan session.Snapshot, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers snap to every subscriber. Slow subscribers drop the
// update rather than block the caller.
func (h *Hub) Publish(snap session.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Len reports the current subscriber count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
