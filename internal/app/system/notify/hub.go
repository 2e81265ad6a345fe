package notify

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 32

// Subscription receives the events routed to one user on one connection.
// C is closed when the subscription ends, either by Close or because the
// subscriber fell behind.
type Subscription struct {
	ID     string
	UserID string
	C      <-chan Event

	ch   chan Event
	hub  *Hub
	once sync.Once

	lagged atomic.Bool
}

// Lagged reports whether the hub dropped this subscription for falling behind.
func (s *Subscription) Lagged() bool { return s.lagged.Load() }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub routes events to subscriptions by user id. Delivery never blocks: a
// subscription whose buffer is full is closed and counted as dropped.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	closed bool
	log    *zap.Logger

	delivered atomic.Int64
	dropped   atomic.Int64
}

// NewHub creates a hub with the given per-subscription buffer (DefaultBuffer if <= 0).
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		log:    logger,
	}
}

// Subscribe registers a subscription for userID. On a closed hub the
// returned subscription's channel is already closed.
func (h *Hub) Subscribe(userID string) *Subscription {
	ch := make(chan Event, h.buffer)
	s := &Subscription{ID: uuid.NewString(), UserID: userID, C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.once.Do(func() { close(ch) })
		return s
	}
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[userID] = set
	}
	set[s] = struct{}{}
	return s
}

// Deliver routes ev to the owner's and every recipient's subscriptions.
func (h *Hub) Deliver(ev Event) {
	var slow []*Subscription

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	for _, uid := range ev.audience() {
		for s := range h.subs[uid] {
			select {
			case s.ch <- ev:
				h.delivered.Add(1)
			default:
				slow = append(slow, s)
			}
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.dropped.Add(1)
		s.lagged.Store(true)
		h.log.Warn("dropping slow alert subscriber",
			zap.String("user_id", s.UserID),
			zap.String("subscription_id", s.ID),
			zap.String("event", ev.Type),
			zap.String("alert_id", ev.AlertID))
		h.remove(s)
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}

// Stats returns the delivered and dropped counters.
func (h *Hub) Stats() (delivered, dropped int64) {
	return h.delivered.Load(), h.dropped.Load()
}

// Close ends every subscription. Later Deliver calls are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for uid, set := range h.subs {
		for s := range set {
			s.once.Do(func() { close(s.ch) })
		}
		delete(h.subs, uid)
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[s.UserID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.UserID)
		}
	}
	s.once.Do(func() { close(s.ch) })
}
