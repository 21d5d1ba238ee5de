package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Kind labels a lifecycle notification.
type Kind string

const (
	KindHandlerRegistered Kind = "handler.registered"
	KindHandlerCancelled  Kind = "handler.cancelled"
	KindWorkerStopped     Kind = "worker.stopped"
	KindEventProcessed    Kind = "event.processed"
)

// Notification is one lifecycle occurrence: a handler registered or
// cancelled, a worker stopping, an event finishing its traversal.
type Notification struct {
	Seq      int64     `json:"seq"`
	Kind     Kind      `json:"kind"`
	At       time.Time `json:"at"`
	Listener string    `json:"listener,omitempty"`
	WorkerID string    `json:"worker_id,omitempty"`
	EventID  string    `json:"event_id,omitempty"`
}

// Hub is an in-memory pub/sub with a small ring buffer for late clients.
type Hub struct {
	nextSeq atomic.Int64

	mu    sync.Mutex
	ring  []Notification
	start int
	size  int

	subs      map[int]chan Notification
	nextSubID int
}

// NewHub builds a hub retaining the last capacity notifications.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		ring: make([]Notification, capacity),
		subs: make(map[int]chan Notification),
	}
}

// Publish stamps the notification with a sequence number and timestamp
// and fans it out. Slow subscribers are skipped, never blocked on.
func (h *Hub) Publish(n Notification) {
	n.Seq = h.nextSeq.Add(1)
	n.At = time.Now().UTC()

	h.mu.Lock()
	h.pushLocked(n)
	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
		}
	}
	h.mu.Unlock()
}

// Subscribe returns a channel of future notifications and a cancel
// function that closes it.
func (h *Hub) Subscribe() (<-chan Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Notification, 128)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// SnapshotSince returns buffered notifications with Seq > lastSeq,
// oldest-first. A lastSeq of 0 returns the full ring buffer.
func (h *Hub) SnapshotSince(lastSeq int64) []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Notification, 0, h.size)
	for i := 0; i < h.size; i++ {
		n := h.ring[(h.start+i)%len(h.ring)]
		if lastSeq == 0 || n.Seq > lastSeq {
			out = append(out, n)
		}
	}
	return out
}

func (h *Hub) pushLocked(n Notification) {
	capacity := len(h.ring)
	if capacity == 0 {
		return
	}

	if h.size < capacity {
		idx := (h.start + h.size) % capacity
		h.ring[idx] = n
		h.size++
		return
	}

	// Overwrite oldest.
	h.ring[h.start] = n
	h.start = (h.start + 1) % capacity
}
