package dispatch

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattjoyce/packetline/internal/event"
	"github.com/mattjoyce/packetline/internal/listener"
)

//go:generate mockgen -destination=mocks/mock_collaborator.go -package=mocks github.com/mattjoyce/packetline/internal/dispatch Collaborator

// Collaborator is the scheduling side of the dispatch core. The handler
// never creates goroutines itself; it asks the collaborator to run
// workers, and hands fully-processed events back through the signal
// methods.
type Collaborator interface {
	// ScheduleTask arranges for the worker to run on a new goroutine
	// under the given owning plugin.
	ScheduleTask(owner *listener.Plugin, w *Worker) error
	// SignalEventUpdate declares the event's payload may have changed and
	// should be applied downstream.
	SignalEventUpdate(ev *event.Event)
	// SignalProcessingDone declares an event fully processed by its chain.
	SignalProcessingDone(ev *event.Event)
	// UnregisterHandler removes bookkeeping for a handler that cancelled.
	UnregisterHandler(h *Handler)
	// Logger is the sink for non-fatal listener callback errors.
	Logger() *slog.Logger
}

// itemKind tags entries in the handler queue so sentinel detection is a
// type match, never a reference comparison.
type itemKind int

const (
	// itemReal carries an event for a listener callback.
	itemReal itemKind = iota
	// itemInterrupt stops exactly one worker, permanently.
	itemInterrupt
	// itemWake forces workers to re-check stop state without being
	// processed.
	itemWake
)

type queueItem struct {
	kind itemKind
	ev   *event.Event
}

const (
	// DefaultCapacity bounds the work queue when Options does not say
	// otherwise.
	DefaultCapacity = 1024

	// DefaultConvergeTimeout bounds how long SetWorkers chases its
	// target before giving up.
	DefaultConvergeTimeout = time.Second
)

// Options tunes a handler at construction.
type Options struct {
	// Capacity is the bounded queue size. Zero means DefaultCapacity.
	Capacity int
	// ConvergeTimeout bounds SetWorkers. Zero means
	// DefaultConvergeTimeout.
	ConvergeTimeout time.Duration
	// ProducerGoroutine is the goroutine id worker loops must never run
	// on. Zero means the goroutine calling NewHandler.
	ProducerGoroutine uint64
}

// Handler is the dispatch unit owned by one listener: its bounded work
// queue, its live workers, and the resize/cancel protocol between them.
type Handler struct {
	listener listener.Listener
	collab   Collaborator

	capacity        int
	convergeTimeout time.Duration
	producerID      uint64

	queue chan queueItem

	cancelled atomic.Bool
	started   atomic.Int64

	// mu guards pendingStop; converge is signalled whenever a pending
	// stop drains, a worker enters or leaves the loop, or the handler
	// cancels.
	mu          sync.Mutex
	converge    *sync.Cond
	pendingStop map[string]struct{}

	// opMu serializes the check-and-act sequences in Start, Stop and
	// SetWorkers so concurrent resizes do not under- or over-shoot.
	opMu sync.Mutex
}

// NewHandler builds a dispatch unit for the given listener. The handler
// is live until Cancel; a cancelled handler must be replaced, never
// reused.
func NewHandler(l listener.Listener, collab Collaborator, opts Options) (*Handler, error) {
	if l == nil {
		return nil, fmt.Errorf("dispatch: listener is nil")
	}
	if collab == nil {
		return nil, fmt.Errorf("dispatch: collaborator is nil")
	}

	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	timeout := opts.ConvergeTimeout
	if timeout <= 0 {
		timeout = DefaultConvergeTimeout
	}
	producer := opts.ProducerGoroutine
	if producer == 0 {
		producer = goid()
	}

	h := &Handler{
		listener:        l,
		collab:          collab,
		capacity:        capacity,
		convergeTimeout: timeout,
		producerID:      producer,
		queue:           make(chan queueItem, capacity),
		pendingStop:     make(map[string]struct{}),
	}
	h.converge = sync.NewCond(&h.mu)
	return h, nil
}

// Name returns the owning listener's name.
func (h *Handler) Name() string { return h.listener.Name() }

// Listener returns the listener this handler dispatches to.
func (h *Handler) Listener() listener.Listener { return h.listener }

// Capacity returns the bounded queue size.
func (h *Handler) Capacity() int { return h.capacity }

// Cancelled reports whether the handler has been cancelled.
func (h *Handler) Cancelled() bool { return h.cancelled.Load() }

// Workers returns the last-observed started worker count. It may be
// stale the instant it returns; treat it as advisory.
func (h *Handler) Workers() int { return int(h.started.Load()) }

// Enqueue adds an event to the work queue without blocking. It returns
// ErrQueueFull when the queue is at capacity.
func (h *Handler) Enqueue(ev *event.Event) error {
	if ev == nil {
		return fmt.Errorf("dispatch: event is nil")
	}
	return h.offer(queueItem{kind: itemReal, ev: ev})
}

func (h *Handler) offer(it queueItem) error {
	select {
	case h.queue <- it:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start asks the collaborator to run one new worker against this
// handler.
func (h *Handler) Start() error {
	h.opMu.Lock()
	defer h.opMu.Unlock()
	return h.startOne()
}

// StartCount starts n new workers.
func (h *Handler) StartCount(n int) error {
	h.opMu.Lock()
	defer h.opMu.Unlock()
	for i := 0; i < n; i++ {
		if err := h.startOne(); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) startOne() error {
	if h.listener.Plugin() == nil {
		return ErrNoOwningPlugin
	}
	if h.cancelled.Load() {
		return ErrAlreadyCancelled
	}
	return h.collab.ScheduleTask(h.listener.Plugin(), h.NewWorker())
}

// Stop enqueues one interrupt sentinel; it stops exactly one current or
// future worker. Stopping more workers than are live is tolerated, the
// excess sentinels are consumed by workers that then exit. Note the
// package lifecycle policy: one worker stopping cancels the whole
// handler.
func (h *Handler) Stop() error {
	h.opMu.Lock()
	defer h.opMu.Unlock()
	return h.offer(queueItem{kind: itemInterrupt})
}

// StopCount enqueues n interrupt sentinels.
func (h *Handler) StopCount(n int) error {
	h.opMu.Lock()
	defer h.opMu.Unlock()
	for i := 0; i < n; i++ {
		if err := h.offer(queueItem{kind: itemInterrupt}); err != nil {
			return err
		}
	}
	return nil
}

// SetWorkers drives the live worker count toward n, one start or stop at
// a time. It is not atomic with respect to concurrent SetWorkers calls
// on the same handler; callers serialize their own resize intents or
// tolerate racing toward a shared target. ErrConvergeTimeout is returned
// when the count does not settle within the convergence window.
func (h *Handler) SetWorkers(n int) error {
	if n < 0 || n > h.capacity {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrWorkerCount, n, h.capacity)
	}
	if h.cancelled.Load() && n > 0 {
		return ErrAlreadyCancelled
	}

	deadline := time.Now().Add(h.convergeTimeout)
	for {
		cur := h.Workers()
		if cur == n {
			return nil
		}
		if h.cancelled.Load() && n > 0 {
			// Cancellation won the race; fail fast rather than spin.
			return ErrAlreadyCancelled
		}

		var err error
		if cur < n {
			err = h.Start()
		} else {
			err = h.Stop()
		}
		if err != nil {
			return err
		}
		if !h.waitCountChanged(cur, deadline) {
			return ErrConvergeTimeout
		}
	}
}

// waitCountChanged polls until the started count moves off prev or the
// deadline passes.
func (h *Handler) waitCountChanged(prev int, deadline time.Time) bool {
	for h.Workers() == prev {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(2 * time.Millisecond)
	}
	return true
}

// Cancel closes the handler: it unregisters from the collaborator,
// clears the queue, and emits enough interrupt sentinels to stop every
// started worker. Idempotent and safe to call from any goroutine,
// including from inside a worker loop.
func (h *Handler) Cancel() {
	if !h.cancelled.CompareAndSwap(false, true) {
		return
	}

	h.collab.UnregisterHandler(h)

	// Poison pill shutdown: drop pending work, then one interrupt per
	// started worker.
	h.drainQueue()
	live := h.started.Load()
	for i := int64(0); i < live; i++ {
		_ = h.offer(queueItem{kind: itemInterrupt})
	}

	// Release anyone blocked in a stop convergence wait.
	h.mu.Lock()
	h.converge.Broadcast()
	h.mu.Unlock()
}

func (h *Handler) drainQueue() {
	for {
		select {
		case <-h.queue:
		default:
			return
		}
	}
}

// waitForStopsLocked blocks until every pending stop has drained or the
// handler cancels. Call with mu held; reports whether the handler was
// cancelled.
func (h *Handler) waitForStopsLocked() bool {
	for len(h.pendingStop) > 0 && !h.cancelled.Load() {
		h.converge.Wait()
	}
	return h.cancelled.Load()
}

func (h *Handler) pluginName() string {
	if p := h.listener.Plugin(); p != nil {
		return p.Name
	}
	return h.listener.Name()
}

var _ event.Target = (*Handler)(nil)
