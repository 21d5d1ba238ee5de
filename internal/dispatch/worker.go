package dispatch

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mattjoyce/packetline/internal/event"
)

// Worker state machine: NotStarted -> Running -> Stopped. There is no
// way back; a stopped worker is discarded and a fresh one created.
const (
	workerNotStarted int32 = iota
	workerRunning
	workerStopped
)

// Worker runs one handler loop on one goroutine. Each worker may run
// exactly once; its identity is assigned on the first Run call.
type Worker struct {
	h     *Handler
	state atomic.Int32
	id    string
}

// NewWorker returns a fresh worker bound to this handler. Never call its
// Run method on the producer goroutine.
func (h *Handler) NewWorker() *Worker {
	return &Worker{h: h}
}

// ID returns the worker identity, or "" before the first Run.
func (w *Worker) ID() string { return w.id }

// Running reports whether the worker loop is currently executing.
func (w *Worker) Running() bool { return w.state.Load() == workerRunning }

// Run executes the handler loop until a sentinel or cancellation ends
// it. A second call, concurrent or after completion, returns
// ErrAlreadyStarted.
func (w *Worker) Run() error {
	// Identity assignment is ordered against Stop by mu, so a stop can
	// never observe a running worker without an id.
	w.h.mu.Lock()
	if !w.state.CompareAndSwap(workerNotStarted, workerRunning) {
		w.h.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.id = uuid.NewString()
	w.h.mu.Unlock()

	err := w.h.loop(w.id)

	w.h.mu.Lock()
	delete(w.h.pendingStop, w.id)
	w.state.Store(workerStopped)
	w.h.converge.Broadcast()
	w.h.mu.Unlock()
	return err
}

// Stop marks this specific worker for shutdown, wakes every live worker
// so the right one notices, and blocks until the stop takes effect or
// the handler cancels. Returns false if the worker was not running.
// Stopping an arbitrary worker with Handler.Stop is cheaper.
func (w *Worker) Stop() bool {
	h := w.h
	h.mu.Lock()
	defer h.mu.Unlock()

	if w.state.Load() != workerRunning {
		return false
	}
	h.pendingStop[w.id] = struct{}{}

	// One wake per live worker. A full queue swallows the wakes; the
	// stop then takes effect only once a wake or interrupt actually
	// reaches this worker, so it may process queued events first.
	for i := 0; i < h.Workers(); i++ {
		_ = h.offer(queueItem{kind: itemWake})
	}

	h.waitForStopsLocked()
	return true
}

// loop is the main processing cycle. It runs inside a worker goroutine
// and is the only place events are consumed.
func (h *Handler) loop(workerID string) error {
	if goid() == h.producerID {
		panic("dispatch: worker loop invoked on the producer goroutine")
	}
	if h.cancelled.Load() {
		return ErrAlreadyCancelled
	}

	// A new worker defers to any stop convergence already in progress so
	// a resize race cannot leave too many workers briefly active. A
	// worker already marked for stop never does any work.
	h.mu.Lock()
	if _, stopping := h.pendingStop[workerID]; stopping {
		h.mu.Unlock()
		// Stopped before doing any work; a stop still closes the unit.
		h.Cancel()
		return nil
	}
	if cancelled := h.waitForStopsLocked(); cancelled {
		h.mu.Unlock()
		return nil
	}
	h.started.Add(1)
	h.mu.Unlock()

	defer func() {
		h.started.Add(-1)
		// A handler with zero active attention is closed: any worker
		// exiting tears down the whole unit. See the package doc.
		h.Cancel()
	}()

mainLoop:
	for !h.cancelled.Load() {
		it := <-h.queue

		switch it.kind {
		case itemInterrupt:
			return nil
		case itemWake:
			h.mu.Lock()
			if _, stop := h.pendingStop[workerID]; stop {
				h.mu.Unlock()
				return nil
			}
			cancelled := h.waitForStopsLocked()
			h.mu.Unlock()
			if cancelled {
				return nil
			}
			continue
		}

		ev := it.ev
		if ev == nil {
			// Markerless item, treat like an interrupt.
			return nil
		}

		ev.Claim(h, workerID)
		h.invokeCallback(ev, workerID)

		// Forward to the next live handler in the traversal. A cancelled
		// mid-chain handler is treated as absent, not as an error.
		for {
			next, ok := ev.Marker().Next()
			if !ok {
				break
			}
			if next.Cancelled() {
				continue
			}
			if err := next.Enqueue(ev); err != nil {
				h.collab.Logger().Error("failed to forward event to next handler",
					"listener", h.Name(),
					"next", next.Name(),
					"event_id", ev.ID(),
					"error", err)
				return fmt.Errorf("forward event to %q: %w", next.Name(), err)
			}
			continue mainLoop
		}

		// Traversal exhausted: the event leaves this chain. Update before
		// done, always in that order.
		h.collab.SignalEventUpdate(ev)
		h.collab.SignalProcessingDone(ev)
	}
	return nil
}

// invokeCallback runs the direction-appropriate listener callback.
// Errors and panics are logged against the owning plugin and never
// propagate; one misbehaving listener must not halt the pool.
func (h *Handler) invokeCallback(ev *event.Event, workerID string) {
	defer func() {
		if r := recover(); r != nil {
			h.collab.Logger().Error("listener callback panicked",
				"plugin", h.pluginName(),
				"listener", h.listener.Name(),
				"worker_id", workerID,
				"direction", ev.Direction().String(),
				"panic", r)
		}
	}()

	var err error
	if ev.Direction() == event.Outbound {
		err = h.listener.OnOutbound(ev)
	} else {
		err = h.listener.OnInbound(ev)
	}
	if err != nil {
		h.collab.Logger().Error("unhandled error in listener callback",
			"plugin", h.pluginName(),
			"listener", h.listener.Name(),
			"worker_id", workerID,
			"direction", ev.Direction().String(),
			"error", err)
	}
}
