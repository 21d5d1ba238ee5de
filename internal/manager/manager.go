// Package manager is the scheduling collaborator for dispatch handlers:
// it owns the registry of listeners, runs workers on goroutines under
// their owning plugin, and receives the processing-done and
// event-update signals when a traversal completes.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mattjoyce/packetline/internal/audit"
	"github.com/mattjoyce/packetline/internal/dispatch"
	"github.com/mattjoyce/packetline/internal/event"
	"github.com/mattjoyce/packetline/internal/events"
	"github.com/mattjoyce/packetline/internal/listener"
	"github.com/mattjoyce/packetline/internal/log"
)

// Sender is the transmission boundary: it applies a fully-processed
// event downstream. An ActorGoneError from Send means the target
// disconnected while the event was in flight; that is routine and not
// treated as a failure.
type Sender interface {
	Send(ev *event.Event) error
}

// Manager implements dispatch.Collaborator. One manager serves many
// listeners; each registration gets a fresh dispatch handler.
type Manager struct {
	logger *slog.Logger
	sender Sender
	hub    *events.Hub
	audit  *audit.Log
	opts   dispatch.Options

	mu       sync.Mutex
	handlers map[string]*dispatch.Handler
}

// New builds a manager. sender, hub and auditLog may each be nil; the
// corresponding signal side effects are skipped. The goroutine calling
// New is recorded as the producer goroutine worker loops must never run
// on.
func New(sender Sender, hub *events.Hub, auditLog *audit.Log, opts dispatch.Options) *Manager {
	if opts.ProducerGoroutine == 0 {
		opts.ProducerGoroutine = dispatch.CurrentGoroutine()
	}
	return &Manager{
		logger:   log.WithComponent("manager"),
		sender:   sender,
		hub:      hub,
		audit:    auditLog,
		opts:     opts,
		handlers: make(map[string]*dispatch.Handler),
	}
}

// Register creates a dispatch handler for the listener and records it
// under the listener's name. Registering a name twice is an error; a
// cancelled handler is never resurrected, unregister and register again
// for a fresh one.
func (m *Manager) Register(l listener.Listener) (*dispatch.Handler, error) {
	if l == nil {
		return nil, fmt.Errorf("manager: listener is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.handlers[l.Name()]; exists {
		return nil, fmt.Errorf("manager: listener %q already registered", l.Name())
	}

	h, err := dispatch.NewHandler(l, m, m.opts)
	if err != nil {
		return nil, err
	}
	m.handlers[l.Name()] = h

	m.publish(events.Notification{Kind: events.KindHandlerRegistered, Listener: l.Name()})
	m.logger.Info("listener registered", "listener", l.Name(), "capacity", h.Capacity())
	return h, nil
}

// Unregister cancels the named listener's handler.
func (m *Manager) Unregister(name string) error {
	m.mu.Lock()
	h, ok := m.handlers[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("manager: listener %q not registered", name)
	}
	h.Cancel() // the cancel path removes the bookkeeping
	return nil
}

// Handler looks up a live handler by listener name.
func (m *Manager) Handler(name string) (*dispatch.Handler, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handlers[name]
	return h, ok
}

// All returns the registered handlers sorted by listener name.
func (m *Manager) All() []*dispatch.Handler {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*dispatch.Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Submit hands a producer event to the first live handler in its
// traversal. An event whose traversal holds no live handler is signalled
// straight through as updated and done.
func (m *Manager) Submit(ev *event.Event) error {
	if ev == nil {
		return fmt.Errorf("manager: event is nil")
	}
	for {
		next, ok := ev.Marker().Next()
		if !ok {
			break
		}
		if next.Cancelled() {
			continue
		}
		return next.Enqueue(ev)
	}
	m.SignalEventUpdate(ev)
	m.SignalProcessingDone(ev)
	return nil
}

// Shutdown cancels every registered handler and waits for nothing: the
// cancel protocol itself drains the workers.
func (m *Manager) Shutdown() {
	for _, h := range m.All() {
		h.Cancel()
	}
}

// ScheduleTask runs the worker on a new goroutine under the owning
// plugin. Part of the dispatch.Collaborator contract.
func (m *Manager) ScheduleTask(owner *listener.Plugin, w *dispatch.Worker) error {
	if owner == nil {
		return dispatch.ErrNoOwningPlugin
	}
	if !owner.Enabled {
		return fmt.Errorf("manager: plugin %q is disabled", owner.Name)
	}

	go func() {
		if err := w.Run(); err != nil {
			m.logger.Error("worker loop ended with error",
				"plugin", owner.Name, "worker_id", w.ID(), "error", err)
		}
		m.publish(events.Notification{
			Kind:     events.KindWorkerStopped,
			WorkerID: w.ID(),
		})
	}()
	return nil
}

// SignalEventUpdate applies the possibly-rewritten event downstream.
// Part of the dispatch.Collaborator contract.
func (m *Manager) SignalEventUpdate(ev *event.Event) {
	if m.sender == nil {
		return
	}
	if err := m.sender.Send(ev); err != nil {
		if event.IsActorGone(err) {
			m.logger.Debug("dropping event for departed actor",
				"event_id", ev.ID(), "error", err)
			return
		}
		m.logger.Error("failed to apply updated event",
			"event_id", ev.ID(), "direction", ev.Direction().String(), "error", err)
	}
}

// SignalProcessingDone records the event as fully processed. Part of the
// dispatch.Collaborator contract.
func (m *Manager) SignalProcessingDone(ev *event.Event) {
	if m.audit != nil {
		if err := m.audit.Record(context.Background(), ev); err != nil {
			m.logger.Error("failed to record processed event",
				"event_id", ev.ID(), "error", err)
		}
	}
	m.publish(events.Notification{
		Kind:    events.KindEventProcessed,
		EventID: ev.ID(),
	})
}

// UnregisterHandler drops the bookkeeping for a cancelled handler. Part
// of the dispatch.Collaborator contract.
func (m *Manager) UnregisterHandler(h *dispatch.Handler) {
	m.mu.Lock()
	if cur, ok := m.handlers[h.Name()]; ok && cur == h {
		delete(m.handlers, h.Name())
	}
	m.mu.Unlock()

	m.publish(events.Notification{Kind: events.KindHandlerCancelled, Listener: h.Name()})
	m.logger.Info("listener handler cancelled", "listener", h.Name())
}

// Logger is the sink for non-fatal callback errors. Part of the
// dispatch.Collaborator contract.
func (m *Manager) Logger() *slog.Logger { return m.logger }

func (m *Manager) publish(n events.Notification) {
	if m.hub != nil {
		m.hub.Publish(n)
	}
}

var _ dispatch.Collaborator = (*Manager)(nil)
