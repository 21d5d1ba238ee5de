package manager_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/packetline/internal/audit"
	"github.com/mattjoyce/packetline/internal/dispatch"
	"github.com/mattjoyce/packetline/internal/event"
	"github.com/mattjoyce/packetline/internal/events"
	"github.com/mattjoyce/packetline/internal/listener"
	"github.com/mattjoyce/packetline/internal/manager"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *recordingSender) Send(ev *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ev.ID())
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newListener(name string, inbound func(*event.Event) error) listener.Listener {
	return &listener.Funcs{
		ListenerName: name,
		Owner:        &listener.Plugin{Name: name + "-plugin", Enabled: true},
		Inbound:      inbound,
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached within %v: %s", timeout, msg)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestRegisterAndLookup(t *testing.T) {
	m := manager.New(nil, nil, nil, dispatch.Options{Capacity: 8})

	h, err := m.Register(newListener("echo", nil))
	require.NoError(t, err)
	require.NotNil(t, h)

	got, ok := m.Handler("echo")
	assert.True(t, ok)
	assert.Equal(t, h, got)
	assert.Len(t, m.All(), 1)

	_, err = m.Register(newListener("echo", nil))
	assert.Error(t, err)
}

func TestUnregisterCancelsAndRemoves(t *testing.T) {
	m := manager.New(nil, nil, nil, dispatch.Options{Capacity: 8})

	h, err := m.Register(newListener("echo", nil))
	require.NoError(t, err)

	require.NoError(t, m.Unregister("echo"))
	assert.True(t, h.Cancelled())
	_, ok := m.Handler("echo")
	assert.False(t, ok)

	assert.Error(t, m.Unregister("echo"))
}

func TestCancelledHandlerIsReplacedOnReRegister(t *testing.T) {
	m := manager.New(nil, nil, nil, dispatch.Options{Capacity: 8})

	h1, err := m.Register(newListener("echo", nil))
	require.NoError(t, err)
	h1.Cancel()

	// A cancelled handler is never reused; re-registration makes a new one.
	h2, err := m.Register(newListener("echo", nil))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.False(t, h2.Cancelled())
}

func TestSubmitRunsChainAndSends(t *testing.T) {
	sender := &recordingSender{}
	hub := events.NewHub(16)
	m := manager.New(sender, hub, nil, dispatch.Options{Capacity: 8})

	var mu sync.Mutex
	var order []string
	record := func(name string) func(*event.Event) error {
		return func(*event.Event) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	first, err := m.Register(newListener("first", record("first")))
	require.NoError(t, err)
	second, err := m.Register(newListener("second", record("second")))
	require.NoError(t, err)
	require.NoError(t, first.Start())
	require.NoError(t, second.Start())

	ev := event.New(event.Inbound, []byte(`{"n":1}`), []event.Target{first, second})
	require.NoError(t, m.Submit(ev))

	waitUntil(t, 2*time.Second, func() bool { return sender.count() == 1 }, "event was not sent")

	mu.Lock()
	assert.Equal(t, []string{"first", "second"}, order)
	mu.Unlock()

	// The hub saw the completion.
	waitUntil(t, time.Second, func() bool {
		for _, n := range hub.SnapshotSince(0) {
			if n.Kind == events.KindEventProcessed && n.EventID == ev.ID() {
				return true
			}
		}
		return false
	}, "no event.processed notification")
}

func TestSubmitWithNoLiveTargetSignalsStraightThrough(t *testing.T) {
	sender := &recordingSender{}
	m := manager.New(sender, nil, nil, dispatch.Options{Capacity: 8})

	ev := event.New(event.Outbound, nil, nil)
	require.NoError(t, m.Submit(ev))
	assert.Equal(t, 1, sender.count())
}

func TestSubmitSkipsCancelledTargets(t *testing.T) {
	sender := &recordingSender{}
	m := manager.New(sender, nil, nil, dispatch.Options{Capacity: 8})

	dead, err := m.Register(newListener("dead", nil))
	require.NoError(t, err)
	dead.Cancel()

	ev := event.New(event.Inbound, nil, []event.Target{dead})
	require.NoError(t, m.Submit(ev))
	assert.Equal(t, 1, sender.count())
}

func TestActorGoneFromSenderIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: &event.ActorGoneError{Actor: "steve", Cause: errors.New("gone")}}
	m := manager.New(sender, nil, nil, dispatch.Options{Capacity: 8})

	// Must not panic or surface anywhere; the actor left, that's routine.
	m.SignalEventUpdate(event.New(event.Outbound, nil, nil))
	assert.Equal(t, 1, sender.count())
}

func TestScheduleTaskRejectsMissingOrDisabledPlugin(t *testing.T) {
	m := manager.New(nil, nil, nil, dispatch.Options{Capacity: 8})

	h, err := m.Register(newListener("echo", nil))
	require.NoError(t, err)

	assert.ErrorIs(t, m.ScheduleTask(nil, h.NewWorker()), dispatch.ErrNoOwningPlugin)

	disabled := &listener.Plugin{Name: "off", Enabled: false}
	assert.Error(t, m.ScheduleTask(disabled, h.NewWorker()))
}

func TestProcessingDoneWritesAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	al, err := audit.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = al.Close() })

	m := manager.New(nil, nil, al, dispatch.Options{Capacity: 8})

	ev := event.New(event.Inbound, []byte(`{"k":"v"}`), nil)
	m.SignalProcessingDone(ev)

	entries, err := al.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ev.ID(), entries[0].EventID)
}

func TestShutdownCancelsEverything(t *testing.T) {
	m := manager.New(nil, nil, nil, dispatch.Options{Capacity: 8})

	h1, err := m.Register(newListener("a", nil))
	require.NoError(t, err)
	h2, err := m.Register(newListener("b", nil))
	require.NoError(t, err)
	require.NoError(t, h1.Start())

	m.Shutdown()
	assert.True(t, h1.Cancelled())
	assert.True(t, h2.Cancelled())
	waitUntil(t, 2*time.Second, func() bool { return h1.Workers() == 0 }, "workers did not drain")
	assert.Empty(t, m.All())
}
