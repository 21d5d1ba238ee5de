// Package listener defines the observer contract: the callbacks a
// registered listener exposes and the owning plugin identity its workers
// are scheduled under.
package listener

import (
	"github.com/mattjoyce/packetline/internal/event"
)

// Plugin is the owning process a listener belongs to. Worker goroutines
// run under this identity and callback failures are logged against its
// name.
type Plugin struct {
	Name    string
	Enabled bool
}

// Listener processes events off the producer goroutine. Callback errors
// are logged by the dispatch worker and never halt the pool; returning an
// error does not stop the event's traversal.
type Listener interface {
	Name() string
	Plugin() *Plugin
	OnInbound(ev *event.Event) error
	OnOutbound(ev *event.Event) error
}

// Funcs adapts plain functions to the Listener interface. Nil callbacks
// are treated as no-ops.
type Funcs struct {
	ListenerName string
	Owner        *Plugin
	Inbound      func(*event.Event) error
	Outbound     func(*event.Event) error
}

func (f *Funcs) Name() string    { return f.ListenerName }
func (f *Funcs) Plugin() *Plugin { return f.Owner }

func (f *Funcs) OnInbound(ev *event.Event) error {
	if f.Inbound == nil {
		return nil
	}
	return f.Inbound(ev)
}

func (f *Funcs) OnOutbound(ev *event.Event) error {
	if f.Outbound == nil {
		return nil
	}
	return f.Outbound(ev)
}
