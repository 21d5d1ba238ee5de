package dispatch

import "errors"

var (
	// ErrQueueFull is returned by Enqueue and Stop when the bounded queue
	// is at capacity. Enqueue never blocks the producer.
	ErrQueueFull = errors.New("dispatch: queue capacity exceeded")

	// ErrAlreadyCancelled is returned by operations that need a live
	// handler. A cancelled handler is never reusable.
	ErrAlreadyCancelled = errors.New("dispatch: handler already cancelled")

	// ErrAlreadyStarted is returned by Worker.Run on any call after the
	// first. Create a new worker instead.
	ErrAlreadyStarted = errors.New("dispatch: worker already started, create a new worker")

	// ErrNoOwningPlugin is returned by Start when the listener has no
	// owning plugin to schedule workers under.
	ErrNoOwningPlugin = errors.New("dispatch: listener has no owning plugin")

	// ErrWorkerCount is returned by SetWorkers for out-of-range targets.
	ErrWorkerCount = errors.New("dispatch: invalid worker count")

	// ErrConvergeTimeout is returned by SetWorkers when the live count
	// does not reach the target within the convergence window, usually
	// because of a concurrent conflicting resize. Callers may retry.
	ErrConvergeTimeout = errors.New("dispatch: worker count did not converge in time")
)
