// Package dispatch implements the per-listener asynchronous dispatch
// unit: a bounded work queue plus a resizable pool of worker goroutines
// that pull events, invoke the listener callback, and either forward the
// event to the next handler in its traversal or signal the collaborator
// that processing is finished.
//
// Lifecycle policy, worth reading twice: a handler with zero active
// workers is considered closed. When any worker exits its loop, for any
// reason, it decrements the started count and cancels the entire
// handler. Stopping one worker is therefore "stop the whole unit", and
// callers who want N long-lived workers must keep all N alive for the
// handler's lifetime. A cancelled handler can never be reused; register
// the listener again to get a fresh one.
//
// Worker loops must never run on the producer goroutine. The producer
// pushes events with Enqueue and is never blocked by processing; running
// a loop there would reintroduce the synchronous stall this package
// exists to avoid, so the loop panics if it finds itself on the producer
// goroutine.
package dispatch
