package event

import (
	"errors"
	"fmt"
)

// ActorGoneError reports that the actor an event targets has already
// disconnected. It is raised by collaborators (typically the sender),
// never by the dispatch core, and is propagated to whatever synchronous
// caller triggered the action rather than retried.
type ActorGoneError struct {
	Actor string
	Cause error
}

func (e *ActorGoneError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("actor %q has gone away: %v", e.Actor, e.Cause)
	}
	return fmt.Sprintf("actor %q has gone away", e.Actor)
}

func (e *ActorGoneError) Unwrap() error { return e.Cause }

// IsActorGone reports whether err is (or wraps) an ActorGoneError.
func IsActorGone(err error) bool {
	var age *ActorGoneError
	return errors.As(err, &age)
}
