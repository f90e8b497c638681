package bloc

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by Bloc lifecycle operations.
var (
	// ErrAlreadyStarted is returned by Start when called more than once.
	ErrAlreadyStarted = errors.New("bloc already started")

	// ErrNotStarted is routed to the error path when an event is added
	// before Start has been called.
	ErrNotStarted = errors.New("bloc not started")

	// ErrClosed is returned by AddStream and Bind when the container is
	// closing or closed.
	ErrClosed = errors.New("bloc closed")
)

// UnhandledError wraps an error that reached the error path with no local
// recovery. In debug mode the container panics with an *UnhandledError so
// the failure surfaces loudly during development; production mode only
// notifies the observer.
type UnhandledError struct {
	// Err is the underlying failure.
	Err error

	// Stage identifies where the failure occurred: "add", "transform",
	// "pipeline", or "external".
	Stage string
}

// Error implements the error interface.
func (e *UnhandledError) Error() string {
	return fmt.Sprintf("bloc: unhandled error in %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *UnhandledError) Unwrap() error {
	return e.Err
}

// ProcessingError is an entry in a container's error history. It pairs the
// failure with the processing stage and the clock time it was recorded.
type ProcessingError struct {
	// Err is the recorded failure.
	Err error

	// Stage identifies where the failure occurred.
	Stage string

	// At is the clock time the failure was recorded.
	At time.Time
}

// Error implements the error interface.
func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e ProcessingError) Unwrap() error {
	return e.Err
}
