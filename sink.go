package bloc

import "context"

// Sink is the event-ingestion contract implemented by *Bloc. The UI or
// transport layer feeding a container only needs this surface.
type Sink[E any] interface {
	// Add enqueues an event for processing. It returns immediately after
	// enqueueing; the transform pipeline runs asynchronously, so a state
	// change is not necessarily visible when Add returns. Failures raised
	// by observer hooks are routed to the error path rather than panicking
	// towards the caller (debug-mode escalation excepted). Add is a no-op
	// once the container is closing or closed.
	Add(event E)

	// AddError routes an out-of-band error to the error path. It is a
	// no-op once the container is closing or closed.
	AddError(err error)

	// AddStream forwards every event received on events into the sink, in
	// channel order, until the channel closes or ctx is canceled. It must
	// not be used concurrently with direct Add calls while still
	// draining: the relative ordering of the two input paths is
	// unspecified and is the caller's responsibility, not enforced here.
	AddStream(ctx context.Context, events <-chan E) error

	// Close shuts the event intake, drains the in-flight event, and
	// releases the state stream. It is idempotent; repeated calls return
	// the same result. The returned error is the first terminal failure
	// recorded before closing, if any.
	Close() error

	// Done is closed when the sink is permanently finished: closed, or
	// terminated by its start context.
	Done() <-chan struct{}

	// Err returns the first terminal failure, or nil. Only meaningful
	// once Done is closed, mirroring context.Context.
	Err() error
}

// Emit publishes a candidate next state from within a Handler. Each call
// produces one Transition from the then-current state. Emit must only be
// called during the Handler invocation it was passed to.
type Emit[S any] func(next S)

// Handler transforms one event into zero or more candidate states by
// calling emit. Handlers run one at a time, in event submission order; a
// later event's handler does not begin until the current one returns.
// Returning an error routes it to the container's error path and
// processing continues with the next event.
type Handler[E, S any] func(ctx context.Context, event E, emit Emit[S]) error

// Mapper controls how one event expands into transitions. The default,
// SequentialMapper, invokes the handler directly, which yields strict
// flatten-preserving-order semantics. Substitute a custom Mapper to change
// the cadence, for example dropping events superseded while the handler
// runs. Mappers are still invoked one event at a time.
type Mapper[E, S any] func(ctx context.Context, event E, handler Handler[E, S], emit Emit[S]) error

// SequentialMapper returns the default order-preserving mapper: each
// event's handler runs to completion before the next event begins.
func SequentialMapper[E, S any]() Mapper[E, S] {
	return func(ctx context.Context, event E, handler Handler[E, S], emit Emit[S]) error {
		return handler(ctx, event, emit)
	}
}
