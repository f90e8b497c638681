package bloc

import "context"

// Source produces events from an external feed. Implementations begin
// emitting when Events is called and close the returned channel when the
// feed ends or ctx is canceled.
type Source[E any] interface {
	Events(ctx context.Context) (<-chan E, error)
}

// Bind forwards every event from src into sink until the source ends, ctx
// is canceled, or the sink closes. It is a convenience around
// Source.Events + Sink.AddStream and inherits AddStream's ordering
// caveats.
func Bind[E any](ctx context.Context, sink Sink[E], src Source[E]) error {
	events, err := src.Events(ctx)
	if err != nil {
		return err
	}
	return sink.AddStream(ctx, events)
}

// ChannelSource wraps an existing event channel as a Source.
// Useful for testing and custom feeds that already produce typed events.
type ChannelSource[E any] struct {
	ch   <-chan E
	sync bool
}

// NewChannelSource creates a ChannelSource that forwards values from the
// given channel through an internal goroutine.
func NewChannelSource[E any](ch <-chan E) *ChannelSource[E] {
	return &ChannelSource[E]{ch: ch, sync: false}
}

// NewSyncChannelSource creates a ChannelSource that returns the source
// channel directly without an intermediate goroutine.
// Use with SyncMode() for deterministic testing.
func NewSyncChannelSource[E any](ch <-chan E) *ChannelSource[E] {
	return &ChannelSource[E]{ch: ch, sync: true}
}

// Events returns a channel that emits values from the wrapped channel.
func (s *ChannelSource[E]) Events(ctx context.Context) (<-chan E, error) {
	if s.sync {
		return s.ch, nil
	}

	out := make(chan E)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-s.ch:
				if !ok {
					return
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
