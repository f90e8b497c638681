package bloc

import (
	"context"
	"sync"
)

// SubscribeFunc produces an independent receive channel for one consumer.
// Implementations begin delivery when called and stop when ctx is canceled.
type SubscribeFunc[T any] func(ctx context.Context) <-chan T

// Stream is a lazy, read-only view over a sequence of values. Nothing runs
// until Subscribe is called; each Subscribe call yields an independent
// consumer. Operators like Narrow and Unique compose Streams without
// consuming the source.
//
// A broadcast Stream supports any number of concurrent subscribers, each
// receiving only values published after it subscribed. A Stream built with
// FromChannel supports exactly one subscriber.
type Stream[T any] struct {
	subscribe SubscribeFunc[T]
	broadcast bool

	mu    sync.Mutex
	taken bool
}

// NewStream wraps a subscribe function as a broadcast Stream. The function
// must be safe to call from multiple goroutines and must return an
// independent channel per call.
func NewStream[T any](subscribe SubscribeFunc[T]) *Stream[T] {
	return &Stream[T]{subscribe: subscribe, broadcast: true}
}

// FromChannel wraps a plain receive channel as a single-subscription
// Stream. Subscribing more than once is a contract violation and panics.
// Use Broadcast to fan a single-subscription Stream out to many consumers.
func FromChannel[T any](ch <-chan T) *Stream[T] {
	s := &Stream[T]{broadcast: false}
	s.subscribe = func(ctx context.Context) <-chan T {
		s.mu.Lock()
		if s.taken {
			s.mu.Unlock()
			panic("bloc: single-subscription stream subscribed twice")
		}
		s.taken = true
		s.mu.Unlock()

		out := make(chan T)
		go func() {
			defer close(out)
			for {
				select {
				case <-ctx.Done():
					return
				case v, ok := <-ch:
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
		return out
	}
	return s
}

// Subscribe begins delivery to a new consumer. The returned channel closes
// when the underlying source terminates or ctx is canceled. Canceling ctx
// stops delivery to this consumer only; other subscribers of a broadcast
// Stream are unaffected.
func (s *Stream[T]) Subscribe(ctx context.Context) <-chan T {
	return s.subscribe(ctx)
}

// IsBroadcast reports whether the Stream supports multiple subscribers.
func (s *Stream[T]) IsBroadcast() bool {
	return s.broadcast
}

// AsBroadcast returns the Stream unchanged. It exists so narrowed views can
// be handed back to code expecting the general stream type.
func (s *Stream[T]) AsBroadcast() *Stream[T] {
	return s
}

// Broadcast fans a single-subscription Stream out to a broadcast Stream
// backed by its own fan-out. The source is subscribed once, lazily, on the
// first Subscribe call; ctx bounds the lifetime of the fan-out.
//
// Calling Broadcast on a Stream that is already broadcast returns it
// unchanged.
func Broadcast[T any](ctx context.Context, s *Stream[T]) *Stream[T] {
	if s.broadcast {
		return s
	}
	var once sync.Once
	b := newBroadcaster[T](defaultSubscriberBuffer)
	start := func() {
		in := s.subscribe(ctx)
		go func() {
			defer b.close()
			for v := range in {
				b.publish(v)
			}
		}()
	}
	return NewStream(func(subCtx context.Context) <-chan T {
		once.Do(start)
		return b.subscribe(subCtx)
	})
}

// defaultSubscriberBuffer is the per-subscriber channel capacity used when
// no explicit buffer is configured. When a subscriber's buffer fills, the
// publisher blocks rather than dropping values.
const defaultSubscriberBuffer = 64

// broadcaster fans values out to any number of subscribers. It expects a
// single publisher: publish and close must not be called concurrently with
// each other. Subscribe and cancellation are safe from any goroutine.
type broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber[T]
	nextID uint64
	buf    int
	closed bool
}

type subscriber[T any] struct {
	in   chan T
	done chan struct{}
}

func newBroadcaster[T any](buf int) *broadcaster[T] {
	if buf < 1 {
		buf = 1
	}
	return &broadcaster[T]{
		subs: make(map[uint64]*subscriber[T]),
		buf:  buf,
	}
}

// subscribe registers a consumer and returns its channel. The channel
// closes when the broadcaster closes or ctx is canceled.
func (b *broadcaster[T]) subscribe(ctx context.Context) <-chan T {
	out := make(chan T)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(out)
		return out
	}
	sub := &subscriber[T]{
		in:   make(chan T, b.buf),
		done: make(chan struct{}),
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				b.remove(id, sub)
				return
			case v, ok := <-sub.in:
				if !ok {
					return
				}
				select {
				case out <- v:
				case <-ctx.Done():
					b.remove(id, sub)
					return
				}
			}
		}
	}()
	return out
}

// publish delivers v to every current subscriber. Delivery to a full
// subscriber blocks until it drains or unsubscribes.
func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	snapshot := make([]*subscriber[T], 0, len(b.subs))
	for _, sub := range b.subs {
		snapshot = append(snapshot, sub)
	}
	b.mu.Unlock()

	for _, sub := range snapshot {
		select {
		case sub.in <- v:
		case <-sub.done:
		}
	}
}

// close terminates all subscribers. Must only be called after the publisher
// has stopped publishing.
func (b *broadcaster[T]) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, sub := range subs {
		close(sub.in)
	}
}

// remove deregisters a subscriber after its consumer canceled.
func (b *broadcaster[T]) remove(id uint64, sub *subscriber[T]) {
	b.mu.Lock()
	if b.subs != nil {
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.done)
		}
	}
	b.mu.Unlock()
}
