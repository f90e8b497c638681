package bloc

import "context"

// lift derives a new Stream from src. The factory runs once per
// subscription and returns the per-consumer transform: for each source
// value it yields the transformed value and whether to deliver it. Each
// derived view is lazy and independent; subscribing to one does not
// consume the source for anyone else.
func lift[S, T any](src *Stream[S], factory func() func(S) (T, bool)) *Stream[T] {
	return &Stream[T]{
		broadcast: src.broadcast,
		subscribe: func(ctx context.Context) <-chan T {
			fn := factory()
			in := src.subscribe(ctx)
			out := make(chan T)
			go func() {
				defer close(out)
				for v := range in {
					t, keep := fn(v)
					if !keep {
						continue
					}
					select {
					case out <- t:
					case <-ctx.Done():
						return
					}
				}
			}()
			return out
		},
	}
}

// Narrow returns a view of s containing only elements whose dynamic type
// is T, downcast to T. Non-matching elements are silently dropped.
func Narrow[T, S any](s *Stream[S]) *Stream[T] {
	return lift(s, func() func(S) (T, bool) {
		return func(v S) (T, bool) {
			t, ok := any(v).(T)
			return t, ok
		}
	})
}

// NarrowWhere returns Narrow[T](s) filtered by pred.
func NarrowWhere[T, S any](s *Stream[S], pred func(T) bool) *Stream[T] {
	return Where(Narrow[T](s), pred)
}

// NarrowUnique returns Narrow[T](s) with consecutive duplicate values
// suppressed. The first matching element is always delivered.
func NarrowUnique[T comparable, S any](s *Stream[S]) *Stream[T] {
	return Unique(Narrow[T](s))
}

// NarrowUniqueWhere returns NarrowWhere[T](s, pred) with consecutive
// duplicate values suppressed.
func NarrowUniqueWhere[T comparable, S any](s *Stream[S], pred func(T) bool) *Stream[T] {
	return Unique(NarrowWhere(s, pred))
}

// Where returns a view of s containing only elements for which pred
// returns true.
func Where[T any](s *Stream[T], pred func(T) bool) *Stream[T] {
	return lift(s, func() func(T) (T, bool) {
		return func(v T) (T, bool) {
			return v, pred(v)
		}
	})
}

// Unique returns a view of s that suppresses consecutive duplicate values.
// Deduplication state is per subscription: every new consumer starts fresh
// and always receives the first element it observes.
func Unique[T comparable](s *Stream[T]) *Stream[T] {
	return lift(s, func() func(T) (T, bool) {
		var (
			last T
			seen bool
		)
		return func(v T) (T, bool) {
			if seen && v == last {
				return v, false
			}
			last = v
			seen = true
			return v, true
		}
	})
}
