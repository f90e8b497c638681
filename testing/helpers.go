// Package testing provides test utilities and helpers for bloc container
// testing.
package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/bloc"
)

// CounterEvent is a standard event type for testing containers.
type CounterEvent int

// Counter events.
const (
	Increment CounterEvent = iota
	Decrement
)

// NewCounterBloc creates and starts a counter container in sync mode.
// The container is closed automatically when the test ends.
func NewCounterBloc(t *testing.T, ctx context.Context) *bloc.Bloc[CounterEvent, int] {
	t.Helper()
	var b *bloc.Bloc[CounterEvent, int]
	b = bloc.New[CounterEvent, int](0,
		func(_ context.Context, ev CounterEvent, emit bloc.Emit[int]) error {
			switch ev {
			case Increment:
				emit(b.State() + 1)
			case Decrement:
				emit(b.State() - 1)
			}
			return nil
		},
	).SyncMode()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// RequireLifecycle fails the test immediately if the container is not in
// the expected lifecycle phase.
func RequireLifecycle(t *testing.T, c bloc.Container, expected bloc.Lifecycle) {
	t.Helper()
	if got := c.Lifecycle(); got != expected {
		t.Fatalf("expected lifecycle %s, got %s", expected, got)
	}
}

// CollectStates subscribes to a stream and collects up to n values,
// returning early if the stream closes or the timeout elapses.
func CollectStates[S any](t *testing.T, s *bloc.Stream[S], n int, timeout time.Duration) []S {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ch := s.Subscribe(ctx)
	out := make([]S, 0, n)
	for len(out) < n {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		case <-ctx.Done():
			return out
		}
	}
	return out
}

// RecordingObserver records every hook invocation for assertions.
// Safe for concurrent use.
type RecordingObserver struct {
	mu          sync.Mutex
	Creates     int
	Closes      int
	Events      []any
	Transitions []bloc.TransitionRecord
	Changes     []bloc.ChangeRecord
	Errors      []error
}

func (o *RecordingObserver) OnCreate(bloc.Container) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Creates++
}

func (o *RecordingObserver) OnEvent(_ bloc.Container, event any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Events = append(o.Events, event)
}

func (o *RecordingObserver) OnTransition(_ bloc.Container, tr bloc.TransitionRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Transitions = append(o.Transitions, tr)
}

func (o *RecordingObserver) OnChange(_ bloc.Container, ch bloc.ChangeRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Changes = append(o.Changes, ch)
}

func (o *RecordingObserver) OnError(_ bloc.Container, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Errors = append(o.Errors, err)
}

func (o *RecordingObserver) OnClose(bloc.Container) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Closes++
}

// Snapshot returns a copy of the recorded counts and slices.
func (o *RecordingObserver) Snapshot() (creates, closes int, events []any, errs []error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Creates, o.Closes, append([]any(nil), o.Events...), append([]error(nil), o.Errors...)
}

// Ensure RecordingObserver implements bloc.Observer.
var _ bloc.Observer = (*RecordingObserver)(nil)
