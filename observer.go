package bloc

import "context"

// Container is the view of a Bloc presented to observers. Observers are
// shared across containers with different type parameters, so the surface
// is deliberately small; type-assert to the concrete *Bloc for more.
type Container interface {
	// Lifecycle returns the container's current lifecycle phase.
	Lifecycle() Lifecycle
}

// Observer receives lifecycle notifications from every container started
// within the context scope it was installed into. All hooks run on the
// container's processing goroutine; implementations should return quickly.
type Observer interface {
	// OnCreate is called once, when Start binds the container to its scope.
	OnCreate(c Container)

	// OnEvent is called when an event is accepted by Add.
	OnEvent(c Container, event any)

	// OnTransition is called for each transition, before it is applied.
	OnTransition(c Container, transition TransitionRecord)

	// OnChange is called immediately before a state update is committed.
	OnChange(c Container, change ChangeRecord)

	// OnError is called when a failure reaches the error path.
	OnError(c Container, err error)

	// OnClose is called once during Close, before the state stream closes.
	OnClose(c Container)
}

// NoopObserver implements Observer with no-ops. Embed it to implement only
// the hooks you need.
type NoopObserver struct{}

func (NoopObserver) OnCreate(Container)                       {}
func (NoopObserver) OnEvent(Container, any)                   {}
func (NoopObserver) OnTransition(Container, TransitionRecord) {}
func (NoopObserver) OnChange(Container, ChangeRecord)         {}
func (NoopObserver) OnError(Container, error)                 {}
func (NoopObserver) OnClose(Container)                        {}

// Ensure NoopObserver implements Observer.
var _ Observer = NoopObserver{}

type observerKey struct{}

// WithObserver returns a context carrying obs. Containers started with the
// returned context (or any context derived from it that does not install
// its own observer) report to obs. The nearest enclosing registration wins.
func WithObserver(ctx context.Context, obs Observer) context.Context {
	return context.WithValue(ctx, observerKey{}, obs)
}

// ObserverFrom returns the observer installed on the nearest enclosing
// scope of ctx, or NoopObserver if none is installed.
func ObserverFrom(ctx context.Context) Observer {
	if obs, ok := ctx.Value(observerKey{}).(Observer); ok {
		return obs
	}
	return NoopObserver{}
}

// RunWithObserver executes body within a nested scope carrying obs and
// returns body's result. Containers started inside body report to obs;
// containers started in sibling scopes are unaffected.
func RunWithObserver(ctx context.Context, obs Observer, body func(ctx context.Context) error) error {
	return body(WithObserver(ctx, obs))
}
