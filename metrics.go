package bloc

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus or
// StatsD. Implement this interface to receive callbacks on key container
// events. All callbacks run on the container's processing goroutine.
type MetricsProvider interface {
	// OnEventAccepted is called when Add accepts an event.
	OnEventAccepted()

	// OnTransitionApplied is called when a transition commits a new state.
	// Duration is the time from handler emission to broadcast.
	OnTransitionApplied(duration time.Duration)

	// OnTransitionSkipped is called when a transition is suppressed as a
	// consecutive duplicate or arrives after close.
	OnTransitionSkipped()

	// OnProcessFailure is called when processing fails. Stage indicates
	// where: "add", "transform", "pipeline", or "external".
	OnProcessFailure(stage string, duration time.Duration)

	// OnLifecycleChange is called when the container moves between
	// lifecycle phases.
	OnLifecycleChange(from, to Lifecycle)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnEventAccepted()                           {}
func (NoOpMetricsProvider) OnTransitionApplied(_ time.Duration)        {}
func (NoOpMetricsProvider) OnTransitionSkipped()                       {}
func (NoOpMetricsProvider) OnProcessFailure(_ string, _ time.Duration) {}
func (NoOpMetricsProvider) OnLifecycleChange(_, _ Lifecycle)           {}
