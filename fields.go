package bloc

import "github.com/zoobzio/capitan"

// Field keys for container signals.
var (
	// KeyLifecycle is the container's lifecycle phase.
	KeyLifecycle = capitan.NewStringKey("lifecycle")

	// KeyOldLifecycle is the phase before a lifecycle transition.
	KeyOldLifecycle = capitan.NewStringKey("old_lifecycle")

	// KeyNewLifecycle is the phase after a lifecycle transition.
	KeyNewLifecycle = capitan.NewStringKey("new_lifecycle")

	// KeyEvent is the dynamic type of the event being processed.
	KeyEvent = capitan.NewStringKey("event")

	// KeyState is the dynamic type of a committed state.
	KeyState = capitan.NewStringKey("state")

	// KeyError is the error message when a failure reaches the error path.
	KeyError = capitan.NewStringKey("error")

	// KeyStage is the processing stage where a failure occurred.
	KeyStage = capitan.NewStringKey("stage")

	// KeyDuration is the time spent processing an event or transition.
	KeyDuration = capitan.NewDurationKey("duration")

	// KeyQueueDepth is the number of events waiting when one is accepted.
	KeyQueueDepth = capitan.NewIntKey("queue_depth")
)
