package bloc

// Lifecycle represents the current lifecycle phase of a Bloc.
type Lifecycle int32

const (
	// LifecycleIdle indicates the Bloc has been constructed but Start has
	// not been called. The initial state is readable but no events are
	// processed.
	LifecycleIdle Lifecycle = iota

	// LifecycleActive indicates the Bloc is accepting and processing events.
	LifecycleActive

	// LifecycleClosing indicates Close has been called. The event intake is
	// shut and the in-flight event is draining; no new events are accepted.
	LifecycleClosing

	// LifecycleClosed is terminal. All resources are released and both the
	// event intake and the state stream are closed.
	LifecycleClosed
)

// String returns the string representation of the lifecycle phase.
func (l Lifecycle) String() string {
	switch l {
	case LifecycleIdle:
		return "idle"
	case LifecycleActive:
		return "active"
	case LifecycleClosing:
		return "closing"
	case LifecycleClosed:
		return "closed"
	default:
		return "unknown"
	}
}
