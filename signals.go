package bloc

import "github.com/zoobzio/capitan"

// Container lifecycle signals.
var (
	// BlocCreated is emitted when Start binds a container to its scope.
	BlocCreated = capitan.NewSignal(
		"bloc.created",
		"Container started",
	)

	// BlocClosed is emitted during Close, before the state stream closes.
	BlocClosed = capitan.NewSignal(
		"bloc.closed",
		"Container closed",
	)

	// BlocLifecycleChanged is emitted when a container moves between
	// lifecycle phases.
	BlocLifecycleChanged = capitan.NewSignal(
		"bloc.lifecycle.changed",
		"Container lifecycle transition",
	)
)

// Event processing signals.
var (
	// BlocEventAdded is emitted when Add accepts an event.
	BlocEventAdded = capitan.NewSignal(
		"bloc.event.added",
		"Event accepted for processing",
	)

	// BlocTransition is emitted for each transition before it is applied.
	BlocTransition = capitan.NewSignal(
		"bloc.transition",
		"Transition produced by event handler",
	)

	// BlocStateChanged is emitted when a new state is committed and
	// published on the broadcast stream.
	BlocStateChanged = capitan.NewSignal(
		"bloc.state.changed",
		"State committed and broadcast",
	)

	// BlocErrored is emitted when a failure reaches the error path.
	BlocErrored = capitan.NewSignal(
		"bloc.error",
		"Unhandled container error",
	)
)
