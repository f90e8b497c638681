package bloc

import "fmt"

// Change records a pending state update. It is constructed immediately
// before the current state is replaced and handed to observer hooks; it is
// not retained afterwards.
type Change[S any] struct {
	// Current is the state before the update.
	Current S

	// Next is the state about to be committed.
	Next S
}

// String returns a human-readable rendering of the change.
func (c Change[S]) String() string {
	return fmt.Sprintf("Change{Current: %v, Next: %v}", c.Current, c.Next)
}

// record returns the type-erased form used by the observer surface.
func (c Change[S]) record() ChangeRecord {
	return ChangeRecord{Current: c.Current, Next: c.Next}
}

// Transition records a full event-triggered state update: the state the
// container held when the handler emitted, the event that caused the
// emission, and the candidate next state. Transitions flow through the
// pipeline configured with Option values before being applied.
type Transition[E, S any] struct {
	// Current is the state the container held when Next was emitted.
	Current S

	// Event is the event whose handler produced Next.
	Event E

	// Next is the candidate state. Pipeline stages may replace it before
	// the terminal stage commits it.
	Next S
}

// String returns a human-readable rendering of the transition.
func (t Transition[E, S]) String() string {
	return fmt.Sprintf("Transition{Current: %v, Event: %v, Next: %v}", t.Current, t.Event, t.Next)
}

// change returns the Change corresponding to applying this transition.
func (t Transition[E, S]) change() Change[S] {
	return Change[S]{Current: t.Current, Next: t.Next}
}

// record returns the type-erased form used by the observer surface.
func (t Transition[E, S]) record() TransitionRecord {
	return TransitionRecord{Current: t.Current, Event: t.Event, Next: t.Next}
}

// ChangeRecord is the type-erased Change passed to Observer.OnChange.
// Observers are shared across containers of different type parameters, so
// they receive erased values and may type-assert as needed.
type ChangeRecord struct {
	Current any
	Next    any
}

// TransitionRecord is the type-erased Transition passed to
// Observer.OnTransition.
type TransitionRecord struct {
	Current any
	Event   any
	Next    any
}
