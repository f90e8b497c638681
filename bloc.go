package bloc

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// Bloc binds an event sequence to a state sequence. Events added through
// the Sink surface are processed strictly in submission order by a single
// standing loop: each event's handler runs to completion before the next
// begins, emitted states become Transitions flowing through the configured
// pipeline, and committed states are published on a broadcast Stream.
//
// Pipeline options (With*) configure the transition pipeline. Instance
// configuration uses chainable methods before calling Start().
type Bloc[E, S any] struct {
	handler  Handler[E, S]
	pipeline pipz.Chainable[*Transition[E, S]]
	mapper   Mapper[E, S]
	clock    clockz.Clock
	equals   func(a, b S) bool
	metrics  MetricsProvider
	syncMode bool
	debug    bool
	buf      int

	lifecycle atomic.Int32
	current   atomic.Pointer[S]
	emitted   atomic.Bool
	lastError atomic.Pointer[ProcessingError]
	firstErr  atomic.Pointer[ProcessingError]
	history   *errorRing

	mu           sync.Mutex
	started      bool
	observer     Observer
	scopeCtx     context.Context
	queue        *eventQueue[E]
	stream       *broadcaster[S]
	streamClosed bool

	idleMu  sync.Mutex
	idle    *sync.Cond
	pending int

	closing   chan struct{}
	loopDone  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Bloc with the given initial state and event handler.
//
// The initial state becomes the current state immediately and is readable
// via State() before any event is processed; it is not published on the
// broadcast stream until the first emission.
//
// The handler is invoked once per event, in submission order, and may emit
// zero or more candidate states. Each emission flows through the transition
// pipeline built from opts before the terminal stage commits it.
//
// Example:
//
//	counter := bloc.New[CounterEvent, int](0,
//	    func(ctx context.Context, ev CounterEvent, emit bloc.Emit[int]) error {
//	        switch ev {
//	        case Increment:
//	            emit(counter.State() + 1)
//	        case Decrement:
//	            emit(counter.State() - 1)
//	        }
//	        return nil
//	    },
//	    bloc.WithRetry[CounterEvent, int](3),
//	)
func New[E, S any](initial S, handler Handler[E, S], opts ...Option[E, S]) *Bloc[E, S] {
	b := &Bloc[E, S]{
		handler:  handler,
		mapper:   SequentialMapper[E, S](),
		clock:    clockz.RealClock,
		buf:      defaultSubscriberBuffer,
		closing:  make(chan struct{}),
		loopDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
	b.equals = func(a, c S) bool { return reflect.DeepEqual(a, c) }
	b.idle = sync.NewCond(&b.idleMu)
	b.current.Store(&initial)
	b.lifecycle.Store(int32(LifecycleIdle))

	terminal := pipz.Effect(applyID, func(ctx context.Context, t *Transition[E, S]) error {
		b.applyTransition(ctx, t)
		return nil
	})
	b.pipeline = buildPipeline(terminal, opts)

	return b
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic duration testing.
// Must be called before Start().
func (b *Bloc[E, S]) Clock(clock clockz.Clock) *Bloc[E, S] {
	b.clock = clock
	return b
}

// SyncMode enables synchronous processing for testing.
// In sync mode, Add processes the event to completion on the caller's
// goroutine instead of enqueueing it, making tests deterministic. Callers
// are expected to add events from a single goroutine. Must be called
// before Start().
func (b *Bloc[E, S]) SyncMode() *Bloc[E, S] {
	b.syncMode = true
	return b
}

// Debug enables development-mode error escalation: any error reaching the
// error path still notifies the observer, then panics with an
// *UnhandledError so the failure surfaces loudly. Production containers
// (the default) never escalate; the observer is the only error channel.
// Must be called before Start().
func (b *Bloc[E, S]) Debug() *Bloc[E, S] {
	b.debug = true
	return b
}

// Metrics sets a metrics provider for observability integration.
// Must be called before Start().
func (b *Bloc[E, S]) Metrics(provider MetricsProvider) *Bloc[E, S] {
	b.metrics = provider
	return b
}

// Equality sets the state equality function used to suppress consecutive
// duplicate emissions. Default: reflect.DeepEqual. The first emission is
// never suppressed, even when equal to the initial state.
// Must be called before Start().
func (b *Bloc[E, S]) Equality(fn func(a, b S) bool) *Bloc[E, S] {
	b.equals = fn
	return b
}

// ErrorHistorySize sets the number of recent processing errors to retain.
// Use 0 (default) to only retain the most recent error via LastError().
// Must be called before Start().
func (b *Bloc[E, S]) ErrorHistorySize(n int) *Bloc[E, S] {
	b.history = newErrorRing(n)
	return b
}

// SubscriberBuffer sets the per-subscriber channel capacity of the
// broadcast stream. When a subscriber's buffer fills, publishing blocks
// until it drains or unsubscribes; no states are dropped.
// Default: 64. Must be called before Start().
func (b *Bloc[E, S]) SubscriberBuffer(n int) *Bloc[E, S] {
	b.buf = n
	return b
}

// WithMapper substitutes the event-to-transition mapping. The default
// SequentialMapper preserves strict event order; custom mappers may drop
// or reshape an event's emissions but are still invoked one event at a
// time. Must be called before Start().
func (b *Bloc[E, S]) WithMapper(m Mapper[E, S]) *Bloc[E, S] {
	b.mapper = m
	return b
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// State returns the current state synchronously. Before any event is
// processed this is the initial state supplied to New.
func (b *Bloc[E, S]) State() S {
	return *b.current.Load()
}

// Lifecycle returns the container's current lifecycle phase.
func (b *Bloc[E, S]) Lifecycle() Lifecycle {
	return Lifecycle(b.lifecycle.Load())
}

// Stream returns the broadcast state stream. Subscribers receive only
// states committed after they subscribe; the current state is available
// synchronously via State. The underlying fan-out is allocated lazily on
// first use.
func (b *Bloc[E, S]) Stream() *Stream[S] {
	return NewStream(func(ctx context.Context) <-chan S {
		return b.ensureStream().subscribe(ctx)
	})
}

// LastError returns the most recent processing error, or nil.
func (b *Bloc[E, S]) LastError() error {
	if p := b.lastError.Load(); p != nil {
		return *p
	}
	return nil
}

// ErrorHistory returns the recent processing errors, oldest first.
// Returns nil unless ErrorHistorySize was configured.
func (b *Bloc[E, S]) ErrorHistory() []ProcessingError {
	return b.history.all()
}

// Done is closed when the container is permanently finished: Close
// completed, or the Start context was canceled.
func (b *Bloc[E, S]) Done() <-chan struct{} {
	return b.done
}

// Err returns the first terminal failure recorded by the container, or
// nil. A failure is terminal when it reached the error path with no local
// recovery, or when the Start context was canceled.
func (b *Bloc[E, S]) Err() error {
	if p := b.firstErr.Load(); p != nil {
		return *p
	}
	return nil
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Start binds the container to its observation scope and begins
// processing. The observer installed on ctx (see WithObserver) receives
// this container's lifecycle notifications; canceling ctx terminates the
// container as if Close were called, with ctx.Err() as the terminal
// failure. Start can only be called once.
func (b *Bloc[E, S]) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	if b.Lifecycle() >= LifecycleClosing {
		b.mu.Unlock()
		return ErrClosed
	}
	b.started = true
	b.observer = ObserverFrom(ctx)
	b.scopeCtx = ctx
	b.mu.Unlock()

	b.setLifecycle(ctx, LifecycleActive)
	capitan.Emit(ctx, BlocCreated,
		KeyLifecycle.Field(LifecycleActive.String()),
	)
	b.observerRef().OnCreate(b)

	if b.syncMode {
		close(b.loopDone)
	} else {
		go b.loop(ctx)
	}

	go func() {
		select {
		case <-ctx.Done():
			b.shutdown(ctx.Err())
		case <-b.done:
		}
	}()

	return nil
}

// Close shuts the event intake, drains the in-flight event, notifies the
// observer, then closes the broadcast stream. Close is idempotent:
// repeated calls block until teardown completes and return the same
// result. The returned error is the first terminal failure, if any.
func (b *Bloc[E, S]) Close() error {
	b.shutdown(nil)
	<-b.done
	return b.Err()
}

// shutdown performs teardown exactly once. cause is non-nil when the
// container is terminated externally by its start context.
func (b *Bloc[E, S]) shutdown(cause error) {
	b.closeOnce.Do(func() {
		ctx := b.scope()
		b.setLifecycle(ctx, LifecycleClosing)
		close(b.closing)

		b.mu.Lock()
		started := b.started
		b.mu.Unlock()
		if started && !b.syncMode {
			<-b.loopDone
		}

		if cause != nil {
			b.record(ProcessingError{Err: cause, Stage: "external", At: b.clock.Now()})
		}

		b.observerRef().OnClose(b)
		capitan.Emit(ctx, BlocClosed,
			KeyLifecycle.Field(LifecycleClosing.String()),
		)

		b.mu.Lock()
		b.streamClosed = true
		stream := b.stream
		b.mu.Unlock()
		if stream != nil {
			stream.close()
		}

		b.setLifecycle(ctx, LifecycleClosed)

		// Release any Settle waiters blocked on dropped events.
		b.idleMu.Lock()
		b.pending = 0
		b.idleMu.Unlock()
		b.idle.Broadcast()

		close(b.done)
	})
}

// setLifecycle commits a lifecycle transition and notifies observers.
func (b *Bloc[E, S]) setLifecycle(ctx context.Context, to Lifecycle) {
	from := b.Lifecycle()
	if from == to {
		return
	}
	b.lifecycle.Store(int32(to))
	capitan.Emit(ctx, BlocLifecycleChanged,
		KeyOldLifecycle.Field(from.String()),
		KeyNewLifecycle.Field(to.String()),
	)
	if b.metrics != nil {
		b.metrics.OnLifecycleChange(from, to)
	}
}

// -----------------------------------------------------------------------------
// Sink
// -----------------------------------------------------------------------------

// Add enqueues an event for processing. See Sink.Add for the full
// contract. Adding before Start routes ErrNotStarted to the error path;
// adding after Close is a silent no-op.
func (b *Bloc[E, S]) Add(event E) {
	if b.Lifecycle() >= LifecycleClosing {
		return
	}
	ctx := b.scope()
	if !b.isStarted() {
		b.fail(ctx, "add", fmt.Errorf("%w: event %T dropped", ErrNotStarted, event), 0)
		return
	}

	if !b.observeEvent(ctx, event) {
		return
	}
	capitan.Emit(ctx, BlocEventAdded,
		KeyEvent.Field(fmt.Sprintf("%T", event)),
		KeyQueueDepth.Field(b.events().len()),
	)
	if b.metrics != nil {
		b.metrics.OnEventAccepted()
	}

	b.idleMu.Lock()
	b.pending++
	b.idleMu.Unlock()

	if b.syncMode {
		b.process(ctx, event)
		return
	}
	b.events().push(event)
}

// observeEvent runs the event-observed hook, converting a panicking
// observer into an error-path failure. Returns false when the submission
// must be aborted.
func (b *Bloc[E, S]) observeEvent(ctx context.Context, event E) (accepted bool) {
	defer func() {
		if r := recover(); r != nil {
			b.fail(ctx, "add", fmt.Errorf("event observer panicked: %v", r), 0)
			accepted = false
		}
	}()
	b.observerRef().OnEvent(b, event)
	return true
}

// AddError routes an out-of-band error to the error path.
// No-op once the container is closing or closed.
func (b *Bloc[E, S]) AddError(err error) {
	if b.Lifecycle() >= LifecycleClosing {
		return
	}
	b.fail(b.scope(), "external", err, 0)
}

// AddStream forwards each event from events into this container, in
// channel order, until the channel closes, ctx is canceled, or the
// container closes. The relative ordering of forwarded events and
// concurrent direct Add calls is unspecified; callers that need a total
// order must not mix the two paths while AddStream is draining.
func (b *Bloc[E, S]) AddStream(ctx context.Context, events <-chan E) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closing:
			return ErrClosed
		case event, ok := <-events:
			if !ok {
				return nil
			}
			b.Add(event)
		}
	}
}

// Settle blocks until every accepted event has been fully processed and
// the container is idle, or ctx is canceled. It is the synchronization
// point for tests and callers that need the effects of prior Add calls to
// be visible.
func (b *Bloc[E, S]) Settle(ctx context.Context) error {
	settled := make(chan struct{})
	go func() {
		b.idleMu.Lock()
		for b.pending > 0 {
			b.idle.Wait()
		}
		b.idleMu.Unlock()
		close(settled)
	}()

	select {
	case <-settled:
		return nil
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ensure *Bloc implements the Sink contract.
var _ Sink[any] = (*Bloc[any, any])(nil)

// -----------------------------------------------------------------------------
// Processing
// -----------------------------------------------------------------------------

// loop is the standing listener: it consumes the event queue in FIFO
// order, one event at a time, until Close or context cancellation.
func (b *Bloc[E, S]) loop(ctx context.Context) {
	defer close(b.loopDone)
	queue := b.events()
	for {
		if event, ok := queue.pop(); ok {
			select {
			case <-b.closing:
				return
			default:
			}
			b.process(ctx, event)
			continue
		}
		select {
		case <-b.closing:
			return
		case <-ctx.Done():
			return
		case <-queue.notify:
		}
	}
}

// process maps one event into transitions. Handler failures and panics
// are caught here so the standing loop keeps serving later events.
func (b *Bloc[E, S]) process(ctx context.Context, event E) {
	defer b.settleOne()
	start := b.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*UnhandledError); ok {
				// Debug escalation from fail; let it surface.
				panic(r)
			}
			b.fail(ctx, "transform", fmt.Errorf("handler panicked: %v", r), b.clock.Since(start))
		}
	}()

	emit := func(next S) {
		t := &Transition[E, S]{Current: b.State(), Event: event, Next: next}
		if _, err := b.pipeline.Process(ctx, t); err != nil {
			b.fail(ctx, "pipeline", err, b.clock.Since(start))
		}
	}

	if err := b.mapper(ctx, event, b.handler, emit); err != nil {
		b.fail(ctx, "transform", err, b.clock.Since(start))
	}
}

// applyTransition is the terminal pipeline stage: it runs the transition
// and change hooks, commits the new state, and publishes it.
func (b *Bloc[E, S]) applyTransition(ctx context.Context, t *Transition[E, S]) {
	start := b.clock.Now()
	b.observerRef().OnTransition(b, t.record())
	capitan.Emit(ctx, BlocTransition,
		KeyEvent.Field(fmt.Sprintf("%T", t.Event)),
		KeyState.Field(fmt.Sprintf("%T", t.Next)),
	)

	if b.Lifecycle() >= LifecycleClosing {
		if b.metrics != nil {
			b.metrics.OnTransitionSkipped()
		}
		return
	}

	current := b.State()
	if b.emitted.Load() && b.equals(t.Next, current) {
		if b.metrics != nil {
			b.metrics.OnTransitionSkipped()
		}
		return
	}

	change := Change[S]{Current: current, Next: t.Next}
	b.observerRef().OnChange(b, change.record())
	capitan.Emit(ctx, BlocStateChanged,
		KeyState.Field(fmt.Sprintf("%T", t.Next)),
	)

	next := t.Next
	b.current.Store(&next)
	b.emitted.Store(true)
	b.ensureStream().publish(next)

	if b.metrics != nil {
		b.metrics.OnTransitionApplied(b.clock.Since(start))
	}
}

// fail is the error path: record, notify, and in debug mode escalate.
func (b *Bloc[E, S]) fail(ctx context.Context, stage string, err error, d time.Duration) {
	perr := ProcessingError{Err: err, Stage: stage, At: b.clock.Now()}
	b.record(perr)

	b.observerRef().OnError(b, err)
	capitan.Emit(ctx, BlocErrored,
		KeyError.Field(err.Error()),
		KeyStage.Field(stage),
		KeyDuration.Field(d),
	)
	if b.metrics != nil {
		b.metrics.OnProcessFailure(stage, d)
	}

	if b.debug {
		panic(&UnhandledError{Err: err, Stage: stage})
	}
}

// record stores a processing error in the last-error slot, the history
// ring, and the terminal-failure slot if it is the first.
func (b *Bloc[E, S]) record(perr ProcessingError) {
	b.lastError.Store(&perr)
	b.firstErr.CompareAndSwap(nil, &perr)
	b.history.push(perr)
}

// settleOne marks one accepted event as fully processed.
func (b *Bloc[E, S]) settleOne() {
	b.idleMu.Lock()
	if b.pending > 0 {
		b.pending--
	}
	remaining := b.pending
	b.idleMu.Unlock()
	if remaining == 0 {
		b.idle.Broadcast()
	}
}

// -----------------------------------------------------------------------------
// Internal plumbing
// -----------------------------------------------------------------------------

// scope returns the context the container was started with, or Background
// before Start.
func (b *Bloc[E, S]) scope() context.Context {
	b.mu.Lock()
	ctx := b.scopeCtx
	b.mu.Unlock()
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func (b *Bloc[E, S]) isStarted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started
}

// observerRef returns the bound observer, or NoopObserver before Start.
func (b *Bloc[E, S]) observerRef() Observer {
	b.mu.Lock()
	obs := b.observer
	b.mu.Unlock()
	if obs == nil {
		return NoopObserver{}
	}
	return obs
}

// events returns the event queue, allocating it on first use.
func (b *Bloc[E, S]) events() *eventQueue[E] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.queue == nil {
		b.queue = newEventQueue[E]()
	}
	return b.queue
}

// ensureStream returns the broadcast fan-out, allocating it on first use.
// A fan-out allocated after teardown is born closed.
func (b *Bloc[E, S]) ensureStream() *broadcaster[S] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stream == nil {
		b.stream = newBroadcaster[S](b.buf)
		if b.streamClosed {
			b.stream.close()
		}
	}
	return b.stream
}

// eventQueue is an unbounded FIFO queue with a wake-up channel for the
// standing loop. Add never blocks.
type eventQueue[E any] struct {
	mu     sync.Mutex
	items  []E
	notify chan struct{}
}

func newEventQueue[E any]() *eventQueue[E] {
	return &eventQueue[E]{notify: make(chan struct{}, 1)}
}

func (q *eventQueue[E]) push(event E) {
	q.mu.Lock()
	q.items = append(q.items, event)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *eventQueue[E]) pop() (E, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero E
		return zero, false
	}
	event := q.items[0]
	q.items = q.items[1:]
	return event, true
}

func (q *eventQueue[E]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
