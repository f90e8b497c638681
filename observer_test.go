package bloc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// hookObserver routes each hook to an optional callback. Nil callbacks are
// no-ops, so tests only wire the hooks they assert on.
type hookObserver struct {
	NoopObserver
	onCreate     func(Container)
	onEvent      func(any)
	onTransition func(TransitionRecord)
	onChange     func(ChangeRecord)
	onError      func(error)
	onClose      func(Container)
}

func (o *hookObserver) OnCreate(c Container) {
	if o.onCreate != nil {
		o.onCreate(c)
	}
}

func (o *hookObserver) OnEvent(_ Container, event any) {
	if o.onEvent != nil {
		o.onEvent(event)
	}
}

func (o *hookObserver) OnTransition(_ Container, tr TransitionRecord) {
	if o.onTransition != nil {
		o.onTransition(tr)
	}
}

func (o *hookObserver) OnChange(_ Container, ch ChangeRecord) {
	if o.onChange != nil {
		o.onChange(ch)
	}
}

func (o *hookObserver) OnError(_ Container, err error) {
	if o.onError != nil {
		o.onError(err)
	}
}

func (o *hookObserver) OnClose(c Container) {
	if o.onClose != nil {
		o.onClose(c)
	}
}

func TestObserver_ScopedRegistration(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var events []any
	obs := &hookObserver{onEvent: func(ev any) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}}

	b := newCounter().SyncMode()
	if err := b.Start(WithObserver(ctx, obs)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer b.Close()

	b.Add(inc)
	b.Add(dec)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("expected 2 observed events, got %d", len(events))
	}
	if events[0] != inc || events[1] != dec {
		t.Errorf("expected [inc dec], got %v", events)
	}
}

func TestObserver_SiblingScopeIsolation(t *testing.T) {
	root := context.Background()

	var leftCount, rightCount int
	left := &hookObserver{onEvent: func(any) { leftCount++ }}
	right := &hookObserver{onEvent: func(any) { rightCount++ }}

	lb := newCounter().SyncMode()
	if err := lb.Start(WithObserver(root, left)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer lb.Close()

	rb := newCounter().SyncMode()
	if err := rb.Start(WithObserver(root, right)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer rb.Close()

	lb.Add(inc)
	rb.Add(inc)
	rb.Add(inc)

	if leftCount != 1 {
		t.Errorf("expected left observer to see 1 event, got %d", leftCount)
	}
	if rightCount != 2 {
		t.Errorf("expected right observer to see 2 events, got %d", rightCount)
	}
}

func TestObserver_NestedScopeShadowing(t *testing.T) {
	outer := &hookObserver{}
	inner := &hookObserver{}

	ctx := WithObserver(context.Background(), outer)
	nested := WithObserver(ctx, inner)

	if got := ObserverFrom(nested); got != Observer(inner) {
		t.Error("expected nearest registration to win")
	}
	if got := ObserverFrom(ctx); got != Observer(outer) {
		t.Error("expected outer scope to keep its own observer")
	}
}

func TestObserverFrom_Default(t *testing.T) {
	obs := ObserverFrom(context.Background())
	if _, ok := obs.(NoopObserver); !ok {
		t.Errorf("expected NoopObserver fallback, got %T", obs)
	}
}

func TestRunWithObserver(t *testing.T) {
	var seen int
	obs := &hookObserver{onEvent: func(any) { seen++ }}

	err := RunWithObserver(context.Background(), obs, func(ctx context.Context) error {
		b := newCounter().SyncMode()
		if err := b.Start(ctx); err != nil {
			return err
		}
		defer b.Close()
		b.Add(inc)
		return nil
	})
	if err != nil {
		t.Fatalf("RunWithObserver failed: %v", err)
	}
	if seen != 1 {
		t.Errorf("expected 1 observed event, got %d", seen)
	}
}

func TestObserver_HookOrder(t *testing.T) {
	ctx := context.Background()

	var order []string
	obs := &hookObserver{
		onEvent:      func(any) { order = append(order, "event") },
		onTransition: func(TransitionRecord) { order = append(order, "transition") },
		onChange:     func(ChangeRecord) { order = append(order, "change") },
	}

	b := newCounter().SyncMode()
	if err := b.Start(WithObserver(ctx, obs)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer b.Close()

	b.Add(inc)

	want := []string{"event", "transition", "change"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestObserver_TransitionRecordContents(t *testing.T) {
	ctx := context.Background()

	var records []TransitionRecord
	obs := &hookObserver{onTransition: func(tr TransitionRecord) {
		records = append(records, tr)
	}}

	b := newCounter().SyncMode()
	if err := b.Start(WithObserver(ctx, obs)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer b.Close()

	b.Add(inc)

	if len(records) != 1 {
		t.Fatalf("expected 1 transition record, got %d", len(records))
	}
	tr := records[0]
	if tr.Current != 0 || tr.Next != 1 {
		t.Errorf("expected transition 0 -> 1, got %v -> %v", tr.Current, tr.Next)
	}
	if tr.Event != inc {
		t.Errorf("expected event inc, got %v", tr.Event)
	}
}

func TestObserver_PanicAbortsTransition(t *testing.T) {
	ctx := context.Background()

	obs := &hookObserver{onEvent: func(any) { panic("observer exploded") }}

	b := newCounter().SyncMode()
	if err := b.Start(WithObserver(ctx, obs)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer b.Close()

	b.Add(inc)

	if got := b.State(); got != 0 {
		t.Errorf("expected event to be aborted, state=%d", got)
	}
	if err := b.LastError(); err == nil || !strings.Contains(err.Error(), "observer exploded") {
		t.Errorf("expected observer panic routed to error path, got %v", err)
	}
}

func TestObserver_ErrorHookReceivesCause(t *testing.T) {
	ctx := context.Background()

	var got error
	obs := &hookObserver{onError: func(err error) { got = err }}

	b := newCounter().SyncMode()
	if err := b.Start(WithObserver(ctx, obs)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer b.Close()

	cause := errors.New("external failure")
	b.AddError(cause)

	if !errors.Is(got, cause) {
		t.Errorf("expected OnError to receive the cause, got %v", got)
	}
}

func TestObserver_CreateAndClose(t *testing.T) {
	ctx := context.Background()

	var created, closed int
	var closePhase Lifecycle
	obs := &hookObserver{
		onCreate: func(Container) { created++ },
		onClose: func(c Container) {
			closed++
			closePhase = c.Lifecycle()
		},
	}

	b := newCounter().SyncMode()
	if err := b.Start(WithObserver(ctx, obs)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	b.Close() // idempotent, must not re-notify

	if created != 1 {
		t.Errorf("expected OnCreate once, got %d", created)
	}
	if closed != 1 {
		t.Errorf("expected OnClose once, got %d", closed)
	}
	if closePhase != LifecycleClosing {
		t.Errorf("expected closing phase during OnClose, got %s", closePhase)
	}
}
