package bloc

import (
	"context"
	"testing"
	"time"
)

func TestStream_BroadcastMultipleSubscribers(t *testing.T) {
	ctx := context.Background()
	b := newCounter()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer b.Close()

	first := b.Stream().Subscribe(ctx)
	second := b.Stream().Subscribe(ctx)

	b.Add(inc)
	b.Add(inc)
	if err := b.Settle(ctx); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	for name, ch := range map[string]<-chan int{"first": first, "second": second} {
		got := collect(t, ch, 2, time.Second)
		if len(got) != 2 || got[0] != 1 || got[1] != 2 {
			t.Errorf("%s subscriber: expected [1 2], got %v", name, got)
		}
	}
}

func TestStream_CancelOneConsumerLeavesOthers(t *testing.T) {
	ctx := context.Background()
	b := newCounter()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer b.Close()

	subCtx, cancel := context.WithCancel(ctx)
	canceled := b.Stream().Subscribe(subCtx)
	surviving := b.Stream().Subscribe(ctx)

	b.Add(inc)
	if err := b.Settle(ctx); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	got := collect(t, canceled, 1, time.Second)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected canceled subscriber to see [1] first, got %v", got)
	}

	cancel()
	// Wait for the canceled consumer's channel to close so the publisher
	// cannot block on its buffer afterwards.
	deadline := time.After(time.Second)
drain:
	for {
		select {
		case _, ok := <-canceled:
			if !ok {
				break drain
			}
		case <-deadline:
			t.Fatal("expected canceled subscriber channel to close")
		}
	}

	b.Add(inc)
	if err := b.Settle(ctx); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	got = collect(t, surviving, 2, time.Second)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected surviving subscriber to see [1 2], got %v", got)
	}
}

func TestStream_SubscribeAfterCloseYieldsClosedChannel(t *testing.T) {
	ctx := context.Background()
	b := newCounter().SyncMode()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ch := b.Stream().Subscribe(ctx)
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected no values from a closed container's stream")
		}
	case <-time.After(time.Second):
		t.Error("expected subscription channel to be closed")
	}
}

func TestFromChannel_SingleSubscription(t *testing.T) {
	ctx := context.Background()

	src := make(chan int, 3)
	src <- 1
	src <- 2
	src <- 3
	close(src)

	s := FromChannel(src)
	if s.IsBroadcast() {
		t.Error("expected single-subscription stream")
	}

	got := collect(t, s.Subscribe(ctx), 3, time.Second)
	if len(got) != 3 {
		t.Fatalf("expected 3 values, got %v", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected second Subscribe to panic")
		}
	}()
	s.Subscribe(ctx)
}

func TestFromChannel_CancelStopsDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := make(chan int)
	ch := FromChannel(src).Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after cancellation")
		}
	case <-time.After(time.Second):
		t.Error("expected channel to close after cancellation")
	}
}

func TestBroadcast_FanOut(t *testing.T) {
	ctx := context.Background()

	src := make(chan int, 2)
	single := FromChannel(src)

	wide := Broadcast(ctx, single)
	if !wide.IsBroadcast() {
		t.Fatal("expected broadcast stream")
	}

	first := wide.Subscribe(ctx)
	second := wide.Subscribe(ctx)

	src <- 7
	src <- 8
	close(src)

	for name, ch := range map[string]<-chan int{"first": first, "second": second} {
		got := collect(t, ch, 2, time.Second)
		if len(got) != 2 || got[0] != 7 || got[1] != 8 {
			t.Errorf("%s subscriber: expected [7 8], got %v", name, got)
		}
	}
}

func TestBroadcast_AlreadyBroadcastReturnsSame(t *testing.T) {
	s := NewStream(func(context.Context) <-chan int {
		ch := make(chan int)
		close(ch)
		return ch
	})
	if got := Broadcast(context.Background(), s); got != s {
		t.Error("expected broadcast stream to be returned unchanged")
	}
}

func TestStream_AsBroadcastIdentity(t *testing.T) {
	s := NewStream(func(context.Context) <-chan int {
		ch := make(chan int)
		close(ch)
		return ch
	})
	if s.AsBroadcast() != s {
		t.Error("expected AsBroadcast to return the same stream")
	}
}
