package bloc

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorRing_Disabled(t *testing.T) {
	r := newErrorRing(0)
	if r != nil {
		t.Fatal("expected nil ring for size 0")
	}
	r.push(ProcessingError{Err: errors.New("ignored")})
	if got := r.all(); got != nil {
		t.Errorf("expected nil history from disabled ring, got %v", got)
	}
}

func TestErrorRing_Empty(t *testing.T) {
	r := newErrorRing(3)
	if got := r.all(); got != nil {
		t.Errorf("expected nil from empty ring, got %v", got)
	}
}

func TestErrorRing_OldestFirst(t *testing.T) {
	r := newErrorRing(3)
	for i := 0; i < 3; i++ {
		r.push(ProcessingError{Err: fmt.Errorf("e%d", i)})
	}

	got := r.all()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, perr := range got {
		if want := fmt.Sprintf("e%d", i); perr.Err.Error() != want {
			t.Errorf("entry %d: expected %q, got %q", i, want, perr.Err.Error())
		}
	}
}

func TestErrorRing_EvictsOldest(t *testing.T) {
	r := newErrorRing(2)
	for i := 0; i < 5; i++ {
		r.push(ProcessingError{Err: fmt.Errorf("e%d", i)})
	}

	got := r.all()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Err.Error() != "e3" || got[1].Err.Error() != "e4" {
		t.Errorf("expected [e3 e4], got [%v %v]", got[0].Err, got[1].Err)
	}
}
