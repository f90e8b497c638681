package bloc

import "testing"

func TestTransition_String(t *testing.T) {
	tr := Transition[string, int]{Current: 1, Event: "tick", Next: 2}
	want := "Transition{Current: 1, Event: tick, Next: 2}"
	if got := tr.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTransition_Change(t *testing.T) {
	tr := Transition[string, int]{Current: 1, Event: "tick", Next: 2}
	ch := tr.change()
	if ch.Current != 1 || ch.Next != 2 {
		t.Errorf("expected Change{1 2}, got %+v", ch)
	}
}

func TestTransition_Record(t *testing.T) {
	tr := Transition[string, int]{Current: 1, Event: "tick", Next: 2}
	rec := tr.record()
	if rec.Current != 1 || rec.Event != "tick" || rec.Next != 2 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestChange_String(t *testing.T) {
	ch := Change[int]{Current: 1, Next: 2}
	want := "Change{Current: 1, Next: 2}"
	if got := ch.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestChange_Record(t *testing.T) {
	ch := Change[int]{Current: 1, Next: 2}
	rec := ch.record()
	if rec.Current != 1 || rec.Next != 2 {
		t.Errorf("unexpected record: %+v", rec)
	}
}
