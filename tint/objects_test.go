package tint

import (
	"slices"
	"testing"
)

func TestInitCurrentObjects(t *testing.T) {
	frame := testFrame(40, 40,
		testBlock{row: 2, col: 2, height: 6, width: 6, value: 40},
		testBlock{row: 2, col: 20, height: 6, width: 6, value: 40},
		testBlock{row: 20, col: 2, height: 6, width: 6, value: 40},
	)
	counter := NewCounter()
	counter.NextUID() // ids issued earlier in the session stay retired

	current := InitCurrentObjects(frame.Labels, Pairs{2, 0, 1}, counter)
	if !slices.Equal(current.Labels(), []int{1, 2, 3}) {
		t.Fatalf("Wrong labels: %v", current.Labels())
	}
	if !slices.Equal(current.UIDs(), []int{1, 2, 3}) {
		t.Errorf("Wrong uids: %v", current.UIDs())
	}
	for label, next := range map[int]int{1: 2, 2: 0, 3: 1} {
		if current[label].Next != next {
			t.Errorf("Label %d: next %d, expected %d", label, current[label].Next, next)
		}
		if current[label].Origin != NoOrigin || current[label].Observations != 0 {
			t.Errorf("Label %d: fresh object must have no origin and no observations: %+v", label, current[label])
		}
	}
	if counter.Issued() != 4 {
		t.Errorf("Wrong number of issued ids: %d", counter.Issued())
	}
}

func TestUpdateCurrentObjects(t *testing.T) {
	counter := NewCounter()
	old := CurrentObjects{
		1: {UID: 0, Next: 2, Origin: NoOrigin},
		2: {UID: 1, Next: 0, Origin: NoOrigin},
		3: {UID: 2, Next: 1, Observations: 4, Origin: NoOrigin},
	}
	counter.next = 3

	frame := testFrame(40, 40,
		testBlock{row: 2, col: 2, height: 6, width: 6, value: 40},
		testBlock{row: 2, col: 20, height: 6, width: 6, value: 40},
		testBlock{row: 30, col: 30, height: 6, width: 6, value: 40},
	)
	current := UpdateCurrentObjects(frame.Labels, Pairs{1, 0, 3}, old, counter, DefaultNearThresh)

	correct := CurrentObjects{
		1: {UID: 2, Next: 1, Observations: 5, Origin: NoOrigin},
		2: {UID: 0, Next: 0, Observations: 1, Origin: NoOrigin},
		3: {UID: 3, Next: 3, Observations: 0, Origin: NoOrigin},
	}
	for label, expected := range correct {
		if current[label] != expected {
			t.Errorf("Label %d: got %+v, expected %+v", label, current[label], expected)
		}
	}
	if len(current) != frame.Labels.Count {
		t.Errorf("Every object of the frame must hold a uid, got %d entries", len(current))
	}

	// The dead uid 1 must never come back
	for _, uid := range current.UIDs() {
		if uid == 1 {
			t.Errorf("Retired uid was reused: %v", current.UIDs())
		}
	}

	// The input state is not mutated
	if old[1].Next != 2 || len(old) != 3 {
		t.Errorf("Previous state was modified: %v", old)
	}
}

func TestUpdateCurrentObjectsOrigin(t *testing.T) {
	frame := testFrame(60, 60,
		testBlock{row: 20, col: 20, height: 10, width: 10, value: 40},
		testBlock{row: 20, col: 32, height: 6, width: 6, value: 40},
		testBlock{row: 45, col: 45, height: 6, width: 6, value: 40},
	)
	old := CurrentObjects{
		1: {UID: 7, Next: 1, Origin: NoOrigin},
	}
	counter := NewCounter()
	counter.next = 8
	current := UpdateCurrentObjects(frame.Labels, NewPairs(3), old, counter, DefaultNearThresh)

	if current[1].UID != 7 || current[1].Origin != NoOrigin {
		t.Errorf("Continuing object changed: %+v", current[1])
	}
	if current[2].UID != 8 || current[2].Origin != 7 {
		t.Errorf("Split object must originate from uid 7: %+v", current[2])
	}
	if current[3].UID != 9 || current[3].Origin != NoOrigin {
		t.Errorf("Distant birth must have no origin: %+v", current[3])
	}

	// A threshold of zero disables split detection
	current = UpdateCurrentObjects(frame.Labels, NewPairs(3), old, NewCounter(), 0)
	if current[2].Origin != NoOrigin {
		t.Errorf("Split detection must be disabled: %+v", current[2])
	}
}

func TestCurrentObjectsClone(t *testing.T) {
	current := CurrentObjects{
		1: {UID: 3, Next: 2, Origin: NoOrigin},
	}
	clone := current.Clone()
	clone[1] = TrackedObject{UID: 9}
	clone[2] = TrackedObject{UID: 10}
	if current[1].UID != 3 || len(current) != 1 {
		t.Errorf("Clone shares state with the original: %v", current)
	}
	var empty CurrentObjects
	if empty.Clone() != nil {
		t.Errorf("Clone of a nil state must be nil")
	}
}
