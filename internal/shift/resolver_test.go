package shift

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 8, 31, hour, min, 0, 0, time.Local)
}

func TestResolveNoShifts(t *testing.T) {
	got := Resolve(nil, at(9, 0))
	if got.ShiftName != DefaultShiftName || got.Status != StatusPresent {
		t.Fatalf("expected Regular/PRESENT, got %s/%s", got.ShiftName, got.Status)
	}
}

func TestResolveSingleShift(t *testing.T) {
	shifts := []Shift{{ID: "s1", Name: "Morning Shift", Start: "07:30", Late: "08:00"}}

	got := Resolve(shifts, at(7, 45))
	if got.ShiftName != "Morning Shift" || got.Status != StatusPresent {
		t.Fatalf("07:45: expected Morning Shift/PRESENT, got %s/%s", got.ShiftName, got.Status)
	}

	got = Resolve(shifts, at(8, 15))
	if got.Status != StatusLate {
		t.Fatalf("08:15: expected LATE, got %s", got.Status)
	}
}

func TestResolveLateCutoffIsInclusive(t *testing.T) {
	shifts := []Shift{{ID: "s1", Name: "Morning Shift", Start: "07:30", Late: "08:00"}}
	// Equality with the cutoff is still on time; only strictly-after is late.
	if got := Resolve(shifts, at(8, 0)); got.Status != StatusPresent {
		t.Fatalf("08:00 sharp: expected PRESENT, got %s", got.Status)
	}
	if got := Resolve(shifts, at(8, 1)); got.Status != StatusLate {
		t.Fatalf("08:01: expected LATE, got %s", got.Status)
	}
}

func TestResolveNearestStartWins(t *testing.T) {
	shifts := []Shift{
		{ID: "s1", Name: "Morning Shift", Start: "07:30", Late: "08:00"},
		{ID: "s2", Name: "Afternoon Shift", Start: "12:00", Late: "12:30"},
	}

	// 11:50 is 260 minutes from the first start but only 10 from the second,
	// and still before the 12:30 cutoff.
	got := Resolve(shifts, at(11, 50))
	if got.ShiftName != "Afternoon Shift" || got.Status != StatusPresent {
		t.Fatalf("11:50: expected Afternoon Shift/PRESENT, got %s/%s", got.ShiftName, got.Status)
	}

	// 07:40 clearly belongs to the morning shift.
	got = Resolve(shifts, at(7, 40))
	if got.ShiftName != "Morning Shift" {
		t.Fatalf("07:40: expected Morning Shift, got %s", got.ShiftName)
	}

	// 13:00 is past the afternoon cutoff.
	got = Resolve(shifts, at(13, 0))
	if got.ShiftName != "Afternoon Shift" || got.Status != StatusLate {
		t.Fatalf("13:00: expected Afternoon Shift/LATE, got %s/%s", got.ShiftName, got.Status)
	}
}

func TestResolveTieGoesToEarlierStart(t *testing.T) {
	// 09:45 is 45 minutes from both starts; the earlier shift wins. Listing
	// order must not matter.
	shifts := []Shift{
		{ID: "s2", Name: "Second", Start: "10:30", Late: "11:00"},
		{ID: "s1", Name: "First", Start: "09:00", Late: "09:30"},
	}
	got := Resolve(shifts, at(9, 45))
	if got.ShiftName != "First" {
		t.Fatalf("tie: expected First, got %s", got.ShiftName)
	}
}

func TestResolveDeterministic(t *testing.T) {
	shifts := []Shift{
		{ID: "s1", Name: "Morning Shift", Start: "07:30", Late: "08:00"},
		{ID: "s2", Name: "Afternoon Shift", Start: "12:00", Late: "12:30"},
	}
	now := at(10, 17)
	first := Resolve(shifts, now)
	for i := 0; i < 10; i++ {
		if got := Resolve(shifts, now); got != first {
			t.Fatalf("resolve not deterministic: %v vs %v", got, first)
		}
	}
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	shifts := []Shift{
		{ID: "s2", Name: "Second", Start: "12:00", Late: "12:30"},
		{ID: "s1", Name: "First", Start: "07:30", Late: "08:00"},
	}
	Resolve(shifts, at(9, 0))
	if shifts[0].ID != "s2" || shifts[1].ID != "s1" {
		t.Fatalf("input slice was reordered")
	}
}
