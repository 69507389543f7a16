package ledger

import (
	"testing"
	"time"

	"vibecheck/internal/roster"
	"vibecheck/internal/shift"
)

func rec(id, personID, date string) Record {
	return Record{
		ID:         id,
		PersonID:   personID,
		PersonType: roster.KindStudent,
		Status:     shift.StatusPresent,
		ShiftName:  "Morning Shift",
		Date:       date,
	}
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2026, 8, 31, 23, 59, 0, 0, time.Local)
	if got := DateOf(ts); got != "2026-08-31" {
		t.Fatalf("DateOf = %s, want 2026-08-31", got)
	}
}

func TestAppendRejectsSameDayDuplicate(t *testing.T) {
	l := New(nil)
	if err := l.Append(rec("r1", "p1", "2026-08-31")); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := l.Append(rec("r2", "p1", "2026-08-31")); err != ErrDuplicateDay {
		t.Fatalf("expected ErrDuplicateDay, got %v", err)
	}
	if err := l.Append(rec("r3", "p1", "2026-09-01")); err != nil {
		t.Fatalf("next day append: %v", err)
	}
	if err := l.Append(rec("r4", "p2", "2026-08-31")); err != nil {
		t.Fatalf("other person append: %v", err)
	}
	if l.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", l.Len())
	}
}

func TestNewDropsLaterDuplicates(t *testing.T) {
	l := New([]Record{
		rec("r1", "p1", "2026-08-31"),
		rec("r2", "p1", "2026-08-31"),
	})
	if l.Len() != 1 {
		t.Fatalf("expected 1 record after dedup, got %d", l.Len())
	}
	got, ok := l.FindFor("p1", "2026-08-31")
	if !ok || got.ID != "r1" {
		t.Fatalf("expected first record kept, got %+v ok=%v", got, ok)
	}
}

func TestHasFor(t *testing.T) {
	l := New([]Record{rec("r1", "p1", "2026-08-31")})
	if !l.HasFor("p1", "2026-08-31") {
		t.Fatalf("expected record for p1 on 2026-08-31")
	}
	if l.HasFor("p1", "2026-09-01") || l.HasFor("p2", "2026-08-31") {
		t.Fatalf("unexpected record found")
	}
}

func TestRecordsReturnsCopy(t *testing.T) {
	l := New([]Record{rec("r1", "p1", "2026-08-31")})
	out := l.Records()
	out[0].ID = "tampered"
	if got, _ := l.FindFor("p1", "2026-08-31"); got.ID != "r1" {
		t.Fatalf("ledger storage was mutated through Records()")
	}
}
