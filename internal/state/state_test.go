package state

import (
	"context"
	"testing"
	"time"

	"vibecheck/internal/roster"
	"vibecheck/internal/scan"
	"vibecheck/internal/shift"
	"vibecheck/internal/store"
)

var testShifts = []shift.Shift{
	{ID: "s1", Name: "Morning Shift", Start: "07:30", Late: "08:00"},
}

func newTestStore(t *testing.T) (*Store, store.Snapshots) {
	t.Helper()
	snaps := store.NewMemSnapshots()
	s := NewStore(snaps)
	ctx := context.Background()
	if err := s.SetSchool(ctx, SchoolDetails{Name: "Riverdale High", Shifts: testShifts}); err != nil {
		t.Fatalf("set school: %v", err)
	}
	if err := s.AddStudent(ctx, roster.Student{ID: "stu-1", Name: "Aarav Mehta", Grade: "10", Section: "A"}); err != nil {
		t.Fatalf("add student: %v", err)
	}
	return s, snaps
}

func TestSetSchoolValidatesShifts(t *testing.T) {
	s := NewStore(store.NewMemSnapshots())
	bad := SchoolDetails{Name: "X", Shifts: []shift.Shift{{ID: "s1", Name: "Morning", Start: "7h30", Late: "08:00"}}}
	if err := s.SetSchool(context.Background(), bad); err == nil {
		t.Fatalf("malformed clock must be rejected at the boundary")
	}
}

func TestRecordScanAppendsAndPersists(t *testing.T) {
	s, snaps := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 7, 45, 0, 0, time.Local)

	res, err := s.RecordScan(ctx, "stu-1", now)
	if err != nil {
		t.Fatalf("record scan: %v", err)
	}
	if res.Record == nil || res.Feedback.Kind != scan.FeedbackSuccess {
		t.Fatalf("unexpected result: %+v", res)
	}

	// A fresh store loading the same snapshots sees the record.
	reloaded := NewStore(snaps)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	again, err := reloaded.RecordScan(ctx, "stu-1", now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if again.Record != nil || again.Feedback.Kind != scan.FeedbackError {
		t.Fatalf("same-day rescan after reload must dedup: %+v", again)
	}
}

func TestRecordScanDuplicateProducesNoRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 7, 45, 0, 0, time.Local)

	if _, err := s.RecordScan(ctx, "stu-1", now); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	for i := 0; i < 3; i++ {
		res, err := s.RecordScan(ctx, "stu-1", now.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("repeat scan %d: %v", i, err)
		}
		if res.Record != nil {
			t.Fatalf("repeat scan %d produced a record", i)
		}
	}
	if got := s.DailySnapshot("2026-08-31"); len(got.Present) != 1 {
		t.Fatalf("expected exactly one present student, got %d", len(got.Present))
	}
}

func TestRecordScanUnknownToken(t *testing.T) {
	s, _ := newTestStore(t)
	res, err := s.RecordScan(context.Background(), "XYZ123", time.Now())
	if err != nil {
		t.Fatalf("unknown token must not error: %v", err)
	}
	if res.Record != nil || res.Feedback.Text != "Unknown ID Card" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	s, snaps := newTestStore(t)
	ctx := context.Background()
	if err := s.AddTeacher(ctx, roster.Teacher{ID: "tea-1", Name: "Priya Nair", Subject: "Physics"}); err != nil {
		t.Fatalf("add teacher: %v", err)
	}
	if err := s.AddClass(ctx, roster.ClassSection{ID: "c1", Grade: "10", Section: "A"}); err != nil {
		t.Fatalf("add class: %v", err)
	}

	reloaded := NewStore(snaps)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if reloaded.School().Name != "Riverdale High" {
		t.Fatalf("school lost: %+v", reloaded.School())
	}
	r := reloaded.Roster()
	if len(r.Students) != 1 || len(r.Teachers) != 1 {
		t.Fatalf("roster lost: %+v", r)
	}
	if len(reloaded.Classes()) != 1 {
		t.Fatalf("classes lost")
	}
}

func TestDuplicateIDAcrossVariants(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.AddTeacher(context.Background(), roster.Teacher{ID: "stu-1", Name: "Impostor"})
	if err == nil {
		t.Fatalf("id shared with a student must be rejected")
	}
}
