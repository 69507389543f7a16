package analytics

import (
	"testing"
	"time"

	"vibecheck/internal/ledger"
	"vibecheck/internal/roster"
	"vibecheck/internal/shift"
)

func student(id, name, grade, section string) roster.Student {
	return roster.Student{ID: id, Name: name, Grade: grade, Section: section}
}

func rec(personID, date string, status shift.Status) ledger.Record {
	return ledger.Record{
		ID:         personID + "-" + date,
		PersonID:   personID,
		PersonType: roster.KindStudent,
		Status:     status,
		ShiftName:  "Morning Shift",
		Date:       date,
	}
}

func testRoster() roster.Roster {
	return roster.Roster{Students: []roster.Student{
		student("s1", "Aarav", "10", "A"),
		student("s2", "Zoya", "10", "A"),
		student("s3", "Ishaan", "11", "Science"),
		student("s4", "Mira", "11", "Science"),
	}}
}

func TestDailySnapshot(t *testing.T) {
	l := ledger.New([]ledger.Record{
		rec("s1", "2026-08-31", shift.StatusPresent),
		rec("s2", "2026-08-31", shift.StatusLate),
		rec("s3", "2026-08-30", shift.StatusPresent), // other day, ignored
	})

	snap := DailySnapshot("2026-08-31", testRoster(), l)
	if len(snap.Present) != 1 || snap.Present[0].ID != "s1" {
		t.Fatalf("present: %+v", snap.Present)
	}
	if len(snap.Late) != 1 || snap.Late[0].ID != "s2" {
		t.Fatalf("late: %+v", snap.Late)
	}
	if len(snap.Absent) != 2 {
		t.Fatalf("expected 2 absent, got %d", len(snap.Absent))
	}
}

func TestDailySnapshotIgnoresTeacherRecords(t *testing.T) {
	teacherRec := rec("s1", "2026-08-31", shift.StatusPresent)
	teacherRec.PersonType = roster.KindTeacher
	snap := DailySnapshot("2026-08-31", testRoster(), ledger.New([]ledger.Record{teacherRec}))
	if len(snap.Present) != 0 {
		t.Fatalf("teacher records must not count toward the student snapshot")
	}
}

func TestDailySummariesRangeAndFloor(t *testing.T) {
	l := ledger.New([]ledger.Record{
		rec("s1", "2026-08-30", shift.StatusPresent),
		rec("s2", "2026-08-30", shift.StatusLate),
		rec("s1", "2026-08-31", shift.StatusPresent),
	})

	since := time.Date(2026, 8, 29, 0, 0, 0, 0, time.Local)
	until := time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local)
	sums := DailySummaries(since, until, testRoster(), l)
	if len(sums) != 3 {
		t.Fatalf("expected 3 days, got %d", len(sums))
	}
	if sums[0].Date != "2026-08-29" || sums[2].Date != "2026-08-31" {
		t.Fatalf("wrong date bounds: %s .. %s", sums[0].Date, sums[2].Date)
	}
	if sums[0].Present != 0 || sums[0].Absent != 4 {
		t.Fatalf("empty day: %+v", sums[0])
	}
	if sums[1].Present != 1 || sums[1].Late != 1 || sums[1].Absent != 2 {
		t.Fatalf("2026-08-30: %+v", sums[1])
	}
}

func TestDailySummariesAbsentNeverNegative(t *testing.T) {
	// More records than current roster students, e.g. after deletions.
	l := ledger.New([]ledger.Record{
		rec("s1", "2026-08-31", shift.StatusPresent),
		rec("gone-1", "2026-08-31", shift.StatusPresent),
		rec("gone-2", "2026-08-31", shift.StatusPresent),
	})
	one := roster.Roster{Students: []roster.Student{student("s1", "Aarav", "10", "A")}}
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local)
	sums := DailySummaries(day, day, one, l)
	if sums[0].Absent != 0 {
		t.Fatalf("absent must floor at zero, got %d", sums[0].Absent)
	}
}

func TestClassPerformance(t *testing.T) {
	classes := []roster.ClassSection{
		{ID: "c1", Grade: "10", Section: "A"},
		{ID: "c2", Grade: "11", Section: "Science"},
		{ID: "c3", Grade: "12", Section: "Commerce"}, // nobody enrolled
	}
	l := ledger.New([]ledger.Record{
		rec("s1", "2026-08-31", shift.StatusPresent),
		rec("s2", "2026-08-31", shift.StatusLate),
		rec("s3", "2026-08-31", shift.StatusPresent),
	})

	standings := ClassPerformance("2026-08-31", testRoster(), classes, l)
	if len(standings) != 2 {
		t.Fatalf("empty classes must be excluded, got %d standings", len(standings))
	}
	// 10-A has 2/2 (late counts as attended), 11-Science 1/2.
	if standings[0].Name != "10-A" || standings[0].Percentage != 100 {
		t.Fatalf("first standing: %+v", standings[0])
	}
	if standings[1].Name != "11-Science" || standings[1].Percentage != 50 {
		t.Fatalf("second standing: %+v", standings[1])
	}
}

func TestClassPerformancePrefersExplicitClassID(t *testing.T) {
	r := roster.Roster{Students: []roster.Student{
		{ID: "s1", Name: "Aarav", Grade: "old", Section: "old", ClassID: "c1"},
	}}
	classes := []roster.ClassSection{{ID: "c1", Grade: "10", Section: "A"}}
	l := ledger.New([]ledger.Record{rec("s1", "2026-08-31", shift.StatusPresent)})

	standings := ClassPerformance("2026-08-31", r, classes, l)
	if len(standings) != 1 || standings[0].Percentage != 100 {
		t.Fatalf("class-id join failed: %+v", standings)
	}
}

func TestComputeInsights(t *testing.T) {
	// 10 distinct dates overall; s1 attends 3 of them, once late.
	var records []ledger.Record
	for day := 1; day <= 10; day++ {
		records = append(records, rec("s2", time.Date(2026, 8, day, 0, 0, 0, 0, time.Local).Format(ledger.DateLayout), shift.StatusPresent))
	}
	records = append(records,
		rec("s1", "2026-08-01", shift.StatusPresent),
		rec("s1", "2026-08-02", shift.StatusLate),
		rec("s1", "2026-08-03", shift.StatusPresent),
	)

	ins := ComputeInsights(testRoster(), ledger.New(records))
	if ins.TotalDays != 10 {
		t.Fatalf("TotalDays = %d, want 10", ins.TotalDays)
	}

	var s1 PersonInsight
	found := false
	for _, p := range ins.TopAbsent {
		if p.Student.ID == "s1" {
			s1, found = p, true
		}
	}
	if !found {
		t.Fatalf("s1 missing from TopAbsent: %+v", ins.TopAbsent)
	}
	if s1.AbsentCount != 7 || s1.AttendanceRate != 30 || s1.LateCount != 1 {
		t.Fatalf("s1 insight: %+v", s1)
	}

	if len(ins.TopLate) != 1 || ins.TopLate[0].Student.ID != "s1" {
		t.Fatalf("TopLate must hold only s1: %+v", ins.TopLate)
	}

	// s3 and s4 never scanned; s2 attended every day.
	if len(ins.NeverAttended) != 2 {
		t.Fatalf("NeverAttended: %+v", ins.NeverAttended)
	}
	for _, s := range ins.NeverAttended {
		if s.ID != "s3" && s.ID != "s4" {
			t.Fatalf("unexpected never-attended student %s", s.ID)
		}
	}
}

func TestInsightsEmptyLedger(t *testing.T) {
	ins := ComputeInsights(testRoster(), ledger.New(nil))
	if ins.TotalDays != 1 {
		t.Fatalf("TotalDays must floor at 1, got %d", ins.TotalDays)
	}
	if len(ins.TopLate) != 0 {
		t.Fatalf("no late records, got %v", ins.TopLate)
	}
	// The floored single day counts as one estimated absence per student.
	if len(ins.TopAbsent) != 4 {
		t.Fatalf("every student carries one estimated absence, got %v", ins.TopAbsent)
	}
	for _, p := range ins.TopAbsent {
		if p.AbsentCount != 1 {
			t.Fatalf("%s: AbsentCount = %d, want 1", p.Student.ID, p.AbsentCount)
		}
	}
	if len(ins.NeverAttended) != 4 {
		t.Fatalf("everyone is never-attended, got %d", len(ins.NeverAttended))
	}
}

func TestInsightsTopListsCapAtFive(t *testing.T) {
	var students []roster.Student
	var records []ledger.Record
	for i := 0; i < 8; i++ {
		id := string(rune('a' + i))
		students = append(students, student(id, "Student "+id, "10", "A"))
		records = append(records, rec(id, "2026-08-31", shift.StatusLate))
	}
	records = append(records, rec("a", "2026-08-30", shift.StatusLate))

	ins := ComputeInsights(roster.Roster{Students: students}, ledger.New(records))
	if len(ins.TopLate) != 5 {
		t.Fatalf("TopLate must cap at 5, got %d", len(ins.TopLate))
	}
	if ins.TopLate[0].Student.ID != "a" {
		t.Fatalf("most-late student must rank first: %+v", ins.TopLate[0])
	}
}

func TestWeekTrendCoversSevenDays(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.Local)
	l := ledger.New([]ledger.Record{rec("s1", "2026-08-31", shift.StatusPresent)})

	trend := WeekTrend(now, testRoster(), l)
	if len(trend) != 7 {
		t.Fatalf("want 7 days, got %d", len(trend))
	}
	if trend[0].Date != "2026-08-25" || trend[6].Date != "2026-08-31" {
		t.Fatalf("window bounds wrong: %s .. %s", trend[0].Date, trend[6].Date)
	}
	if trend[6].Present != 1 {
		t.Fatalf("last day present = %d, want 1", trend[6].Present)
	}
}
