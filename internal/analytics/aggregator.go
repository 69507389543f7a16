// Package analytics derives rollup views from the ledger and a roster
// snapshot. Every operation recomputes from the full collections it is
// given; nothing here is incrementally maintained.
package analytics

import (
	"math"
	"sort"
	"time"

	"vibecheck/internal/ledger"
	"vibecheck/internal/roster"
	"vibecheck/internal/shift"
)

// DaySnapshot partitions the student roster for one calendar day.
// Absent is everyone with no record that day, so its length always equals
// total students minus attended.
type DaySnapshot struct {
	Date    string           `json:"date"`
	Present []roster.Student `json:"present"`
	Late    []roster.Student `json:"late"`
	Absent  []roster.Student `json:"absent"`
}

// DailySnapshot builds the present/late/absent partition for a date.
func DailySnapshot(date string, r roster.Roster, l *ledger.Ledger) DaySnapshot {
	attended := make(map[string]shift.Status)
	for _, rec := range l.Records() {
		if rec.Date == date && rec.PersonType == roster.KindStudent {
			attended[rec.PersonID] = rec.Status
		}
	}

	snap := DaySnapshot{Date: date}
	for _, s := range r.Students {
		switch attended[s.ID] {
		case shift.StatusPresent:
			snap.Present = append(snap.Present, s)
		case shift.StatusLate:
			snap.Late = append(snap.Late, s)
		default:
			snap.Absent = append(snap.Absent, s)
		}
	}
	return snap
}

// DaySummary holds per-day counts for trend views. Absent is a floor-at-zero
// estimate against the current roster size; past roster changes are not
// reconstructed.
type DaySummary struct {
	Date    string `json:"date"`
	Day     string `json:"day"` // short weekday name
	Present int    `json:"present"`
	Late    int    `json:"late"`
	Absent  int    `json:"absent"`
}

// DailySummaries returns one summary per calendar day from since through
// until inclusive, in date order. Both bounds are local days.
func DailySummaries(since, until time.Time, r roster.Roster, l *ledger.Ledger) []DaySummary {
	counts := make(map[string]*DaySummary)
	for _, rec := range l.Records() {
		if rec.PersonType != roster.KindStudent {
			continue
		}
		c, ok := counts[rec.Date]
		if !ok {
			c = &DaySummary{Date: rec.Date}
			counts[rec.Date] = c
		}
		if rec.Status == shift.StatusLate {
			c.Late++
		} else {
			c.Present++
		}
	}

	total := len(r.Students)
	var out []DaySummary
	for d := since; !d.After(until); d = d.AddDate(0, 0, 1) {
		date := ledger.DateOf(d)
		sum := DaySummary{Date: date, Day: d.Format("Mon")}
		if c, ok := counts[date]; ok {
			sum.Present = c.Present
			sum.Late = c.Late
		}
		if absent := total - (sum.Present + sum.Late); absent > 0 {
			sum.Absent = absent
		}
		out = append(out, sum)
	}
	return out
}

// WeekTrend is the 7 calendar days ending at now.
func WeekTrend(now time.Time, r roster.Roster, l *ledger.Ledger) []DaySummary {
	return DailySummaries(now.AddDate(0, 0, -6), now, r, l)
}

// ClassStanding ranks one class by the share of its students who attended
// (PRESENT or LATE) on the day.
type ClassStanding struct {
	ClassID    string `json:"classId"`
	Name       string `json:"name"` // "grade-section"
	Percentage int    `json:"percentage"`
	Attended   int    `json:"attended"`
	Total      int    `json:"total"`
}

// ClassPerformance computes per-class attendance percentages for a date,
// descending. Classes with no enrolled students are excluded entirely
// rather than shown as 0%.
func ClassPerformance(date string, r roster.Roster, classes []roster.ClassSection, l *ledger.Ledger) []ClassStanding {
	attended := make(map[string]bool)
	for _, rec := range l.Records() {
		if rec.Date == date && rec.PersonType == roster.KindStudent {
			attended[rec.PersonID] = true
		}
	}

	var out []ClassStanding
	for _, c := range classes {
		total, count := 0, 0
		for _, s := range r.Students {
			if !roster.InClass(s, c) {
				continue
			}
			total++
			if attended[s.ID] {
				count++
			}
		}
		if total == 0 {
			continue
		}
		out = append(out, ClassStanding{
			ClassID:    c.ID,
			Name:       c.Grade + "-" + c.Section,
			Percentage: int(math.Round(float64(count) / float64(total) * 100)),
			Attended:   count,
			Total:      total,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percentage > out[j].Percentage
	})
	return out
}

// PersonInsight is one student's all-time attendance behaviour. AbsentCount
// is totalDays minus attended days and can overestimate for students who
// joined after tracking began.
type PersonInsight struct {
	Student        roster.Student `json:"student"`
	LateCount      int            `json:"lateCount"`
	AbsentCount    int            `json:"absentCount"`
	AttendanceRate int            `json:"attendanceRate"` // percent, rounded
}

// Insights is the historical behaviour rollup.
type Insights struct {
	TotalDays     int              `json:"totalDays"`
	TopLate       []PersonInsight  `json:"topLate"`
	TopAbsent     []PersonInsight  `json:"topAbsent"`
	NeverAttended []roster.Student `json:"neverAttended"`
}

const insightsTop = 5

// ComputeInsights derives chronic-lateness, chronic-absence and
// never-attended views over the whole ledger. TotalDays is the count of
// distinct dates anywhere in the ledger, floored at 1 so rates divide.
func ComputeInsights(r roster.Roster, l *ledger.Ledger) Insights {
	dates := make(map[string]struct{})
	presentBy := make(map[string]int)
	lateBy := make(map[string]int)
	for _, rec := range l.Records() {
		dates[rec.Date] = struct{}{}
		presentBy[rec.PersonID]++ // late still counts as attended
		if rec.Status == shift.StatusLate {
			lateBy[rec.PersonID]++
		}
	}
	totalDays := len(dates)
	if totalDays == 0 {
		totalDays = 1
	}

	all := make([]PersonInsight, 0, len(r.Students))
	for _, s := range r.Students {
		present := presentBy[s.ID]
		all = append(all, PersonInsight{
			Student:        s,
			LateCount:      lateBy[s.ID],
			AbsentCount:    totalDays - present,
			AttendanceRate: int(math.Round(float64(present) / float64(totalDays) * 100)),
		})
	}

	ins := Insights{TotalDays: totalDays}
	ins.TopLate = topBy(all, func(p PersonInsight) int { return p.LateCount })
	ins.TopAbsent = topBy(all, func(p PersonInsight) int { return p.AbsentCount })
	for _, p := range all {
		if p.AttendanceRate == 0 {
			ins.NeverAttended = append(ins.NeverAttended, p.Student)
		}
	}
	return ins
}

// topBy returns the top insights by a metric, descending, capped at
// insightsTop and excluding zero counts.
func topBy(all []PersonInsight, metric func(PersonInsight) int) []PersonInsight {
	sorted := make([]PersonInsight, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return metric(sorted[i]) > metric(sorted[j])
	})
	if len(sorted) > insightsTop {
		sorted = sorted[:insightsTop]
	}
	var out []PersonInsight
	for _, p := range sorted {
		if metric(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}
