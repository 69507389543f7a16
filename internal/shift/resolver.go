package shift

import (
	"sort"
	"time"
)

// Status classifies a scan against the matched shift's late cutoff.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusLate    Status = "LATE"
)

// DefaultShiftName labels records made with no shift configuration.
const DefaultShiftName = "Regular"

// Match is the outcome of resolving a scan time against the configuration.
type Match struct {
	ShiftName string
	Status    Status
}

// Resolve selects the shift whose start time is nearest to now (by absolute
// minute distance, not window containment) and classifies the scan against
// that shift's late cutoff. Ties go to the earlier-starting shift. With no
// shifts configured there is no lateness concept and everyone is PRESENT.
//
// Pure and total for validated shifts; malformed clocks are a caller bug
// (Validate at the configuration boundary) and resolve as midnight here.
func Resolve(shifts []Shift, now time.Time) Match {
	if len(shifts) == 0 {
		return Match{ShiftName: DefaultShiftName, Status: StatusPresent}
	}

	nowMins := now.Hour()*60 + now.Minute()

	sorted := make([]Shift, len(shifts))
	copy(sorted, shifts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	best := sorted[0]
	bestDiff := -1
	for _, s := range sorted {
		start, _ := ParseClock(s.Start)
		diff := nowMins - start
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			bestDiff = diff
			best = s
		}
	}

	status := StatusPresent
	late, _ := ParseClock(best.Late)
	if nowMins > late {
		status = StatusLate
	}
	return Match{ShiftName: best.Name, Status: status}
}
