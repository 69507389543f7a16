package ledger

import (
	"errors"
	"time"

	"vibecheck/internal/roster"
	"vibecheck/internal/shift"
)

// DateLayout is the calendar-day key format used for dedup and grouping.
const DateLayout = "2006-01-02"

// DateOf truncates an instant to its local calendar day string.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// Record is one immutable attendance fact. Date is derived from Timestamp
// at creation time and is the dedup key together with PersonID.
type Record struct {
	ID         string       `json:"id"`
	PersonID   string       `json:"personId"`
	PersonType roster.Kind  `json:"type"`
	Status     shift.Status `json:"status"`
	ShiftName  string       `json:"shiftName"`
	Timestamp  int64        `json:"timestamp"` // unix millis, instant of scan
	Date       string       `json:"date"`      // local day, DateLayout
}

// Ledger is the append-only collection of attendance records. Records are
// never mutated or deleted once appended.
type Ledger struct {
	records []Record
	byKey   map[key]int
}

type key struct {
	personID string
	date     string
}

// ErrDuplicateDay guards the at-most-one-record-per-(person, day) invariant
// at the append boundary. Callers check HasFor first; this is the backstop.
var ErrDuplicateDay = errors.New("ledger: record already exists for person and date")

// New builds a ledger from existing records, e.g. a loaded snapshot.
// Later duplicates for the same (person, date) are dropped.
func New(records []Record) *Ledger {
	l := &Ledger{byKey: make(map[key]int, len(records))}
	for _, r := range records {
		k := key{r.PersonID, r.Date}
		if _, ok := l.byKey[k]; ok {
			continue
		}
		l.byKey[k] = len(l.records)
		l.records = append(l.records, r)
	}
	return l
}

// Append adds a new record, rejecting same-day duplicates.
func (l *Ledger) Append(r Record) error {
	k := key{r.PersonID, r.Date}
	if _, ok := l.byKey[k]; ok {
		return ErrDuplicateDay
	}
	if l.byKey == nil {
		l.byKey = make(map[key]int)
	}
	l.byKey[k] = len(l.records)
	l.records = append(l.records, r)
	return nil
}

// HasFor reports whether a record exists for the person on the given day.
func (l *Ledger) HasFor(personID, date string) bool {
	_, ok := l.byKey[key{personID, date}]
	return ok
}

// FindFor returns the person's record for the given day, if any.
func (l *Ledger) FindFor(personID, date string) (Record, bool) {
	i, ok := l.byKey[key{personID, date}]
	if !ok {
		return Record{}, false
	}
	return l.records[i], true
}

// Records returns the records in append order. The slice is a copy; the
// ledger's own storage stays immutable to callers.
func (l *Ledger) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }
