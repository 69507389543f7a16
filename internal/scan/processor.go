// Package scan turns decoded card tokens into attendance records. The
// processor is pure: it reads the roster and ledger snapshots it is handed
// and returns the record for the caller to append, never writing anything
// itself. Unknown tokens and duplicate same-day scans are normal outcomes
// carried on the feedback channel, not errors.
package scan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"vibecheck/internal/ledger"
	"vibecheck/internal/roster"
	"vibecheck/internal/shift"
)

// FeedbackKind drives how a capture station presents the outcome.
type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "SUCCESS"
	FeedbackWarning FeedbackKind = "WARNING"
	FeedbackError   FeedbackKind = "ERROR"
)

// Feedback is the transient display/narration payload for one scan. It is
// ephemeral and must not be persisted.
type Feedback struct {
	Text      string       `json:"text"`
	Kind      FeedbackKind `json:"kind"`
	Narration string       `json:"narration"` // spoken line for voice dispatch
}

// Outcome labels how the processor classified the scan, independent of the
// feedback wording.
type Outcome string

const (
	OutcomePresent   Outcome = "present"
	OutcomeLate      Outcome = "late"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeUnknown   Outcome = "unknown"
)

// Result pairs the optional new record with its feedback. Record is nil for
// unknown tokens and duplicate scans.
type Result struct {
	Record   *ledger.Record
	Outcome  Outcome
	Feedback Feedback
}

// Process matches a decoded token against the roster, dedups per calendar
// day, classifies the scan against the shift configuration, and builds the
// new record. The caller owns appending the record to the ledger.
func Process(token string, r roster.Roster, l *ledger.Ledger, shifts []shift.Shift, now time.Time) Result {
	person, ok := r.Find(token)
	if !ok {
		return Result{Outcome: OutcomeUnknown, Feedback: Feedback{
			Text:      "Unknown ID Card",
			Kind:      FeedbackError,
			Narration: "Unknown ID",
		}}
	}

	date := ledger.DateOf(now)
	if l.HasFor(person.ID(), date) {
		return Result{Outcome: OutcomeDuplicate, Feedback: Feedback{
			Text:      fmt.Sprintf("%s is already present!", person.Name()),
			Kind:      FeedbackError,
			Narration: fmt.Sprintf("Already scanned, %s", person.Name()),
		}}
	}

	match := shift.Resolve(shifts, now)
	rec := ledger.Record{
		ID:         uuid.NewString(),
		PersonID:   person.ID(),
		PersonType: person.Kind,
		Status:     match.Status,
		ShiftName:  match.ShiftName,
		Timestamp:  now.UnixMilli(),
		Date:       date,
	}

	outcome := OutcomePresent
	fb := Feedback{
		Text:      fmt.Sprintf("Marked PRESENT (%s): %s", match.ShiftName, person.Name()),
		Kind:      FeedbackSuccess,
		Narration: fmt.Sprintf("Welcome, %s", person.Name()),
	}
	if match.Status == shift.StatusLate {
		outcome = OutcomeLate
		fb = Feedback{
			Text:      fmt.Sprintf("Marked LATE (%s): %s", match.ShiftName, person.Name()),
			Kind:      FeedbackWarning,
			Narration: fmt.Sprintf("Late entry, %s", person.Name()),
		}
	}
	return Result{Record: &rec, Outcome: outcome, Feedback: fb}
}
