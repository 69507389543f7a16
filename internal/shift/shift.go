package shift

import (
	"fmt"
	"strconv"
	"strings"
)

// Shift is a named daily attendance window. Start is when entry opens,
// Late is the on-time cutoff; a scan after Late is classified LATE.
type Shift struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Start string `json:"startTime"` // "HH:MM", local wall clock
	Late  string `json:"lateTime"`  // "HH:MM"
}

// ClockError reports a malformed HH:MM string. Shift clocks are validated
// where configuration enters the system; the resolver assumes they parse.
type ClockError struct {
	Value string
}

func (e *ClockError) Error() string {
	return fmt.Sprintf("malformed clock %q: want HH:MM", e.Value)
}

// ParseClock converts an "HH:MM" wall-clock string to minutes since midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, &ClockError{Value: s}
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, &ClockError{Value: s}
	}
	mins, err := strconv.Atoi(m)
	if err != nil || mins < 0 || mins > 59 {
		return 0, &ClockError{Value: s}
	}
	return hours*60 + mins, nil
}

// Validate checks that a shift's clocks parse and that it carries a name.
// Called at the configuration boundary so the resolver never sees bad input.
func (s Shift) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("shift %s: name required", s.ID)
	}
	if _, err := ParseClock(s.Start); err != nil {
		return fmt.Errorf("shift %q start: %w", s.Name, err)
	}
	if _, err := ParseClock(s.Late); err != nil {
		return fmt.Errorf("shift %q late cutoff: %w", s.Name, err)
	}
	return nil
}

// ValidateAll validates every shift in a configuration.
func ValidateAll(shifts []Shift) error {
	for _, s := range shifts {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
