// Package state owns the engine's working data: school details, roster,
// classes and the attendance ledger. It loads and saves each collection
// through the snapshot repository and hands value snapshots to the pure
// engine pieces, so nothing else shares mutable state.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"vibecheck/internal/analytics"
	"vibecheck/internal/ledger"
	"vibecheck/internal/roster"
	"vibecheck/internal/scan"
	"vibecheck/internal/shift"
	"vibecheck/internal/store"
)

// SchoolDetails is the school profile including its shift configuration.
type SchoolDetails struct {
	Name            string        `json:"name"`
	Address         string        `json:"address"`
	LogoURL         string        `json:"logoUrl,omitempty"`
	EstablishedYear string        `json:"establishedYear,omitempty"`
	Shifts          []shift.Shift `json:"shifts"`
}

// Store is the single owner of the engine's collections.
type Store struct {
	mu      sync.RWMutex
	snaps   store.Snapshots
	school  SchoolDetails
	roster  roster.Roster
	classes []roster.ClassSection
	ledger  *ledger.Ledger
}

// NewStore creates an empty store backed by the snapshot repository.
func NewStore(snaps store.Snapshots) *Store {
	return &Store{snaps: snaps, ledger: ledger.New(nil)}
}

// Load reads every namespace. Missing namespaces load as empty collections.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadJSON(ctx, store.NSSchool, &s.school); err != nil {
		return err
	}
	if err := shift.ValidateAll(s.school.Shifts); err != nil {
		return fmt.Errorf("stored shift configuration: %w", err)
	}
	if err := s.loadJSON(ctx, store.NSStudents, &s.roster.Students); err != nil {
		return err
	}
	if err := s.loadJSON(ctx, store.NSTeachers, &s.roster.Teachers); err != nil {
		return err
	}
	if err := s.loadJSON(ctx, store.NSClasses, &s.classes); err != nil {
		return err
	}
	var records []ledger.Record
	if err := s.loadJSON(ctx, store.NSAttendance, &records); err != nil {
		return err
	}
	s.ledger = ledger.New(records)
	return nil
}

func (s *Store) loadJSON(ctx context.Context, ns string, v any) error {
	data, err := s.snaps.Load(ctx, ns)
	if err != nil {
		return fmt.Errorf("load %s: %w", ns, err)
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", ns, err)
	}
	return nil
}

func (s *Store) saveJSON(ctx context.Context, ns string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ns, err)
	}
	if err := s.snaps.Save(ctx, ns, data); err != nil {
		return fmt.Errorf("save %s: %w", ns, err)
	}
	return nil
}

// School returns a copy of the school profile.
func (s *Store) School() SchoolDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.school
	out.Shifts = append([]shift.Shift(nil), s.school.Shifts...)
	return out
}

// SetSchool validates the shift configuration fail-fast and replaces the
// profile. Malformed clocks never make it past this boundary.
func (s *Store) SetSchool(ctx context.Context, details SchoolDetails) error {
	if err := shift.ValidateAll(details.Shifts); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.school = details
	return s.saveJSON(ctx, store.NSSchool, s.school)
}

// Roster returns a copy of the current roster.
func (s *Store) Roster() roster.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return roster.Roster{
		Students: append([]roster.Student(nil), s.roster.Students...),
		Teachers: append([]roster.Teacher(nil), s.roster.Teachers...),
	}
}

// Classes returns a copy of the class list.
func (s *Store) Classes() []roster.ClassSection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]roster.ClassSection(nil), s.classes...)
}

// AddStudent registers a student and saves the students namespace.
func (s *Store) AddStudent(ctx context.Context, st roster.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.roster.AddStudent(st); err != nil {
		return err
	}
	return s.saveJSON(ctx, store.NSStudents, s.roster.Students)
}

// RemoveStudent deletes a student by id.
func (s *Store) RemoveStudent(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.roster.RemoveStudent(id) {
		return false, nil
	}
	return true, s.saveJSON(ctx, store.NSStudents, s.roster.Students)
}

// AddTeacher registers a teacher and saves the teachers namespace.
func (s *Store) AddTeacher(ctx context.Context, t roster.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.roster.AddTeacher(t); err != nil {
		return err
	}
	return s.saveJSON(ctx, store.NSTeachers, s.roster.Teachers)
}

// UpdateTeacher edits a teacher in place. Teachers are the only person
// variant with an edit operation.
func (s *Store) UpdateTeacher(ctx context.Context, t roster.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.roster.UpdateTeacher(t); err != nil {
		return err
	}
	return s.saveJSON(ctx, store.NSTeachers, s.roster.Teachers)
}

// RemoveTeacher deletes a teacher by id.
func (s *Store) RemoveTeacher(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.roster.RemoveTeacher(id) {
		return false, nil
	}
	return true, s.saveJSON(ctx, store.NSTeachers, s.roster.Teachers)
}

// AddClass registers a class section.
func (s *Store) AddClass(ctx context.Context, c roster.ClassSection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes = append(s.classes, c)
	return s.saveJSON(ctx, store.NSClasses, s.classes)
}

// RemoveClass deletes a class section by id.
func (s *Store) RemoveClass(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.classes {
		if s.classes[i].ID == id {
			s.classes = append(s.classes[:i], s.classes[i+1:]...)
			return true, s.saveJSON(ctx, store.NSClasses, s.classes)
		}
	}
	return false, nil
}

// RecordScan runs the scan processor against the current snapshot and, when
// a record is produced, appends it and saves the attendance namespace. The
// check and the append happen under one lock, so the per-(person, day)
// invariant holds even with concurrent callers. A failed save leaves the
// in-memory record in place and is never retried by re-appending.
func (s *Store) RecordScan(ctx context.Context, token string, now time.Time) (scan.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := scan.Process(token, s.roster, s.ledger, s.school.Shifts, now)
	if res.Record == nil {
		return res, nil
	}
	if err := s.ledger.Append(*res.Record); err != nil {
		return res, err
	}
	return res, s.saveJSON(ctx, store.NSAttendance, s.ledger.Records())
}

// DailySnapshot partitions students into present/late/absent for a date.
func (s *Store) DailySnapshot(date string) analytics.DaySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.DailySnapshot(date, s.roster, s.ledger)
}

// DailySummaries returns per-day counts between two local days inclusive.
func (s *Store) DailySummaries(since, until time.Time) []analytics.DaySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.DailySummaries(since, until, s.roster, s.ledger)
}

// ClassPerformance ranks classes by attendance share for a date.
func (s *Store) ClassPerformance(date string) []analytics.ClassStanding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.ClassPerformance(date, s.roster, s.classes, s.ledger)
}

// Insights computes the all-time behaviour rollup.
func (s *Store) Insights() analytics.Insights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.ComputeInsights(s.roster, s.ledger)
}
