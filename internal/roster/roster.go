package roster

import (
	"errors"
	"fmt"
)

// Kind discriminates the two person variants carried by the roster.
type Kind string

const (
	KindStudent Kind = "STUDENT"
	KindTeacher Kind = "TEACHER"
)

// Student is an enrolled student. ID doubles as the scannable card token.
// Grade and Section are the legacy text join to a ClassSection; ClassID is
// the explicit foreign key and wins over the text match when set.
type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	GRNumber   string `json:"grNumber"` // general register number
	RollNumber string `json:"rollNumber"`
	Grade      string `json:"grade"`
	Section    string `json:"section"`
	ClassID    string `json:"classSectionId,omitempty"`
	Gender     string `json:"gender"`

	ParentName    string `json:"parentName"`
	ParentContact string `json:"parentContact"`
	DOB           string `json:"dob"` // YYYY-MM-DD
	BloodGroup    string `json:"bloodGroup"`
	Address       string `json:"address"`

	AvatarURL string `json:"avatarUrl"`
	CreatedAt int64  `json:"createdAt"`
}

// Teacher is a staff member. Teachers are the only editable person variant.
type Teacher struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Subject         string `json:"subject"`
	Contact         string `json:"contact"`
	Email           string `json:"email"`
	Qualification   string `json:"qualification"`
	Experience      string `json:"experience"`
	JoiningDate     string `json:"joiningDate"` // YYYY-MM-DD
	IsClassTeacher  bool   `json:"isClassTeacher"`
	AssignedClassID string `json:"assignedClassId,omitempty"`

	AvatarURL string `json:"avatarUrl"`
	CreatedAt int64  `json:"createdAt"`
}

// ClassSection groups students for enrollment and analytics.
type ClassSection struct {
	ID             string `json:"id"`
	Grade          string `json:"grade"`
	Section        string `json:"section"`
	Medium         string `json:"medium,omitempty"`
	ClassTeacherID string `json:"classTeacherId,omitempty"`
}

// Person is the tagged union handed to the scan processor. Exactly one of
// Student or Teacher is set, matching Kind.
type Person struct {
	Kind    Kind
	Student *Student
	Teacher *Teacher
}

// ID returns the variant's identifier.
func (p Person) ID() string {
	switch p.Kind {
	case KindStudent:
		return p.Student.ID
	case KindTeacher:
		return p.Teacher.ID
	}
	return ""
}

// Name returns the variant's display name.
func (p Person) Name() string {
	switch p.Kind {
	case KindStudent:
		return p.Student.Name
	case KindTeacher:
		return p.Teacher.Name
	}
	return ""
}

// Roster is the current set of registered students and teachers.
type Roster struct {
	Students []Student
	Teachers []Teacher
}

// ErrDuplicateID is returned when an add would break global ID uniqueness
// across both person variants. The scan pipeline depends on tokens mapping
// to at most one person.
var ErrDuplicateID = errors.New("roster: person id already registered")

// Find looks a token up against the roster, students first.
func (r Roster) Find(id string) (Person, bool) {
	for i := range r.Students {
		if r.Students[i].ID == id {
			return Person{Kind: KindStudent, Student: &r.Students[i]}, true
		}
	}
	for i := range r.Teachers {
		if r.Teachers[i].ID == id {
			return Person{Kind: KindTeacher, Teacher: &r.Teachers[i]}, true
		}
	}
	return Person{}, false
}

// AddStudent appends a student, enforcing ID uniqueness across variants.
func (r *Roster) AddStudent(s Student) error {
	if s.ID == "" || s.Name == "" {
		return errors.New("roster: student id and name required")
	}
	if _, ok := r.Find(s.ID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
	}
	r.Students = append(r.Students, s)
	return nil
}

// AddTeacher appends a teacher, enforcing ID uniqueness across variants.
func (r *Roster) AddTeacher(t Teacher) error {
	if t.ID == "" || t.Name == "" {
		return errors.New("roster: teacher id and name required")
	}
	if _, ok := r.Find(t.ID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	r.Teachers = append(r.Teachers, t)
	return nil
}

// UpdateTeacher replaces the teacher with a matching ID.
func (r *Roster) UpdateTeacher(t Teacher) error {
	for i := range r.Teachers {
		if r.Teachers[i].ID == t.ID {
			r.Teachers[i] = t
			return nil
		}
	}
	return fmt.Errorf("roster: teacher %s not found", t.ID)
}

// RemoveStudent deletes a student by id. Ledger entries referencing the
// person are left untouched; the ledger is append-only.
func (r *Roster) RemoveStudent(id string) bool {
	for i := range r.Students {
		if r.Students[i].ID == id {
			r.Students = append(r.Students[:i], r.Students[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveTeacher deletes a teacher by id.
func (r *Roster) RemoveTeacher(id string) bool {
	for i := range r.Teachers {
		if r.Teachers[i].ID == id {
			r.Teachers = append(r.Teachers[:i], r.Teachers[i+1:]...)
			return true
		}
	}
	return false
}

// InClass reports whether a student belongs to the class, preferring the
// explicit ClassID and falling back to the legacy grade/section text match
// for data created before the key existed.
func InClass(s Student, c ClassSection) bool {
	if s.ClassID != "" {
		return s.ClassID == c.ID
	}
	return s.Grade == c.Grade && s.Section == c.Section
}
