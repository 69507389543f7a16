package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// Logical namespaces under which the engine's entities are persisted as
// opaque JSON snapshots, one row each.
const (
	NSSchool     = "school"
	NSStudents   = "students"
	NSTeachers   = "teachers"
	NSClasses    = "classes"
	NSAttendance = "attendance"
	NSUsers      = "users"
)

// Snapshots loads and saves whole-namespace blobs. The engine treats the
// payload as opaque; round-tripping must preserve it byte for byte.
type Snapshots interface {
	Load(ctx context.Context, namespace string) ([]byte, error)
	Save(ctx context.Context, namespace string, data []byte) error
}

// PGSnapshots persists namespace snapshots in a single Postgres table.
type PGSnapshots struct {
	db *sql.DB
}

// NewPGSnapshots creates the Postgres-backed snapshot repository.
func NewPGSnapshots(db *sql.DB) *PGSnapshots {
	return &PGSnapshots{db: db}
}

// Load returns the stored blob for a namespace, or nil when none exists.
func (s *PGSnapshots) Load(ctx context.Context, namespace string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT data FROM snapshots WHERE namespace = $1
	`, namespace)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Save upserts the blob for a namespace.
func (s *PGSnapshots) Save(ctx context.Context, namespace string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (namespace, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (namespace) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, namespace, data)
	return err
}

// MemSnapshots is an in-memory snapshot store for dev and tests.
type MemSnapshots struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemSnapshots creates an empty in-memory snapshot store.
func NewMemSnapshots() *MemSnapshots {
	return &MemSnapshots{m: make(map[string][]byte)}
}

// Load returns a copy of the stored blob, or nil when none exists.
func (s *MemSnapshots) Load(_ context.Context, namespace string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.m[namespace]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save stores a copy of the blob.
func (s *MemSnapshots) Save(_ context.Context, namespace string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.m[namespace] = cp
	return nil
}
