package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vibecheck/internal/store"
)

// User is a local admin account for the capture console.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	SchoolName   string `json:"schoolName,omitempty"`
}

var (
	// ErrEmailTaken rejects a second signup with the same address.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrBadCredentials covers both unknown email and wrong password.
	ErrBadCredentials = errors.New("auth: invalid email or password")
)

// UserStore keeps admin accounts, persisted as one snapshot namespace.
type UserStore struct {
	mu    sync.Mutex
	snaps store.Snapshots
	users []User
}

// NewUserStore creates a store backed by the snapshot repository.
func NewUserStore(snaps store.Snapshots) *UserStore {
	return &UserStore{snaps: snaps}
}

// Load reads the users namespace. A missing snapshot means no accounts yet.
func (s *UserStore) Load(ctx context.Context) error {
	data, err := s.snaps.Load(ctx, store.NSUsers)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, &s.users)
}

// SignUp registers an account with a bcrypt password hash.
func (s *UserStore) SignUp(ctx context.Context, email, password, schoolName string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, errors.New("auth: email and password required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return User{}, ErrEmailTaken
		}
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		SchoolName:   schoolName,
	}
	s.users = append(s.users, user)
	if err := s.save(ctx); err != nil {
		s.users = s.users[:len(s.users)-1]
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies credentials and returns the matching account.
func (s *UserStore) Authenticate(_ context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return User{}, ErrBadCredentials
		}
		return u, nil
	}
	return User{}, ErrBadCredentials
}

func (s *UserStore) save(ctx context.Context) error {
	data, err := json.Marshal(s.users)
	if err != nil {
		return err
	}
	return s.snaps.Save(ctx, store.NSUsers, data)
}
