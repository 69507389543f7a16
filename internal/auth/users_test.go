package auth

import (
	"context"
	"errors"
	"testing"

	"vibecheck/internal/store"
)

func TestSignUpAndAuthenticate(t *testing.T) {
	snaps := store.NewMemSnapshots()
	s := NewUserStore(snaps)
	ctx := context.Background()

	user, err := s.SignUp(ctx, "Admin@School.Test ", "hunter2", "Riverdale High")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Email != "admin@school.test" {
		t.Fatalf("email must be normalized, got %q", user.Email)
	}
	if user.PasswordHash == "hunter2" || user.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}

	got, err := s.Authenticate(ctx, "admin@school.test", "hunter2")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("wrong account: %+v", got)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	s := NewUserStore(store.NewMemSnapshots())
	ctx := context.Background()
	if _, err := s.SignUp(ctx, "a@b.test", "pw", ""); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := s.SignUp(ctx, "A@B.TEST", "pw2", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken, got %v", err)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	s := NewUserStore(store.NewMemSnapshots())
	ctx := context.Background()
	if _, err := s.SignUp(ctx, "a@b.test", "correct", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := s.Authenticate(ctx, "a@b.test", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("want ErrBadCredentials, got %v", err)
	}
	if _, err := s.Authenticate(ctx, "nobody@b.test", "correct"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("unknown email: want ErrBadCredentials, got %v", err)
	}
}

func TestSignUpPersistsAcrossReload(t *testing.T) {
	snaps := store.NewMemSnapshots()
	ctx := context.Background()
	if _, err := NewUserStore(snaps).SignUp(ctx, "a@b.test", "pw", "X"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	reloaded := NewUserStore(snaps)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := reloaded.Authenticate(ctx, "a@b.test", "pw"); err != nil {
		t.Fatalf("authenticate after reload: %v", err)
	}
}
