package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bendahara/internal/storage"
)

func testService(t *testing.T) *Service {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, time.Hour)
}

func TestRegisterLoginResolve(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	ident, err := svc.Register(ctx, "Bendahara@Contoh.id", "rahasia1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if ident.Email != "bendahara@contoh.id" || ident.UID == "" {
		t.Fatalf("unexpected identity %+v", ident)
	}

	logged, token, err := svc.Login(ctx, "bendahara@contoh.id", "rahasia1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.UID != ident.UID || token == "" {
		t.Fatalf("unexpected login result %+v %q", logged, token)
	}

	resolved, err := svc.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != logged {
		t.Fatalf("resolve mismatch: %+v vs %+v", resolved, logged)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.id", "rahasia1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, "a@b.id", "rahasia2")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "rahasia1"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Register(ctx, "a@b.id", "12345"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, "ghost@b.id", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	if _, err := svc.Register(ctx, "a@b.id", "rahasia1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@b.id", "salah"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
}

func TestResolveRejectsEmptyToken(t *testing.T) {
	svc := testService(t)
	if _, err := svc.Resolve(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
