// Package auth supplies the authenticated identity for the rest of the
// application. Handlers resolve a bearer token once and then pass the
// Identity value explicitly through every call that needs it; there is no
// ambient current-user state anywhere.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bendahara/internal/storage"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrUnauthenticated    = errors.New("missing or expired session")
)

// Identity is the resolved session owner. UID is the sole tenancy boundary
// for every record store operation.
type Identity struct {
	UID   string
	Email string
}

type Service struct {
	store      *storage.SQLiteRepository
	sessionTTL time.Duration
}

func NewService(store *storage.SQLiteRepository, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Service{store: store, sessionTTL: sessionTTL}
}

// Register creates a new account. A duplicate email is reported distinctly
// from generic failure so the client can show a specific message.
func (s *Service) Register(ctx context.Context, email, password string) (Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return Identity{}, ErrInvalidEmail
	}
	if len(password) < 6 {
		return Identity{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.CreateUser(ctx, email, string(hash))
	if errors.Is(err, storage.ErrEmailTaken) {
		return Identity{}, ErrEmailTaken
	}
	if err != nil {
		return Identity{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "uid", u.ID, "email", u.Email)
	return Identity{UID: u.ID, Email: u.Email}, nil
}

// Login verifies credentials and opens a session, returning its opaque
// bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (Identity, string, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return Identity{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, "", fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Identity{}, "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.store.CreateSession(ctx, token, u.ID, time.Now().UTC().Add(s.sessionTTL)); err != nil {
		return Identity{}, "", fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "uid", u.ID)
	return Identity{UID: u.ID, Email: u.Email}, token, nil
}

// Resolve maps a bearer token to its identity, or ErrUnauthenticated.
func (s *Service) Resolve(ctx context.Context, token string) (Identity, error) {
	if strings.TrimSpace(token) == "" {
		return Identity{}, ErrUnauthenticated
	}
	u, err := s.store.GetSession(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, fmt.Errorf("resolve session: %w", err)
	}
	return Identity{UID: u.ID, Email: u.Email}, nil
}
