package storage

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"bendahara/internal/core"
)

var (
	// ErrReadStore wraps any failure while querying the record store.
	ErrReadStore = errors.New("record store read failed")
	// ErrWriteStore wraps any failure while inserting into the record store.
	ErrWriteStore = errors.New("record store write failed")
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when registering an already-used email.
	ErrEmailTaken = errors.New("email already registered")
)

// Sync states for the ledger-mirror worker.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// QuerySpec narrows a transaction fetch. Owner scoping is a separate,
// mandatory argument: it is the only access-control boundary.
type QuerySpec struct {
	// StartISO/EndISO bound the date column inclusively; empty = unbounded.
	StartISO string
	EndISO   string
	// Limit caps the page size; 0 means a single unbounded page.
	Limit int
	// Cursor continues a previous limited query.
	Cursor string
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PendingRecord is the minimal shape queued for ledger mirroring.
type PendingRecord struct {
	ID      string
	Version int64
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrReadStore, err)
	}
	return nil
}

// Insert persists a new transaction and returns the store-assigned id.
// The record is immutable from this point on.
func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (string, error) {
	id := uuid.NewString()
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, category, amount, date, description, created_at, sync_status, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		id, t.UserID, string(t.Type), t.Category, t.Amount.Rupiah,
		core.ISOTime(t.Date), t.Description, core.ISOTime(createdAt), SyncPending)
	if err != nil {
		return "", fmt.Errorf("%w: insert transaction: %v", ErrWriteStore, err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"user_id", t.UserID,
		"type", string(t.Type),
		"amount", t.Amount.Rupiah)

	return id, nil
}

// Query returns one page of the owner's transactions, newest date first.
// The next-page cursor is empty when the page is the last one.
func (r *SQLiteRepository) Query(ctx context.Context, ownerID string, q QuerySpec) ([]core.Transaction, string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, "", fmt.Errorf("%w: %v", ErrReadStore, core.ErrMissingOwner)
	}

	var (
		where = []string{"user_id = ?"}
		args  = []any{ownerID}
	)
	if q.StartISO != "" {
		where = append(where, "date >= ?")
		args = append(args, q.StartISO)
	}
	if q.EndISO != "" {
		where = append(where, "date <= ?")
		args = append(args, q.EndISO)
	}
	if q.Cursor != "" {
		curDate, curID, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrReadStore, err)
		}
		// Keyset continuation for (date DESC, id DESC) ordering.
		where = append(where, "(date < ? OR (date = ? AND id < ?))")
		args = append(args, curDate, curDate, curID)
	}

	query := `SELECT id, user_id, type, category, amount, date, description, created_at
		FROM transactions WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date DESC, id DESC`
	if q.Limit > 0 {
		// One extra row decides whether a continuation cursor is needed.
		query += " LIMIT ?"
		args = append(args, q.Limit+1)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("%w: query transactions: %v", ErrReadStore, err)
	}
	defer rows.Close()

	var txs []core.Transaction
	var dates []string
	for rows.Next() {
		var (
			t                  core.Transaction
			typ, date, created string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &typ, &t.Category, &t.Amount.Rupiah, &date, &t.Description, &created); err != nil {
			return nil, "", fmt.Errorf("%w: scan transaction: %v", ErrReadStore, err)
		}
		t.Type = core.TransactionType(typ)
		t.Date = core.ParseISOTime(date)
		t.CreatedAt = core.ParseISOTime(created)
		dates = append(dates, date)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("%w: iterate transactions: %v", ErrReadStore, err)
	}

	var next string
	if q.Limit > 0 && len(txs) > q.Limit {
		txs = txs[:q.Limit]
		// Cursor over the stored date string, not the parsed time, so a
		// malformed date cannot corrupt the keyset predicate.
		next = encodeCursor(dates[q.Limit-1], txs[len(txs)-1].ID)
	}
	return txs, next, nil
}

// Get loads one transaction by id regardless of sync state.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	var (
		t                  core.Transaction
		typ, date, created string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, category, amount, date, description, created_at
		FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.UserID, &typ, &t.Category, &t.Amount.Rupiah, &date, &t.Description, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: get transaction: %v", ErrReadStore, err)
	}
	t.Type = core.TransactionType(typ)
	t.Date = core.ParseISOTime(date)
	t.CreatedAt = core.ParseISOTime(created)
	return t, nil
}

// PendingSync lists transactions still waiting for the ledger mirror.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]PendingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version FROM transactions
		WHERE sync_status = ? ORDER BY created_at ASC LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: pending sync: %v", ErrReadStore, err)
	}
	defer rows.Close()

	var out []PendingRecord
	for rows.Next() {
		var p PendingRecord
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("%w: scan pending: %v", ErrReadStore, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, SyncDone, id); err != nil {
		return fmt.Errorf("%w: mark synced: %v", ErrWriteStore, err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, SyncError, id); err != nil {
		return fmt.Errorf("%w: mark sync error: %v", ErrWriteStore, err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

// CreateUser registers a new account. Email uniqueness is enforced by the
// schema; a violation surfaces as ErrEmailTaken.
func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, core.ISOTime(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("%w: create user: %v", ErrWriteStore, err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	var created string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("%w: get user: %v", ErrReadStore, err)
	}
	u.CreatedAt = core.ParseISOTime(created)
	return u, nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, userID, core.ISOTime(time.Now().UTC()), core.ISOTime(expiresAt))
	if err != nil {
		return fmt.Errorf("%w: create session: %v", ErrWriteStore, err)
	}
	return nil
}

// GetSession resolves a bearer token to its owning user, or ErrNotFound for
// unknown and expired tokens alike.
func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (User, error) {
	var u User
	var created, expires string
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.password_hash, u.created_at, s.expires_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ?`, token).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("%w: get session: %v", ErrReadStore, err)
	}
	if core.ParseISOTime(expires).Before(time.Now().UTC()) {
		return User{}, ErrNotFound
	}
	u.CreatedAt = core.ParseISOTime(created)
	return u, nil
}

func encodeCursor(dateISO, id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(dateISO + "\x00" + id))
}

func decodeCursor(cursor string) (dateISO, id string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", "", fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), "\x00", 2)
	if len(parts) != 2 {
		return "", "", errors.New("malformed cursor")
	}
	return parts[0], parts[1], nil
}
