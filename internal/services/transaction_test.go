package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bendahara/internal/auth"
	"bendahara/internal/core"
	"bendahara/internal/storage"
)

func testService(t *testing.T) (*TransactionService, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewTransactionService(repo, nil), repo
}

func TestCreateSetsOwnerAndPersists(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()
	owner := auth.Identity{UID: "uid-1", Email: "a@b.id"}

	id, err := svc.Create(ctx, owner, core.Transaction{
		Type:        core.Income,
		Category:    "Sponsor",
		Amount:      core.Money{Rupiah: 50000},
		Date:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Description: "Test A",
		UserID:      "someone-else", // must be overwritten by the owner argument
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != "uid-1" {
		t.Fatalf("owner not enforced: %q", got.UserID)
	}
}

func TestCreateRejectsInvalidBeforeStore(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()
	owner := auth.Identity{UID: "uid-1"}

	_, err := svc.Create(ctx, owner, core.Transaction{
		Type:        core.Income,
		Category:    "Sponsor",
		Amount:      core.Money{Rupiah: 0},
		Date:        time.Now(),
		Description: "Test A",
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Nothing may have reached the store.
	txs, _, err := repo.Query(ctx, "uid-1", storage.QuerySpec{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("validation failure reached the store: %d rows", len(txs))
	}
}

func TestCloseWithNilComponents(t *testing.T) {
	svc := &TransactionService{}
	if err := svc.Close(); err != nil {
		t.Fatalf("close should tolerate nil components: %v", err)
	}
}
