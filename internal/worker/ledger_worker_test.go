package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bendahara/internal/amqp"
	"bendahara/internal/core"
	"bendahara/internal/storage"
)

type fakeLedger struct {
	rows []core.Transaction
	fail bool
}

func (f *fakeLedger) Append(_ context.Context, t core.Transaction) error {
	if f.fail {
		return errors.New("ledger unavailable")
	}
	f.rows = append(f.rows, t)
	return nil
}

func setup(t *testing.T) (*storage.SQLiteRepository, string) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	id, err := repo.Insert(context.Background(), core.Transaction{
		Type:        core.Expense,
		Category:    "Konsumsi",
		Amount:      core.Money{Rupiah: 20000},
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "Nasi bungkus",
		UserID:      "u1",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return repo, id
}

func TestHandleSyncMessageSuccess(t *testing.T) {
	repo, id := setup(t)
	led := &fakeLedger{}
	w := NewLedgerWorker(repo, led, 10)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewLedgerSyncMessage(id, 1)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(led.rows) != 1 || led.rows[0].ID != id {
		t.Fatalf("ledger did not receive the row: %+v", led.rows)
	}

	pending, err := repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("record still pending after sync: %+v", pending)
	}
}

func TestHandleSyncMessageLedgerFailure(t *testing.T) {
	repo, id := setup(t)
	w := NewLedgerWorker(repo, &fakeLedger{fail: true}, 10)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewLedgerSyncMessage(id, 1)); err == nil {
		t.Fatal("expected error from failing ledger")
	}
	// Record must be marked errored, not silently dropped.
	pending, err := repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("errored record should not stay pending: %+v", pending)
	}
}

func TestHandleSyncMessageUnknownID(t *testing.T) {
	repo, _ := setup(t)
	w := NewLedgerWorker(repo, &fakeLedger{}, 10)
	if err := w.HandleSyncMessage(context.Background(), amqp.NewLedgerSyncMessage("ghost", 1)); err == nil {
		t.Fatal("expected error for unknown record")
	}
}

func TestSweep(t *testing.T) {
	repo, id := setup(t)
	led := &fakeLedger{}
	w := NewLedgerWorker(repo, led, 10)
	ctx := context.Background()

	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(led.rows) != 1 || led.rows[0].ID != id {
		t.Fatalf("sweep did not mirror the pending record: %+v", led.rows)
	}
	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(led.rows) != 1 {
		t.Fatal("sweep mirrored an already-synced record")
	}
}
