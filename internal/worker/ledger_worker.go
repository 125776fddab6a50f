package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bendahara/internal/amqp"
	"bendahara/internal/ledger"
	"bendahara/internal/storage"
)

// LedgerWorker mirrors stored transactions to the shared ledger sheet.
type LedgerWorker struct {
	store     *storage.SQLiteRepository
	ledger    ledger.Appender
	batchSize int
}

func NewLedgerWorker(store *storage.SQLiteRepository, appender ledger.Appender, batchSize int) *LedgerWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &LedgerWorker{
		store:     store,
		ledger:    appender,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one mirror request from the queue.
func (w *LedgerWorker) HandleSyncMessage(ctx context.Context, msg *amqp.LedgerSyncMessage) error {
	slog.InfoContext(ctx, "Processing ledger sync message",
		"id", msg.ID,
		"version", msg.Version)

	tx, err := w.store.Get(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if err := w.ledger.Append(ctx, tx); err != nil {
		if markErr := w.store.MarkSyncError(ctx, msg.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", msg.ID, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.store.MarkSynced(ctx, msg.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// Sweep re-enqueues work that never made it onto the queue, for example
// records created while the broker was down. It mirrors them directly.
func (w *LedgerWorker) Sweep(ctx context.Context) error {
	pending, err := w.store.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Sweeping pending ledger records", "count", len(pending))
	for _, p := range pending {
		msg := amqp.NewLedgerSyncMessage(p.ID, p.Version)
		if err := w.HandleSyncMessage(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Sweep failed for record", "id", p.ID, "error", err)
			// Keep going; the record stays pending or is marked errored.
		}
	}
	return nil
}
