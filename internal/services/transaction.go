package services

import (
	"context"
	"fmt"
	"log/slog"

	"bendahara/internal/amqp"
	"bendahara/internal/auth"
	"bendahara/internal/core"
	"bendahara/internal/storage"
)

// TransactionService owns the write path: validate, persist, then ask the
// worker to mirror the record to the shared ledger. The AMQP publish is
// best-effort; the record is already durable locally when it happens.
type TransactionService struct {
	store      *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewTransactionService(store *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		store:      store,
		amqpClient: amqpClient,
	}
}

// Create validates and persists a transaction on behalf of owner. The owner
// identity is an explicit argument on purpose: the store never reads it
// from ambient state.
func (s *TransactionService) Create(ctx context.Context, owner auth.Identity, t core.Transaction) (string, error) {
	t.UserID = owner.UID
	if err := t.Validate(); err != nil {
		return "", err
	}

	id, err := s.store.Insert(ctx, t)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishSyncMessage(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger sync message",
			"id", id, "error", err)
		// Don't fail the request - the transaction is saved locally.
	}

	return id, nil
}

func (s *TransactionService) publishSyncMessage(ctx context.Context, id string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger sync message")
		return nil
	}
	return s.amqpClient.PublishLedgerSync(ctx, id, 1)
}

// Close releases the underlying resources.
func (s *TransactionService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
