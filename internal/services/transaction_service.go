package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/storage"
	"dompet/internal/store"
)

// TransactionService orchestrates transaction writes across SQLite and the
// sync queue. Local writes are authoritative; queue publishes are best
// effort and the worker's startup scan catches anything missed.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

var _ store.Store = (*TransactionService)(nil)

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Insert saves the transaction locally, then publishes a sync message.
func (s *TransactionService) Insert(ctx context.Context, tx core.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	if err := s.storage.Insert(ctx, tx); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}

	// New rows start at version 1. The request does not fail on publish
	// trouble; the row stays pending and gets picked up later.
	if err := s.publishSync(ctx, tx.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", tx.ID, "error", err)
	}

	return nil
}

// ListByOwner reads straight from local storage.
func (s *TransactionService) ListByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	return s.storage.ListByOwner(ctx, ownerID)
}

// Delete soft-deletes locally, then publishes a delete message.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.storage.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	row, err := s.storage.GetTransaction(ctx, id)
	version := int64(1)
	if err == nil {
		version = row.Version
	}
	if err := s.publishDelete(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

func (s *TransactionService) publishSync(ctx context.Context, id string, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishSync(ctx, id, version)
}

func (s *TransactionService) publishDelete(ctx context.Context, id string, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.amqpClient.PublishDelete(ctx, id, version)
}

// Close closes both storage and AMQP connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
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
