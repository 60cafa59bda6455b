// Package worker mirrors local transactions into the remote spreadsheet.
// It consumes the sync queue and also scans for pending rows so a lost
// message never strands a transaction.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/storage"
	"dompet/internal/store"
)

// RemoteSheet is what the worker needs from the spreadsheet client.
type RemoteSheet interface {
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	DeleteByRef(ctx context.Context, ref string) error
}

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	remote    RemoteSheet
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, remote RemoteSheet, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		remote:    remote,
		batchSize: batchSize,
	}
}

// HandleMessage dispatches one queue message.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	switch msg.Action {
	case amqp.ActionDelete:
		return w.handleDelete(ctx, msg.ID)
	default:
		return w.handleSync(ctx, msg.ID)
	}
}

// handleSync mirrors one transaction to the remote sheet and records the
// returned row reference so a later delete can find it again.
func (w *SyncWorker) handleSync(ctx context.Context, id string) error {
	row, err := w.storage.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// Row vanished between publish and consume; nothing to mirror.
		slog.WarnContext(ctx, "Sync message for unknown transaction", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	// A row can be deleted while its sync message is still queued. Treat it
	// as a delete so the remote never resurrects it.
	if row.DeletedAt.Valid {
		return w.handleDelete(ctx, id)
	}

	tx, err := rowToCore(row)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("decode transaction row: %w", err)
	}

	ref, err := w.remote.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to remote sheet: %w", err)
	}

	if err := w.storage.SetRemoteRef(ctx, id, ref); err != nil {
		slog.ErrorContext(ctx, "Failed to store remote ref", "id", id, "ref", ref, "error", err)
	}
	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The sync itself worked; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Transaction synced to remote sheet",
		"id", id,
		"remote_ref", ref,
		"amount", tx.Amount.Units)
	return nil
}

// handleDelete removes the remote row for a soft-deleted transaction.
func (w *SyncWorker) handleDelete(ctx context.Context, id string) error {
	row, err := w.storage.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		slog.WarnContext(ctx, "Delete message for unknown transaction", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if row.RemoteRef == "" {
		// Never made it to the remote sheet, so there is nothing to remove.
		slog.InfoContext(ctx, "Deleted transaction had no remote row", "id", id)
		return w.storage.MarkSynced(ctx, id)
	}

	if err := w.remote.DeleteByRef(ctx, row.RemoteRef); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("delete remote row: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Transaction deleted from remote sheet",
		"id", id,
		"remote_ref", row.RemoteRef)
	return nil
}

// ProcessPending mirrors any rows still marked pending. This is the backup
// path for lost queue messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	for _, p := range pending {
		if err := w.handleSync(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending transaction", "id", p.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup, with a
// larger batch than the periodic scan.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		if err := w.handleSync(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func rowToCore(row storage.Transaction) (core.Transaction, error) {
	date, err := core.ParseDate(row.TxDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse tx_date %q: %w", row.TxDate, err)
	}
	return core.Transaction{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Kind:      core.Kind(row.Kind),
		Category:  row.Category,
		Amount:    core.Money{Units: row.Amount},
		Note:      row.Note,
		Date:      date,
		CreatedAt: row.CreatedAt,
	}, nil
}
