package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"dompet/internal/core"
	"dompet/internal/store"
)

// SQLiteRepository is the local transaction store. It also carries the sync
// bookkeeping the worker uses to mirror rows into the remote spreadsheet.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
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

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Queries exposes the generated query layer for adapters that need rows the
// Store interface does not cover, such as the user store.
func (r *SQLiteRepository) Queries() *Queries { return r.queries }

// Insert implements store.Inserter. New rows start in sync_status pending so
// the worker picks them up.
func (r *SQLiteRepository) Insert(ctx context.Context, tx core.Transaction) error {
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:       tx.ID,
		OwnerID:  tx.OwnerID,
		Kind:     string(tx.Kind),
		Category: tx.Category,
		Amount:   tx.Amount.Units,
		Note:     tx.Note,
		TxDate:   tx.Date.Key(),
	})
	if err != nil {
		return store.WrapErr("sqlite insert", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"kind", row.Kind,
		"category", row.Category,
		"amount", row.Amount,
		"date", row.TxDate)
	return nil
}

// ListByOwner implements store.Lister. Soft-deleted rows are excluded.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, store.WrapErr("sqlite list", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := toCore(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable transaction row", "id", row.ID, "error", err)
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// Delete implements store.Deleter as a soft delete. The row stays around so
// the worker can propagate the deletion to the remote sheet.
func (r *SQLiteRepository) Delete(ctx context.Context, ownerID, id string) error {
	n, err := r.queries.SoftDeleteTransaction(ctx, SoftDeleteTransactionParams{ID: id, OwnerID: ownerID})
	if err != nil {
		return store.WrapErr("sqlite delete", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction soft-deleted", "id", id)
	return nil
}

// GetTransaction returns the raw row including sync bookkeeping. The sync
// worker needs remote_ref and deleted_at, which the Store port hides.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return Transaction{}, store.WrapErr("sqlite get", err)
	}
	return row, nil
}

// PendingSyncTransaction is the minimal payload of a sync queue message.
type PendingSyncTransaction struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

// GetPendingSync returns transactions waiting to be mirrored remotely,
// oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.queries.GetPendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, store.WrapErr("sqlite pending sync", err)
	}
	out := make([]PendingSyncTransaction, len(rows))
	for i, row := range rows {
		out[i] = PendingSyncTransaction{ID: row.ID, Version: row.Version, CreatedAt: row.CreatedAt}
	}
	return out, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if err := r.queries.MarkTransactionSynced(ctx, id); err != nil {
		return store.WrapErr("mark synced", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return store.WrapErr("mark sync error", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) SetRemoteRef(ctx context.Context, id, ref string) error {
	if err := r.queries.SetTransactionRemoteRef(ctx, SetTransactionRemoteRefParams{RemoteRef: ref, ID: id}); err != nil {
		return store.WrapErr("set remote ref", err)
	}
	return nil
}

func toCore(row Transaction) (core.Transaction, error) {
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
