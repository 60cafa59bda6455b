package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dompet/internal/core"
	"dompet/internal/storage"
	"dompet/internal/store"
)

// The service runs without an AMQP client; publishes are skipped and rows
// stay pending for the worker's startup scan.
func newTestService(t *testing.T) *TransactionService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	svc := NewTransactionService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestInsertAssignsID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tx := core.Transaction{
		OwnerID:  "u1",
		Kind:     core.Income,
		Category: "Salary",
		Amount:   core.Money{Units: 5000000},
		Date:     core.NewDate(2025, 3, 1),
	}
	if err := svc.Insert(ctx, tx); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := svc.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1", len(got))
	}
	if got[0].ID == "" {
		t.Fatalf("inserted transaction has no id")
	}
}

func TestInsertKeepsProvidedID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tx := core.Transaction{
		ID:       "fixed-id",
		OwnerID:  "u1",
		Kind:     core.Expense,
		Category: "Food",
		Amount:   core.Money{Units: 20000},
		Date:     core.NewDate(2025, 3, 1),
	}
	if err := svc.Insert(ctx, tx); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, _ := svc.ListByOwner(ctx, "u1")
	if got[0].ID != "fixed-id" {
		t.Fatalf("id = %s, want fixed-id", got[0].ID)
	}
}

func TestDeleteScopedToOwner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_ = svc.Insert(ctx, core.Transaction{
		ID: "a", OwnerID: "u1", Kind: core.Expense, Category: "Food",
		Amount: core.Money{Units: 1000}, Date: core.NewDate(2025, 3, 1),
	})

	if err := svc.Delete(ctx, "u2", "a"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-owner delete = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "u1", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := svc.ListByOwner(ctx, "u1")
	if len(got) != 0 {
		t.Fatalf("deleted transaction still listed")
	}
}
