package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/storage"
)

type fakeRemote struct {
	appended []core.Transaction
	deleted  []string
	fail     bool
}

func (f *fakeRemote) Append(_ context.Context, tx core.Transaction) (string, error) {
	if f.fail {
		return "", errors.New("remote unavailable")
	}
	f.appended = append(f.appended, tx)
	return fmt.Sprintf("Transactions!A%d:H%d", len(f.appended)+1, len(f.appended)+1), nil
}

func (f *fakeRemote) DeleteByRef(_ context.Context, ref string) error {
	if f.fail {
		return errors.New("remote unavailable")
	}
	f.deleted = append(f.deleted, ref)
	return nil
}

func newWorker(t *testing.T) (*SyncWorker, *storage.SQLiteRepository, *fakeRemote) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	remote := &fakeRemote{}
	return NewSyncWorker(repo, remote, 10), repo, remote
}

func seed(t *testing.T, repo *storage.SQLiteRepository, id string) {
	t.Helper()
	err := repo.Insert(context.Background(), core.Transaction{
		ID: id, OwnerID: "u1", Kind: core.Expense, Category: "Food",
		Amount: core.Money{Units: 15000}, Date: core.NewDate(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestHandleSyncMessage(t *testing.T) {
	w, repo, remote := newWorker(t)
	ctx := context.Background()
	seed(t, repo, "a")

	if err := w.HandleMessage(ctx, amqp.NewSyncMessage("a", 1)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(remote.appended) != 1 || remote.appended[0].ID != "a" {
		t.Fatalf("remote rows = %+v", remote.appended)
	}

	row, err := repo.GetTransaction(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.SyncStatus != "synced" {
		t.Fatalf("sync_status = %s, want synced", row.SyncStatus)
	}
	if row.RemoteRef == "" {
		t.Fatalf("remote_ref not recorded")
	}
}

func TestHandleSyncUnknownIDIsDropped(t *testing.T) {
	w, _, remote := newWorker(t)
	if err := w.HandleMessage(context.Background(), amqp.NewSyncMessage("missing", 1)); err != nil {
		t.Fatalf("unknown id should not error, got %v", err)
	}
	if len(remote.appended) != 0 {
		t.Fatalf("nothing should be appended")
	}
}

func TestHandleSyncRemoteFailure(t *testing.T) {
	w, repo, remote := newWorker(t)
	ctx := context.Background()
	seed(t, repo, "a")
	remote.fail = true

	if err := w.HandleMessage(ctx, amqp.NewSyncMessage("a", 1)); err == nil {
		t.Fatalf("expected error from remote failure")
	}

	row, _ := repo.GetTransaction(ctx, "a")
	if row.SyncStatus != "error" {
		t.Fatalf("sync_status = %s, want error", row.SyncStatus)
	}
}

func TestDeleteAfterSyncRemovesRemoteRow(t *testing.T) {
	w, repo, remote := newWorker(t)
	ctx := context.Background()
	seed(t, repo, "a")

	if err := w.HandleMessage(ctx, amqp.NewSyncMessage("a", 1)); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := repo.Delete(ctx, "u1", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := w.HandleMessage(ctx, amqp.NewDeleteMessage("a", 2)); err != nil {
		t.Fatalf("handle delete: %v", err)
	}

	if len(remote.deleted) != 1 {
		t.Fatalf("remote deletes = %v", remote.deleted)
	}
}

func TestDeleteBeforeSyncSkipsRemote(t *testing.T) {
	w, repo, remote := newWorker(t)
	ctx := context.Background()
	seed(t, repo, "a")
	if err := repo.Delete(ctx, "u1", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := w.HandleMessage(ctx, amqp.NewDeleteMessage("a", 2)); err != nil {
		t.Fatalf("handle delete: %v", err)
	}
	if len(remote.deleted) != 0 || len(remote.appended) != 0 {
		t.Fatalf("remote should be untouched")
	}

	row, _ := repo.GetTransaction(ctx, "a")
	if row.SyncStatus != "synced" {
		t.Fatalf("sync_status = %s, want synced", row.SyncStatus)
	}
}

func TestQueuedSyncForDeletedRowBecomesDelete(t *testing.T) {
	w, repo, remote := newWorker(t)
	ctx := context.Background()
	seed(t, repo, "a")
	if err := repo.Delete(ctx, "u1", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// The sync message was queued before the delete landed.
	if err := w.HandleMessage(ctx, amqp.NewSyncMessage("a", 1)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(remote.appended) != 0 {
		t.Fatalf("deleted row must not be appended remotely")
	}
}

func TestStartupSyncCheck(t *testing.T) {
	w, repo, remote := newWorker(t)
	ctx := context.Background()
	seed(t, repo, "a")
	seed(t, repo, "b")

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if len(remote.appended) != 2 {
		t.Fatalf("appended = %d, want 2", len(remote.appended))
	}

	pending, _ := repo.GetPendingSync(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("pending after startup = %d, want 0", len(pending))
	}
}

func TestProcessPendingNoBacklog(t *testing.T) {
	w, _, remote := newWorker(t)
	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(remote.appended) != 0 {
		t.Fatalf("nothing should be synced")
	}
}
