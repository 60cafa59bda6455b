// Package memory is an in-process transaction store used for local
// development and tests. Data lives for the lifetime of the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"dompet/internal/core"
	"dompet/internal/store"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	seq   int64
}

func New() *Store { return &Store{} }

// Insert stores a copy of the transaction. Identity is assigned here when
// the caller has not set one, so listings and deletes always have an id to
// work with. Order of arrival is remembered so listings can break same-date
// ties by recency.
func (s *Store) Insert(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = tx.Date.Time
	}
	s.items = append(s.items, tx)
	return nil
}

// ListByOwner returns the owner's transactions, newest date first and most
// recently inserted first within the same date.
func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.items))
	pos := make(map[string]int, len(s.items))
	for i, tx := range s.items {
		if tx.OwnerID != ownerID {
			continue
		}
		pos[tx.ID] = i
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.SameDay(out[j].Date) {
			return out[j].Date.Before(out[i].Date.Time)
		}
		return pos[out[i].ID] > pos[out[j].ID]
	})
	return out, nil
}

// Delete removes the owner's transaction with the given id.
func (s *Store) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.items {
		if tx.ID == id && tx.OwnerID == ownerID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
