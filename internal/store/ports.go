// Package store defines the outbound ports for transaction persistence.
// Implementations live in the subpackages and in internal/storage; the
// backend factory decides which one serves a given deployment.
package store

import (
	"context"

	"dompet/internal/core"
)

type (
	// Inserter persists a new transaction. The transaction has already
	// passed domain validation; implementations only report storage faults.
	Inserter interface {
		Insert(ctx context.Context, tx core.Transaction) error
	}

	// Lister returns every transaction owned by ownerID, newest date first
	// and newest insertion first within a date.
	Lister interface {
		ListByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error)
	}

	// Deleter removes a transaction by id, scoped to its owner. Deleting an
	// id the owner does not hold returns ErrNotFound.
	Deleter interface {
		Delete(ctx context.Context, ownerID, id string) error
	}

	// Store is the full persistence surface the HTTP layer depends on.
	Store interface {
		Inserter
		Lister
		Deleter
	}
)
