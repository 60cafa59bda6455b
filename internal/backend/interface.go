// Package backend selects and wires the persistence backend at startup.
package backend

import (
	"context"

	"dompet/internal/auth"
	"dompet/internal/store"
)

// CleanupFunc releases a backend's resources at shutdown.
type CleanupFunc func() error

// BackendResult bundles everything a process needs from the chosen backend:
// the transaction store and the account store, plus cleanup.
type BackendResult struct {
	Store   store.Store
	Users   auth.UserStore
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific. Accounts always live in SQLite, so the path is also
	// used by the sheets backend.
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// IsValid reports whether the backend type is one we can build.
func (t BackendType) IsValid() bool {
	switch t {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	}
	return false
}
