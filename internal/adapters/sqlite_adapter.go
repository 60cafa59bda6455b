// Package adapters bridges the storage layer to ports defined elsewhere,
// keeping storage free of upward imports.
package adapters

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"dompet/internal/auth"
	"dompet/internal/storage"
)

// SQLiteUserStore adapts the SQLite repository's user tables to the
// auth.UserStore port.
type SQLiteUserStore struct {
	queries *storage.Queries
}

var _ auth.UserStore = (*SQLiteUserStore)(nil)

func NewSQLiteUserStore(repo *storage.SQLiteRepository) *SQLiteUserStore {
	return &SQLiteUserStore{queries: repo.Queries()}
}

func (s *SQLiteUserStore) CreateUser(ctx context.Context, u auth.StoredUser) error {
	_, err := s.queries.CreateUser(ctx, storage.CreateUserParams{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	})
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return auth.ErrEmailTaken
	}
	return err
}

func (s *SQLiteUserStore) UserByEmail(ctx context.Context, email string) (auth.StoredUser, error) {
	u, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.StoredUser{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.StoredUser{}, err
	}
	return auth.StoredUser{ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash}, nil
}

func (s *SQLiteUserStore) UserByID(ctx context.Context, id string) (auth.StoredUser, error) {
	u, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.StoredUser{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.StoredUser{}, err
	}
	return auth.StoredUser{ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash}, nil
}

func (s *SQLiteUserStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.queries.UpdateUserPassword(ctx, storage.UpdateUserPasswordParams{
		PasswordHash: passwordHash,
		ID:           userID,
	})
}

func (s *SQLiteUserStore) SaveResetToken(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	return s.queries.CreateResetToken(ctx, storage.CreateResetTokenParams{
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
	})
}

func (s *SQLiteUserStore) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	t, err := s.queries.GetResetToken(ctx, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", auth.ErrResetTokenInvalid
	}
	if err != nil {
		return "", err
	}
	if t.UsedAt.Valid || now.After(t.ExpiresAt) {
		return "", auth.ErrResetTokenInvalid
	}
	n, err := s.queries.MarkResetTokenUsed(ctx, tokenHash)
	if err != nil {
		return "", err
	}
	if n == 0 {
		// Lost a race with another consumer.
		return "", auth.ErrResetTokenInvalid
	}
	return t.UserID, nil
}
