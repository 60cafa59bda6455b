package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx so queries can run either way.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Transaction struct {
	ID         string
	OwnerID    string
	Kind       string
	Category   string
	Amount     int64
	Note       string
	TxDate     string
	CreatedAt  time.Time
	SyncStatus string
	Version    int64
	RemoteRef  string
	DeletedAt  sql.NullTime
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type ResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	UsedAt    sql.NullTime
}

const createTransaction = `
INSERT INTO transactions (id, owner_id, kind, category, amount, note, tx_date)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, owner_id, kind, category, amount, note, tx_date, created_at, sync_status, version, remote_ref, deleted_at
`

type CreateTransactionParams struct {
	ID       string
	OwnerID  string
	Kind     string
	Category string
	Amount   int64
	Note     string
	TxDate   string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.ID, arg.OwnerID, arg.Kind, arg.Category, arg.Amount, arg.Note, arg.TxDate)
	var t Transaction
	err := row.Scan(&t.ID, &t.OwnerID, &t.Kind, &t.Category, &t.Amount, &t.Note,
		&t.TxDate, &t.CreatedAt, &t.SyncStatus, &t.Version, &t.RemoteRef, &t.DeletedAt)
	return t, err
}

const getTransaction = `
SELECT id, owner_id, kind, category, amount, note, tx_date, created_at, sync_status, version, remote_ref, deleted_at
FROM transactions
WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var t Transaction
	err := row.Scan(&t.ID, &t.OwnerID, &t.Kind, &t.Category, &t.Amount, &t.Note,
		&t.TxDate, &t.CreatedAt, &t.SyncStatus, &t.Version, &t.RemoteRef, &t.DeletedAt)
	return t, err
}

const listTransactionsByOwner = `
SELECT id, owner_id, kind, category, amount, note, tx_date, created_at, sync_status, version, remote_ref, deleted_at
FROM transactions
WHERE owner_id = ? AND deleted_at IS NULL
ORDER BY tx_date DESC, created_at DESC, rowid DESC
`

func (q *Queries) ListTransactionsByOwner(ctx context.Context, ownerID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Kind, &t.Category, &t.Amount, &t.Note,
			&t.TxDate, &t.CreatedAt, &t.SyncStatus, &t.Version, &t.RemoteRef, &t.DeletedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const softDeleteTransaction = `
UPDATE transactions
SET deleted_at = CURRENT_TIMESTAMP, sync_status = 'pending', version = version + 1
WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
`

type SoftDeleteTransactionParams struct {
	ID      string
	OwnerID string
}

func (q *Queries) SoftDeleteTransaction(ctx context.Context, arg SoftDeleteTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, softDeleteTransaction, arg.ID, arg.OwnerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getPendingSyncTransactions = `
SELECT id, owner_id, kind, category, amount, note, tx_date, created_at, sync_status, version, remote_ref, deleted_at
FROM transactions
WHERE sync_status = 'pending'
ORDER BY created_at ASC
LIMIT ?
`

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Kind, &t.Category, &t.Amount, &t.Note,
			&t.TxDate, &t.CreatedAt, &t.SyncStatus, &t.Version, &t.RemoteRef, &t.DeletedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const markTransactionSynced = `
UPDATE transactions SET sync_status = 'synced' WHERE id = ?
`

func (q *Queries) MarkTransactionSynced(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, id)
	return err
}

const markTransactionSyncError = `
UPDATE transactions SET sync_status = 'error' WHERE id = ?
`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}

const setTransactionRemoteRef = `
UPDATE transactions SET remote_ref = ? WHERE id = ?
`

type SetTransactionRemoteRefParams struct {
	RemoteRef string
	ID        string
}

func (q *Queries) SetTransactionRemoteRef(ctx context.Context, arg SetTransactionRemoteRefParams) error {
	_, err := q.db.ExecContext(ctx, setTransactionRemoteRef, arg.RemoteRef, arg.ID)
	return err
}

const createUser = `
INSERT INTO users (id, email, password_hash)
VALUES (?, ?, ?)
RETURNING id, email, password_hash, created_at
`

type CreateUserParams struct {
	ID           string
	Email        string
	PasswordHash string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.ID, arg.Email, arg.PasswordHash)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

const getUserByEmail = `
SELECT id, email, password_hash, created_at FROM users WHERE email = ?
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

const getUserByID = `
SELECT id, email, password_hash, created_at FROM users WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

const updateUserPassword = `
UPDATE users SET password_hash = ? WHERE id = ?
`

type UpdateUserPasswordParams struct {
	PasswordHash string
	ID           string
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.ID)
	return err
}

const createResetToken = `
INSERT INTO reset_tokens (token_hash, user_id, expires_at)
VALUES (?, ?, ?)
`

type CreateResetTokenParams struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}

func (q *Queries) CreateResetToken(ctx context.Context, arg CreateResetTokenParams) error {
	_, err := q.db.ExecContext(ctx, createResetToken, arg.TokenHash, arg.UserID, arg.ExpiresAt)
	return err
}

const getResetToken = `
SELECT token_hash, user_id, expires_at, used_at FROM reset_tokens WHERE token_hash = ?
`

func (q *Queries) GetResetToken(ctx context.Context, tokenHash string) (ResetToken, error) {
	row := q.db.QueryRowContext(ctx, getResetToken, tokenHash)
	var t ResetToken
	err := row.Scan(&t.TokenHash, &t.UserID, &t.ExpiresAt, &t.UsedAt)
	return t, err
}

const markResetTokenUsed = `
UPDATE reset_tokens SET used_at = CURRENT_TIMESTAMP WHERE token_hash = ? AND used_at IS NULL
`

func (q *Queries) MarkResetTokenUsed(ctx context.Context, tokenHash string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markResetTokenUsed, tokenHash)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
