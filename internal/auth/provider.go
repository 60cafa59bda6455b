// Package auth manages accounts and sessions. Sessions are stateless signed
// tokens carried in a cookie; password resets use single-use opaque tokens
// stored hashed.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionInvalid     = errors.New("session invalid or expired")
	ErrResetTokenInvalid  = errors.New("reset token invalid, expired, or already used")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrUserNotFound       = errors.New("user not found")
)

// User is the authenticated identity the rest of the app sees. The ID scopes
// every transaction.
type User struct {
	ID    string
	Email string
}

// Provider is the authentication surface the HTTP layer depends on.
type Provider interface {
	// SignUp registers a new account and returns a fresh session token.
	SignUp(ctx context.Context, email, password string) (User, string, error)

	// SignInWithPassword verifies credentials and returns a session token.
	SignInWithPassword(ctx context.Context, email, password string) (User, string, error)

	// SignOut invalidates the given session. Stateless tokens cannot be
	// revoked server side, so this is bookkeeping only; the caller clears
	// the cookie.
	SignOut(ctx context.Context, token string) error

	// CurrentUser resolves a session token to its user.
	CurrentUser(ctx context.Context, token string) (User, error)

	// RequestPasswordReset issues a single-use reset token for the account.
	// The token is returned to the caller for delivery; unknown emails
	// return ErrUserNotFound.
	RequestPasswordReset(ctx context.Context, email string) (string, error)

	// UpdatePassword consumes a reset token and sets a new password.
	UpdatePassword(ctx context.Context, resetToken, newPassword string) error
}

// StoredUser is the persisted account row.
type StoredUser struct {
	ID           string
	Email        string
	PasswordHash string
}

// UserStore is the persistence port behind the auth service. Implementations
// return ErrUserNotFound when a lookup misses.
type UserStore interface {
	CreateUser(ctx context.Context, u StoredUser) error
	UserByEmail(ctx context.Context, email string) (StoredUser, error)
	UserByID(ctx context.Context, id string) (StoredUser, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SaveResetToken(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	// ConsumeResetToken atomically marks the token used and returns its
	// user. Expired, unknown, and already-used tokens all return
	// ErrResetTokenInvalid.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error)
}

// AuthErr reports whether err belongs to the credential and session failure
// family, as opposed to validation or storage trouble.
func AuthErr(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrSessionInvalid) ||
		errors.Is(err, ErrResetTokenInvalid) ||
		errors.Is(err, ErrUserNotFound)
}
