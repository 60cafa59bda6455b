package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	resetTokenTTL  = 30 * time.Minute
)

// Service implements Provider on top of a UserStore. Session tokens are
// HS256 JWTs; nothing about a session is persisted.
type Service struct {
	users      UserStore
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

var _ Provider = (*Service)(nil)

func NewService(users UserStore, secret []byte, sessionTTL time.Duration) *Service {
	return &Service{
		users:      users,
		secret:     secret,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (s *Service) SignUp(ctx context.Context, email, password string) (User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return User{}, "", err
	}
	if len(password) < minPasswordLen {
		return User{}, "", ErrWeakPassword
	}

	if _, err := s.users.UserByEmail(ctx, email); err == nil {
		return User{}, "", ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, "", fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, "", fmt.Errorf("hash password: %w", err)
	}

	u := StoredUser{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(u.ID, u.Email)
	if err != nil {
		return User{}, "", err
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return User{ID: u.ID, Email: u.Email}, token, nil
}

func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		// Do not reveal whether the account exists.
		return User{}, "", ErrInvalidCredentials
	}

	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return User{}, "", fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(u.ID, u.Email)
	if err != nil {
		return User{}, "", err
	}
	slog.InfoContext(ctx, "User signed in", "user_id", u.ID)
	return User{ID: u.ID, Email: u.Email}, token, nil
}

func (s *Service) SignOut(ctx context.Context, _ string) error {
	slog.InfoContext(ctx, "User signed out")
	return nil
}

func (s *Service) CurrentUser(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrSessionInvalid
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return User{}, ErrSessionInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return User{}, ErrSessionInvalid
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return User{}, ErrSessionInvalid
	}

	// The account may have been removed since the token was issued.
	u, err := s.users.UserByID(ctx, sub)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrSessionInvalid
	}
	if err != nil {
		return User{}, fmt.Errorf("look up session user: %w", err)
	}
	return User{ID: u.ID, Email: u.Email}, nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", ErrUserNotFound
	}

	u, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("look up user: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	if err := s.users.SaveResetToken(ctx, hashToken(token), u.ID, s.now().Add(resetTokenTTL)); err != nil {
		return "", fmt.Errorf("save reset token: %w", err)
	}
	slog.InfoContext(ctx, "Password reset requested", "user_id", u.ID)
	return token, nil
}

func (s *Service) UpdatePassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}
	if resetToken == "" {
		return ErrResetTokenInvalid
	}

	userID, err := s.users.ConsumeResetToken(ctx, hashToken(resetToken), s.now())
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	slog.InfoContext(ctx, "Password updated", "user_id", userID)
	return nil
}

func (s *Service) issueToken(userID, email string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.sessionTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// normalizeEmail trims and lowercases the address so lookups are
// case-insensitive, and rejects addresses the mail package cannot parse.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
