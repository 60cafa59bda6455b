package adapters

import (
	"context"
	"sync"
	"time"

	"dompet/internal/auth"
)

// MemoryUserStore keeps accounts in process memory. It backs the memory
// backend for local development.
type MemoryUserStore struct {
	mu     sync.Mutex
	users  map[string]auth.StoredUser
	tokens map[string]memoryResetToken
}

type memoryResetToken struct {
	userID    string
	expiresAt time.Time
	used      bool
}

var _ auth.UserStore = (*MemoryUserStore)(nil)

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:  map[string]auth.StoredUser{},
		tokens: map[string]memoryResetToken{},
	}
}

func (s *MemoryUserStore) CreateUser(_ context.Context, u auth.StoredUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return auth.ErrEmailTaken
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryUserStore) UserByEmail(_ context.Context, email string) (auth.StoredUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return auth.StoredUser{}, auth.ErrUserNotFound
}

func (s *MemoryUserStore) UserByID(_ context.Context, id string) (auth.StoredUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return auth.StoredUser{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return auth.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	s.users[userID] = u
	return nil
}

func (s *MemoryUserStore) SaveResetToken(_ context.Context, tokenHash, userID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = memoryResetToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *MemoryUserStore) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok || t.used || now.After(t.expiresAt) {
		return "", auth.ErrResetTokenInvalid
	}
	t.used = true
	s.tokens[tokenHash] = t
	return t.userID, nil
}
