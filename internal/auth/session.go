package auth

import (
	"context"
	"sync"
	"time"
)

// SessionStore is the set of outstanding refresh tokens. A refresh token is
// only honoured while it is a member.
type SessionStore interface {
	Insert(ctx context.Context, token, userID string, expiresAt time.Time) error
	Remove(ctx context.Context, token string) error
	Contains(ctx context.Context, token string) (bool, error)
}

// MemorySessionStore keeps outstanding refresh tokens in process memory. It
// does not survive restarts and is not shared between instances.
type MemorySessionStore struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		tokens: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (s *MemorySessionStore) Insert(_ context.Context, token, _ string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = expiresAt
	return nil
}

func (s *MemorySessionStore) Remove(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *MemorySessionStore) Contains(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expiresAt, ok := s.tokens[token]
	return ok && s.now().Before(expiresAt), nil
}

func (s *MemorySessionStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var deleted int64
	for token, expiresAt := range s.tokens {
		if !now.Before(expiresAt) {
			delete(s.tokens, token)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
