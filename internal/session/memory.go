package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the token pair in process memory. Used in tests and
// for ephemeral sessions that should not outlive the process.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens Tokens
	set    bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Tokens(context.Context) (Tokens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set || s.tokens.Access == "" {
		return Tokens{}, ErrNoSession
	}
	return s.tokens, nil
}

func (s *MemoryStore) Save(_ context.Context, tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	s.set = true
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{}
	s.set = false
	return nil
}

// AccessToken implements api.Credentials.
func (s *MemoryStore) AccessToken(ctx context.Context) (string, error) {
	return accessToken(ctx, s)
}
