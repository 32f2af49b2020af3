package services

import (
	"context"
	"sync"
)

// StaticTokenStore holds a token supplied through configuration.
type StaticTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewStaticTokenStore(token string) *StaticTokenStore {
	return &StaticTokenStore{token: token}
}

func (s *StaticTokenStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *StaticTokenStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}
