package store

import (
	"context"
	"sync"

	"github.com/example/product-catalog/internal/catalog"
)

// MemoryUserStore is an in-memory catalog.UserStore.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]*catalog.User
	byEmail map[string]string
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]*catalog.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStore) Get(ctx context.Context, id string) (*catalog.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, catalog.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*catalog.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, catalog.ErrUserNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *MemoryUserStore) Insert(ctx context.Context, u *catalog.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *u
	s.byID[u.ID] = &clone
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *MemoryUserStore) List(ctx context.Context) ([]*catalog.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*catalog.User, 0, len(s.byID))
	for _, u := range s.byID {
		clone := *u
		users = append(users, &clone)
	}
	return users, nil
}
