package store

import (
	"context"
	"sort"
	"sync"

	"github.com/example/product-catalog/internal/catalog"
)

// MemoryProductStore is an in-memory ProductStore for tests and local
// development. GTIN uniqueness is enforced the same way the Postgres store
// does it, so the concurrent-create race resolves identically.
type MemoryProductStore struct {
	mu     sync.RWMutex
	byID   map[string]*catalog.Product
	byGTIN map[string]string // gtin -> id
}

func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{
		byID:   make(map[string]*catalog.Product),
		byGTIN: make(map[string]string),
	}
}

func (s *MemoryProductStore) Insert(ctx context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byGTIN[p.GTIN]; taken {
		return catalog.ErrDuplicateGTIN
	}
	clone := *p
	s.byID[p.ID] = &clone
	s.byGTIN[p.GTIN] = p.ID
	return nil
}

func (s *MemoryProductStore) GetByGTIN(ctx context.Context, gtin string) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byGTIN[gtin]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *MemoryProductStore) Update(ctx context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[p.ID]; !ok {
		return catalog.ErrNotFound
	}
	clone := *p
	s.byID[p.ID] = &clone
	return nil
}

func (s *MemoryProductStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return catalog.ErrNotFound
	}
	delete(s.byGTIN, p.GTIN)
	delete(s.byID, id)
	return nil
}

func (s *MemoryProductStore) List(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*catalog.Product
	for _, p := range s.byID {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.CreatedBy != "" && p.CreatedBy != filter.CreatedBy {
			continue
		}
		clone := *p
		items = append(items, &clone)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}
