package store

import (
	"context"
	"sort"
	"sync"

	"github.com/example/product-catalog/internal/audit"
)

// MemoryAuditStore is an append-only in-memory audit.Store. Entries are
// copied on write and never exposed for mutation.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries []*audit.Entry
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

func (s *MemoryAuditStore) Append(ctx context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *entry
	s.entries = append(s.entries, &clone)
	return nil
}

func (s *MemoryAuditStore) ListByGTIN(ctx context.Context, gtin string, opts audit.ListOptions) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*audit.Entry
	for _, e := range s.entries {
		if e.GTIN != gtin {
			continue
		}
		if opts.Action != "" && e.Action != opts.Action {
			continue
		}
		clone := *e
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ChangedAt.After(matched[j].ChangedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (s *MemoryAuditStore) CountByGTIN(ctx context.Context, gtin string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries {
		if e.GTIN == gtin {
			count++
		}
	}
	return count, nil
}
