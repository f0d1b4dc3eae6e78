package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/product-catalog/internal/events"
)

// CatalogClient is the query interface into the owning service, used only
// for backfill and resync.
type CatalogClient interface {
	Healthy(ctx context.Context) error
	ListProducts(ctx context.Context) ([]*events.ProductMessage, error)
}

// ErrCatalogUnavailable is returned when the owning service never becomes
// healthy within the polling budget.
var ErrCatalogUnavailable = errors.New("catalog service not ready")

const (
	DefaultHealthAttempts = 10
	DefaultHealthDelay    = 2 * time.Second
)

// SyncResult reports what a backfill did.
type SyncResult struct {
	Skipped  bool   `json:"skipped"`
	Count    uint64 `json:"count,omitempty"` // pre-existing documents when skipped
	Indexed  int    `json:"indexed"`
	Errors   int    `json:"errors,omitempty"`
	Total    int    `json:"total"`    // published products considered
	Filtered int    `json:"filtered"` // non-published products excluded
}

// Coordinator keeps the index consistent with the system of record at
// startup, and on demand after events have been lost.
type Coordinator struct {
	index  *Index
	client CatalogClient

	healthAttempts int
	healthDelay    time.Duration
}

// CoordinatorOption tweaks polling behavior; production uses the defaults.
type CoordinatorOption func(*Coordinator)

func WithHealthAttempts(n int) CoordinatorOption {
	return func(c *Coordinator) { c.healthAttempts = n }
}

func WithHealthDelay(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.healthDelay = d }
}

func NewCoordinator(index *Index, client CatalogClient, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		index:          index,
		client:         client,
		healthAttempts: DefaultHealthAttempts,
		healthDelay:    DefaultHealthDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SyncExisting runs the startup backfill. An already-populated index is
// left untouched and reported as skipped.
func (c *Coordinator) SyncExisting(ctx context.Context) (*SyncResult, error) {
	count, err := c.index.Count()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if count > 0 {
		log.Printf("[Sync] %d documents already indexed, skipping initial sync", count)
		return &SyncResult{Skipped: true, Count: count}, nil
	}
	return c.backfill(ctx)
}

// ForceResync clears the index and rebuilds it from the system of record.
// This is the documented recovery for events lost by the fire-and-forget
// publisher.
func (c *Coordinator) ForceResync(ctx context.Context) (*SyncResult, error) {
	log.Println("[Sync] Forcing full resync...")
	if err := c.index.DeleteAll(); err != nil {
		return nil, fmt.Errorf("clear index: %w", err)
	}
	return c.backfill(ctx)
}

// backfill waits for the catalog service, pulls the full product list,
// filters to index-worthy entries and upserts them all.
func (c *Coordinator) backfill(ctx context.Context) (*SyncResult, error) {
	if err := c.waitForCatalog(ctx); err != nil {
		return nil, err
	}

	products, err := c.client.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	if len(products) == 0 {
		log.Println("[Sync] No products to sync")
		return &SyncResult{}, nil
	}

	result := &SyncResult{}
	for _, msg := range products {
		if msg.Status != "published" {
			result.Filtered++
			continue
		}
		result.Total++

		doc, err := DocumentFromMessage(msg)
		if err != nil {
			result.Errors++
			log.Printf("[Sync] Skipping %s: %v", msg.GTIN, err)
			continue
		}
		if err := c.index.Upsert(doc); err != nil {
			result.Errors++
			log.Printf("[Sync] Failed to index %s (%s): %v", msg.Name, msg.GTIN, err)
			continue
		}
		result.Indexed++
	}

	log.Printf("[Sync] Backfill completed: %d indexed, %d errors, %d filtered",
		result.Indexed, result.Errors, result.Filtered)
	return result, nil
}

// waitForCatalog polls the owning service's health endpoint with a fixed
// delay and bounded attempts.
func (c *Coordinator) waitForCatalog(ctx context.Context) error {
	for attempt := 1; attempt <= c.healthAttempts; attempt++ {
		if err := c.client.Healthy(ctx); err == nil {
			return nil
		}
		if attempt == c.healthAttempts {
			break
		}

		log.Printf("[Sync] Waiting for catalog service (attempt %d/%d)...", attempt, c.healthAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.healthDelay):
		}
	}
	return ErrCatalogUnavailable
}
