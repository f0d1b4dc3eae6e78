package audit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// RecordParams describes one mutation to be recorded.
type RecordParams struct {
	GTIN         string
	ProductID    string
	Action       Action
	ChangedBy    string
	PreviousData map[string]any
	NewData      map[string]any
	Changes      map[string]Change // computed from the snapshots when nil
	Metadata     map[string]any
}

// Recorder writes audit entries. Callers decide whether a write failure is
// fatal; the lifecycle controller deliberately treats it as non-fatal.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record sanitizes both snapshots, computes the field diff when both are
// present, and appends one entry. Persistence errors are logged with full
// context and returned.
func (r *Recorder) Record(ctx context.Context, p RecordParams) (*Entry, error) {
	changes := p.Changes
	if changes == nil && p.PreviousData != nil {
		changes = Diff(p.PreviousData, p.NewData)
	}

	metadata := map[string]any{
		"source":    "catalog-api",
		"timestamp": time.Now(),
	}
	for key, value := range p.Metadata {
		metadata[key] = value
	}

	entry := &Entry{
		ID:           uuid.New().String(),
		GTIN:         p.GTIN,
		ProductID:    p.ProductID,
		Action:       p.Action,
		ChangedBy:    p.ChangedBy,
		PreviousData: Sanitize(p.PreviousData),
		NewData:      Sanitize(p.NewData),
		Changes:      changes,
		Metadata:     metadata,
		ChangedAt:    time.Now(),
	}

	if err := r.store.Append(ctx, entry); err != nil {
		log.Printf("[Audit] Failed to record entry: gtin=%s action=%s actor=%s: %v",
			p.GTIN, p.Action, p.ChangedBy, err)
		return nil, fmt.Errorf("record audit entry: %w", err)
	}
	return entry, nil
}

// History returns a product's audit trail, newest first.
func (r *Recorder) History(ctx context.Context, gtin string, opts ListOptions) ([]*Entry, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	return r.store.ListByGTIN(ctx, gtin, opts)
}
