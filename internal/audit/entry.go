package audit

import (
	"context"
	"time"
)

// Action identifies the mutation that produced an audit entry.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionApproved Action = "approved"
	ActionDeleted  Action = "deleted"
)

// Entry is one append-only audit record. Entries are never mutated or
// deleted once written.
type Entry struct {
	ID           string            `json:"id"`
	GTIN         string            `json:"gtin"`
	ProductID    string            `json:"product_id"`
	Action       Action            `json:"action"`
	ChangedBy    string            `json:"changed_by"`
	PreviousData map[string]any    `json:"previous_data,omitempty"`
	NewData      map[string]any    `json:"new_data,omitempty"`
	Changes      map[string]Change `json:"changes,omitempty"`
	Metadata     map[string]any    `json:"metadata,omitempty"`
	ChangedAt    time.Time         `json:"changed_at"`
}

// ListOptions controls history queries. Entries are returned newest first.
type ListOptions struct {
	Limit  int
	Offset int
	Action Action // empty matches all actions
}

// Store is the append-only persistence behind the recorder.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ListByGTIN(ctx context.Context, gtin string, opts ListOptions) ([]*Entry, error)
	CountByGTIN(ctx context.Context, gtin string) (int, error)
}
