// Package search owns the consumer side of the product event stream: the
// full-text index, the per-topic handlers that keep it current, and the
// coordinator that backfills it from the system of record.
package search

import (
	"errors"
	"time"

	"github.com/example/product-catalog/internal/events"
)

var ErrMissingID = errors.New("product payload has no id")

// Document is the flattened index projection of a product. Actor objects
// are reduced to bare identifiers; the document id is the product's
// storage id, so re-indexing upserts instead of duplicating.
type Document struct {
	ID            string     `json:"id"`
	GTIN          string     `json:"gtin"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Brand         string     `json:"brand"`
	Manufacturer  string     `json:"manufacturer"`
	NetWeight     float64    `json:"netWeight"`
	NetWeightUnit string     `json:"netWeightUnit"`
	Status        string     `json:"status"`
	CreatedByID   string     `json:"createdById,omitempty"`
	ApprovedByID  string     `json:"approvedById,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
}

// DocumentFromMessage projects an event payload into an index document,
// dropping the actor sub-objects the index has no use for.
func DocumentFromMessage(msg *events.ProductMessage) (*Document, error) {
	if msg.ID == "" {
		return nil, ErrMissingID
	}

	doc := &Document{
		ID:            msg.ID,
		GTIN:          msg.GTIN,
		Name:          msg.Name,
		Description:   msg.Description,
		Brand:         msg.Brand,
		Manufacturer:  msg.Manufacturer,
		NetWeight:     msg.NetWeight,
		NetWeightUnit: msg.NetWeightUnit,
		Status:        msg.Status,
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     msg.UpdatedAt,
		ApprovedAt:    msg.ApprovedAt,
	}
	if msg.CreatedBy != nil {
		doc.CreatedByID = msg.CreatedBy.ID
	}
	if msg.ApprovedBy != nil {
		doc.ApprovedByID = msg.ApprovedBy.ID
	}
	return doc, nil
}
