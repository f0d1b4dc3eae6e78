// Package events defines the contract between the catalog service and its
// consumers: one topic per accepted mutation, payload is the full
// denormalized product snapshot.
package events

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	TopicProductCreated  = "product.created"
	TopicProductUpdated  = "product.updated"
	TopicProductApproved = "product.approved"
	TopicProductDeleted  = "product.deleted"
)

// Topics lists every topic a consumer needs to subscribe to.
var Topics = []string{
	TopicProductCreated,
	TopicProductUpdated,
	TopicProductApproved,
	TopicProductDeleted,
}

var ErrEmptyPayload = errors.New("event payload has no product data")

// UserRef is a denormalized actor reference embedded in event payloads.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// ProductMessage is the full entity snapshot carried by every product topic.
type ProductMessage struct {
	ID            string     `json:"id"`
	GTIN          string     `json:"gtin"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Brand         string     `json:"brand"`
	Manufacturer  string     `json:"manufacturer"`
	NetWeight     float64    `json:"netWeight"`
	NetWeightUnit string     `json:"netWeightUnit"`
	Status        string     `json:"status"`
	CreatedBy     *UserRef   `json:"createdBy,omitempty"`
	ApprovedBy    *UserRef   `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Action        string     `json:"action,omitempty"`
}

// envelope covers the updated topic, whose payload wraps the new snapshot
// under a nested key.
type envelope struct {
	NewData *ProductMessage `json:"newData"`
}

// DecodeProduct parses an event payload, unwrapping the nested newData
// envelope when present.
func DecodeProduct(data []byte) (*ProductMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.NewData != nil {
		return env.NewData, nil
	}

	var msg ProductMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" && msg.GTIN == "" {
		return nil, ErrEmptyPayload
	}
	return &msg, nil
}

// Wrap nests a snapshot under newData for the updated topic.
func Wrap(msg *ProductMessage) map[string]*ProductMessage {
	return map[string]*ProductMessage{"newData": msg}
}
