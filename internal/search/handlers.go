package search

import (
	"context"
	"fmt"

	"github.com/example/product-catalog/internal/events"
	"github.com/example/product-catalog/internal/listener"
)

// Handlers returns the (topic, handler) table for every product topic.
// All handlers are idempotent, so replays and cross-topic reordering are
// safe.
func Handlers(index *Index) map[string]listener.Handler {
	return map[string]listener.Handler{
		events.TopicProductCreated:  UpsertHandler(index),
		events.TopicProductUpdated:  UpsertHandler(index),
		events.TopicProductApproved: UpsertHandler(index),
		events.TopicProductDeleted:  DeleteHandler(index),
	}
}

// UpsertHandler decodes a product payload (unwrapping the updated topic's
// newData envelope), projects it and overwrites the document keyed by the
// product id.
func UpsertHandler(index *Index) listener.Handler {
	return func(ctx context.Context, payload []byte) error {
		msg, err := events.DecodeProduct(payload)
		if err != nil {
			return fmt.Errorf("decode product payload: %w", err)
		}
		doc, err := DocumentFromMessage(msg)
		if err != nil {
			return err
		}
		return index.Upsert(doc)
	}
}

// DeleteHandler extracts the product id and removes its document.
// A missing document is a no-op.
func DeleteHandler(index *Index) listener.Handler {
	return func(ctx context.Context, payload []byte) error {
		msg, err := events.DecodeProduct(payload)
		if err != nil {
			return fmt.Errorf("decode product payload: %w", err)
		}
		if msg.ID == "" {
			return ErrMissingID
		}
		return index.Remove(msg.ID)
	}
}
