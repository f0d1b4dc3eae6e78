package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	entries   []*Entry
	appendErr error
}

func (s *stubStore) Append(ctx context.Context, entry *Entry) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubStore) ListByGTIN(ctx context.Context, gtin string, opts ListOptions) ([]*Entry, error) {
	var out []*Entry
	for _, e := range s.entries {
		if e.GTIN == gtin {
			out = append(out, e)
		}
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *stubStore) CountByGTIN(ctx context.Context, gtin string) (int, error) {
	n := 0
	for _, e := range s.entries {
		if e.GTIN == gtin {
			n++
		}
	}
	return n, nil
}

func TestRecorder_Record_ComputesDiff(t *testing.T) {
	store := &stubStore{}
	recorder := NewRecorder(store)

	entry, err := recorder.Record(context.Background(), RecordParams{
		GTIN:      "1234567890128",
		ProductID: "p-1",
		Action:    ActionUpdated,
		ChangedBy: "user-1",
		PreviousData: map[string]any{
			"name":      "Old Name",
			"brand":     "Acme",
			"updatedAt": "2025-01-01",
		},
		NewData: map[string]any{
			"name":      "New Name",
			"brand":     "Acme",
			"updatedAt": "2025-02-01",
		},
	})

	require.NoError(t, err)
	require.Len(t, store.entries, 1)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, ActionUpdated, entry.Action)

	require.Len(t, entry.Changes, 1)
	assert.Equal(t, Change{From: "Old Name", To: "New Name"}, entry.Changes["name"])
}

func TestRecorder_Record_NoPreviousData(t *testing.T) {
	store := &stubStore{}
	recorder := NewRecorder(store)

	entry, err := recorder.Record(context.Background(), RecordParams{
		GTIN:      "1234567890128",
		Action:    ActionCreated,
		ChangedBy: "user-1",
		NewData:   map[string]any{"name": "Fresh"},
	})

	require.NoError(t, err)
	assert.Nil(t, entry.Changes)
	assert.Nil(t, entry.PreviousData)
}

func TestRecorder_Record_ExplicitChangesKept(t *testing.T) {
	store := &stubStore{}
	recorder := NewRecorder(store)

	explicit := map[string]Change{"status": {From: "pending", To: "published"}}
	entry, err := recorder.Record(context.Background(), RecordParams{
		GTIN:         "1234567890128",
		Action:       ActionApproved,
		ChangedBy:    "editor-1",
		PreviousData: map[string]any{"status": "pending", "name": "x"},
		NewData:      map[string]any{"status": "published", "name": "y"},
		Changes:      explicit,
	})

	require.NoError(t, err)
	assert.Equal(t, explicit, entry.Changes)
}

func TestRecorder_Record_MergesMetadata(t *testing.T) {
	store := &stubStore{}
	recorder := NewRecorder(store)

	entry, err := recorder.Record(context.Background(), RecordParams{
		GTIN:      "1234567890128",
		Action:    ActionDeleted,
		ChangedBy: "admin-1",
		Metadata:  map[string]any{"reason": "recall", "source": "bulk-import"},
	})

	require.NoError(t, err)
	assert.Equal(t, "recall", entry.Metadata["reason"])
	// caller-supplied metadata wins over defaults
	assert.Equal(t, "bulk-import", entry.Metadata["source"])
	assert.Contains(t, entry.Metadata, "timestamp")
}

func TestRecorder_Record_StoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	store := &stubStore{appendErr: storeErr}
	recorder := NewRecorder(store)

	entry, err := recorder.Record(context.Background(), RecordParams{
		GTIN:   "1234567890128",
		Action: ActionCreated,
	})

	assert.Nil(t, entry)
	assert.ErrorIs(t, err, storeErr)
}

func TestRecorder_History_DefaultLimit(t *testing.T) {
	store := &stubStore{}
	recorder := NewRecorder(store)

	for i := 0; i < 60; i++ {
		_, err := recorder.Record(context.Background(), RecordParams{
			GTIN:   "1234567890128",
			Action: ActionUpdated,
		})
		require.NoError(t, err)
	}

	entries, err := recorder.History(context.Background(), "1234567890128", ListOptions{})
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}
