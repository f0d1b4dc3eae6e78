package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/product-catalog/internal/audit"
	"github.com/example/product-catalog/internal/catalog"
)

func product(id, gtin string, status catalog.Status, createdBy string, createdAt time.Time) *catalog.Product {
	return &catalog.Product{
		ID:            id,
		GTIN:          gtin,
		Name:          "Organic Rolled Oats",
		Description:   "Whole grain rolled oats",
		Brand:         "GoodGrain",
		Manufacturer:  "GoodGrain Foods Ltd",
		NetWeight:     500,
		NetWeightUnit: "g",
		Status:        status,
		CreatedBy:     createdBy,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestMemoryProductStore_InsertAndGet(t *testing.T) {
	s := NewMemoryProductStore()
	ctx := context.Background()

	p := product("p-1", "1234567890128", catalog.StatusPending, "u-prov", time.Now())
	require.NoError(t, s.Insert(ctx, p))

	got, err := s.GetByGTIN(ctx, "1234567890128")
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.ID)

	// the store hands out copies
	got.Name = "mutated"
	again, err := s.GetByGTIN(ctx, "1234567890128")
	require.NoError(t, err)
	assert.Equal(t, "Organic Rolled Oats", again.Name)
}

func TestMemoryProductStore_DuplicateGTIN(t *testing.T) {
	s := NewMemoryProductStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, product("p-1", "1234567890128", catalog.StatusPending, "u-prov", time.Now())))
	err := s.Insert(ctx, product("p-2", "1234567890128", catalog.StatusPending, "u-edit", time.Now()))
	assert.ErrorIs(t, err, catalog.ErrDuplicateGTIN)
}

func TestMemoryProductStore_UpdateAndDelete(t *testing.T) {
	s := NewMemoryProductStore()
	ctx := context.Background()

	p := product("p-1", "1234567890128", catalog.StatusPending, "u-prov", time.Now())
	require.NoError(t, s.Insert(ctx, p))

	p.Status = catalog.StatusPublished
	require.NoError(t, s.Update(ctx, p))

	got, err := s.GetByGTIN(ctx, "1234567890128")
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusPublished, got.Status)

	require.NoError(t, s.Delete(ctx, "p-1"))
	_, err = s.GetByGTIN(ctx, "1234567890128")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	// the gtin frees up after deletion
	assert.NoError(t, s.Insert(ctx, product("p-3", "1234567890128", catalog.StatusPending, "u-prov", time.Now())))
}

func TestMemoryProductStore_UpdateUnknown(t *testing.T) {
	s := NewMemoryProductStore()
	err := s.Update(context.Background(), product("p-x", "1234567890128", catalog.StatusPending, "u-prov", time.Now()))
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestMemoryProductStore_ListFiltersAndOrder(t *testing.T) {
	s := NewMemoryProductStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, s.Insert(ctx, product("p-1", "1234567890128", catalog.StatusPublished, "u-edit", base.Add(-2*time.Hour))))
	require.NoError(t, s.Insert(ctx, product("p-2", "12345670", catalog.StatusPending, "u-prov", base.Add(-1*time.Hour))))
	require.NoError(t, s.Insert(ctx, product("p-3", "123456789012", catalog.StatusPending, "u-prov", base)))

	all, err := s.List(ctx, catalog.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// newest first
	assert.Equal(t, "p-3", all[0].ID)
	assert.Equal(t, "p-1", all[2].ID)

	pending, err := s.List(ctx, catalog.ListFilter{Status: catalog.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	mine, err := s.List(ctx, catalog.ListFilter{Status: catalog.StatusPending, CreatedBy: "u-prov"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := s.List(ctx, catalog.ListFilter{CreatedBy: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryAuditStore_ListByGTIN(t *testing.T) {
	s := NewMemoryAuditStore()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, &audit.Entry{
			ID:        fmt.Sprintf("e-%d", i),
			GTIN:      "1234567890128",
			Action:    audit.ActionUpdated,
			ChangedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.Append(ctx, &audit.Entry{
		ID:        "e-created",
		GTIN:      "1234567890128",
		Action:    audit.ActionCreated,
		ChangedAt: base.Add(-time.Hour),
	}))
	require.NoError(t, s.Append(ctx, &audit.Entry{
		ID:        "e-other",
		GTIN:      "12345670",
		Action:    audit.ActionCreated,
		ChangedAt: base,
	}))

	entries, err := s.ListByGTIN(ctx, "1234567890128", audit.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 6)
	// newest first
	assert.Equal(t, "e-4", entries[0].ID)
	assert.Equal(t, "e-created", entries[5].ID)

	updatesOnly, err := s.ListByGTIN(ctx, "1234567890128", audit.ListOptions{Action: audit.ActionUpdated})
	require.NoError(t, err)
	assert.Len(t, updatesOnly, 5)

	page, err := s.ListByGTIN(ctx, "1234567890128", audit.ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "e-3", page[0].ID)

	past, err := s.ListByGTIN(ctx, "1234567890128", audit.ListOptions{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestMemoryAuditStore_CountByGTIN(t *testing.T) {
	s := NewMemoryAuditStore()
	ctx := context.Background()

	count, err := s.CountByGTIN(ctx, "1234567890128")
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, s.Append(ctx, &audit.Entry{ID: "e-1", GTIN: "1234567890128", Action: audit.ActionCreated}))
	require.NoError(t, s.Append(ctx, &audit.Entry{ID: "e-2", GTIN: "1234567890128", Action: audit.ActionDeleted}))

	count, err = s.CountByGTIN(ctx, "1234567890128")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryUserStore(t *testing.T) {
	s := NewMemoryUserStore()
	ctx := context.Background()

	u := &catalog.User{ID: "u-1", Email: "paula@example.com", Name: "Paula Provider", Role: catalog.RoleProvider, IsActive: true}
	require.NoError(t, s.Insert(ctx, u))

	byID, err := s.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "paula@example.com", byID.Email)

	byEmail, err := s.GetByEmail(ctx, "paula@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byEmail.ID)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrUserNotFound)
	_, err = s.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, catalog.ErrUserNotFound)

	users, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
