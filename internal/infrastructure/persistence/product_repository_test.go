package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/amazon-connector/internal/domain/listing"
)

func newTestBinding(t *testing.T, backendID uuid.UUID, sku string) *listing.ProductBinding {
	t.Helper()
	b, err := listing.NewProductBinding(backendID, sku, "B00EXAMPLE", "Example product")
	require.NoError(t, err)
	return b
}

func TestGormProductRepository_CreateAndFindBySKU(t *testing.T) {
	repo := NewGormProductRepository(newTestDB(t))
	ctx := context.Background()
	backendID := uuid.New()

	b := newTestBinding(t, backendID, "SKU-1")
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.FindBySKU(ctx, backendID, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "B00EXAMPLE", got.ASIN)

	_, err = repo.FindBySKU(ctx, backendID, "SKU-missing")
	assert.ErrorIs(t, err, listing.ErrProductNotFound)
}

func TestGormProductRepository_Create_DuplicateSKU(t *testing.T) {
	repo := NewGormProductRepository(newTestDB(t))
	ctx := context.Background()
	backendID := uuid.New()

	require.NoError(t, repo.Create(ctx, newTestBinding(t, backendID, "SKU-DUP")))

	// unique (backend_id, sku) violation maps to the domain error
	err := repo.Create(ctx, newTestBinding(t, backendID, "SKU-DUP"))
	assert.ErrorIs(t, err, listing.ErrProductDuplicateSKU)

	// the same SKU under another backend is a separate binding
	assert.NoError(t, repo.Create(ctx, newTestBinding(t, uuid.New(), "SKU-DUP")))
}

func TestGormProductRepository_UpdateMissing(t *testing.T) {
	repo := NewGormProductRepository(newTestDB(t))
	ctx := context.Background()

	b := newTestBinding(t, uuid.New(), "SKU-GONE")
	err := repo.Update(ctx, b)
	assert.ErrorIs(t, err, listing.ErrProductNotFound)
}
