package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/infrastructure/persistence/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.BackendModel{},
		&models.CheckpointModel{},
		&models.ShippingTemplateModel{},
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.ProductBindingModel{},
		&models.ListingDetailModel{},
		&models.FeedModel{},
		&models.FeedItemModel{},
		&models.PriceMessageModel{},
		&models.JobModel{},
	))
	return db
}

func newTestBackend(t *testing.T, prefix string) *connector.Backend {
	t.Helper()
	b, err := connector.NewBackend("DE seller", "AKIAEXAMPLE", "secret", "A2SELLER", "amzn.mws.token", "de", prefix, uuid.New())
	require.NoError(t, err)
	de, _ := connector.MarketplaceByCountry("de")
	b.Marketplaces = []connector.Marketplace{de}
	return b
}

func TestGormBackendRepository_CreateAndFind(t *testing.T) {
	repo := NewGormBackendRepository(newTestDB(t))
	ctx := context.Background()

	b := newTestBackend(t, "AMZ-DE-")
	b.Checkpoints.ImportSalesFrom = time.Date(2020, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Name, got.Name)
	assert.Equal(t, b.SalePrefix, got.SalePrefix)
	assert.True(t, got.Checkpoints.ImportSalesFrom.Equal(b.Checkpoints.ImportSalesFrom))
	require.Len(t, got.Marketplaces, 1)
	assert.Equal(t, "A1PA6795UKMFR9", got.Marketplaces[0].ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, connector.ErrBackendNotFound)
}

func TestGormBackendRepository_UpdateAdvancesWatermark(t *testing.T) {
	repo := NewGormBackendRepository(newTestDB(t))
	ctx := context.Background()

	b := newTestBackend(t, "AMZ-DE-")
	require.NoError(t, repo.Create(ctx, b))

	end := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	b.AdvanceSalesWatermark(end)
	require.NoError(t, repo.Update(ctx, b))

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Checkpoints.ImportSalesFrom.Equal(end.Add(-connector.ImportDeltaBuffer)))
}

func TestGormBackendRepository_FindActive(t *testing.T) {
	repo := NewGormBackendRepository(newTestDB(t))
	ctx := context.Background()

	active := newTestBackend(t, "AMZ-DE-")
	inactive := newTestBackend(t, "AMZ-FR-")
	inactive.Deactivate()
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, inactive))

	got, err := repo.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)
}

func TestGormBackendRepository_SalePrefixTaken(t *testing.T) {
	repo := NewGormBackendRepository(newTestDB(t))
	ctx := context.Background()

	b := newTestBackend(t, "AMZ-DE-")
	require.NoError(t, repo.Create(ctx, b))

	taken, err := repo.SalePrefixTaken(ctx, "AMZ-DE-", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)

	// the owning backend itself is excluded
	taken, err = repo.SalePrefixTaken(ctx, "AMZ-DE-", b.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.SalePrefixTaken(ctx, "AMZ-FR-", uuid.Nil)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestGormCheckpointRepository_ListUnresolved(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCheckpointRepository(db)
	ctx := context.Background()
	backendID := uuid.New()

	first := connector.NewCheckpoint(backendID, "listing.product", "SKU-1", "no local product match")
	second := connector.NewCheckpoint(backendID, "pricewatch.message", "msg-9", "unparseable body")
	resolved := connector.NewCheckpoint(backendID, "listing.product", "SKU-2", "handled")
	resolved.Resolve()

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, resolved))

	got, total, err := repo.ListUnresolved(ctx, backendID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, got, 2)

	first.Resolve()
	require.NoError(t, repo.Update(ctx, first))
	_, total, err = repo.ListUnresolved(ctx, backendID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
