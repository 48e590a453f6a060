package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/amazon-connector/internal/domain/listing"
	"github.com/erp/amazon-connector/internal/infrastructure/persistence/models"
)

// GormProductRepository implements listing.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

var _ listing.ProductRepository = (*GormProductRepository)(nil)

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create persists a new product binding
func (r *GormProductRepository) Create(ctx context.Context, binding *listing.ProductBinding) error {
	model := &models.ProductBindingModel{}
	model.FromDomain(binding)
	err := r.db.WithContext(ctx).Create(model).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return listing.ErrProductDuplicateSKU
	}
	return err
}

// Update persists binding changes (listing details are updated via UpsertDetail)
func (r *GormProductRepository) Update(ctx context.Context, binding *listing.ProductBinding) error {
	model := &models.ProductBindingModel{}
	model.FromDomain(binding)
	result := r.db.WithContext(ctx).Model(&models.ProductBindingModel{}).
		Where("id = ?", binding.ID).
		Select("*").Omit("id", "created_at", "Details").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return listing.ErrProductNotFound
	}
	return nil
}

// FindByID finds a binding by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.ProductBinding, error) {
	var model models.ProductBindingModel
	if err := r.db.WithContext(ctx).Preload("Details").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySKU finds a binding by backend and seller SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, backendID uuid.UUID, sku string) (*listing.ProductBinding, error) {
	var model models.ProductBindingModel
	if err := r.db.WithContext(ctx).Preload("Details").
		Where("backend_id = ? AND sku = ?", backendID, sku).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByASIN finds all bindings for an ASIN on a backend. Multiple SKUs can
// share an ASIN.
func (r *GormProductRepository) FindByASIN(ctx context.Context, backendID uuid.UUID, asin string) ([]*listing.ProductBinding, error) {
	var bindingModels []models.ProductBindingModel
	if err := r.db.WithContext(ctx).Preload("Details").
		Where("backend_id = ? AND asin = ?", backendID, asin).
		Find(&bindingModels).Error; err != nil {
		return nil, err
	}
	bindings := make([]*listing.ProductBinding, len(bindingModels))
	for i := range bindingModels {
		bindings[i] = bindingModels[i].ToDomain()
	}
	return bindings, nil
}

// ListByBackend returns a page of a backend's bindings
func (r *GormProductRepository) ListByBackend(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*listing.ProductBinding, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductBindingModel{}).
		Where("backend_id = ?", backendID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bindingModels []models.ProductBindingModel
	if err := query.Preload("Details").
		Order("sku ASC").
		Offset(offset).Limit(limit).
		Find(&bindingModels).Error; err != nil {
		return nil, 0, err
	}

	bindings := make([]*listing.ProductBinding, len(bindingModels))
	for i := range bindingModels {
		bindings[i] = bindingModels[i].ToDomain()
	}
	return bindings, total, nil
}

// ListExportEnabled returns bindings flagged for automatic export
func (r *GormProductRepository) ListExportEnabled(ctx context.Context, backendID uuid.UUID) ([]*listing.ProductBinding, error) {
	var bindingModels []models.ProductBindingModel
	if err := r.db.WithContext(ctx).Preload("Details").
		Where("backend_id = ? AND export_enabled = ?", backendID, true).
		Order("sku ASC").
		Find(&bindingModels).Error; err != nil {
		return nil, err
	}
	bindings := make([]*listing.ProductBinding, len(bindingModels))
	for i := range bindingModels {
		bindings[i] = bindingModels[i].ToDomain()
	}
	return bindings, nil
}

// ListNeedingFixData returns bindings missing fee or initial price data
func (r *GormProductRepository) ListNeedingFixData(ctx context.Context, backendID uuid.UUID, limit int) ([]*listing.ProductBinding, error) {
	var bindingModels []models.ProductBindingModel
	if err := r.db.WithContext(ctx).Preload("Details").
		Where("backend_id = ? AND (fee_rate = 0 OR initial_price = 0)", backendID).
		Order("updated_at ASC").
		Limit(limit).
		Find(&bindingModels).Error; err != nil {
		return nil, err
	}
	bindings := make([]*listing.ProductBinding, len(bindingModels))
	for i := range bindingModels {
		bindings[i] = bindingModels[i].ToDomain()
	}
	return bindings, nil
}

// CountListingDetails counts listing details across a backend's bindings
func (r *GormProductRepository) CountListingDetails(ctx context.Context, backendID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ListingDetailModel{}).
		Joins("JOIN product_bindings ON product_bindings.id = listing_details.binding_id").
		Where("product_bindings.backend_id = ?", backendID).
		Count(&count).Error
	return count, err
}

// UpsertDetail creates or updates a per-marketplace listing detail
func (r *GormProductRepository) UpsertDetail(ctx context.Context, detail *listing.ListingDetail) error {
	model := &models.ListingDetailModel{}
	model.FromDomain(detail)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "binding_id"}, {Name: "marketplace_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price", "currency", "min_margin", "max_margin",
			"merchant_shipping_group", "active", "updated_at",
		}),
	}).Create(model).Error
}
