package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/infrastructure/persistence/models"
)

// GormBackendRepository implements connector.BackendRepository using GORM
type GormBackendRepository struct {
	db *gorm.DB
}

var _ connector.BackendRepository = (*GormBackendRepository)(nil)

// NewGormBackendRepository creates a new GormBackendRepository
func NewGormBackendRepository(db *gorm.DB) *GormBackendRepository {
	return &GormBackendRepository{db: db}
}

// Create persists a new backend
func (r *GormBackendRepository) Create(ctx context.Context, backend *connector.Backend) error {
	model := models.BackendModelFromDomain(backend)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists backend changes
func (r *GormBackendRepository) Update(ctx context.Context, backend *connector.Backend) error {
	model := models.BackendModelFromDomain(backend)
	result := r.db.WithContext(ctx).Model(&models.BackendModel{}).
		Where("id = ?", backend.ID).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return connector.ErrBackendNotFound
	}
	return nil
}

// Delete removes a backend
func (r *GormBackendRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BackendModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return connector.ErrBackendNotFound
	}
	return nil
}

// FindByID finds a backend by its ID
func (r *GormBackendRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Backend, error) {
	var model models.BackendModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connector.ErrBackendNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns backends participating in scheduler fan-out
func (r *GormBackendRepository) FindActive(ctx context.Context) ([]*connector.Backend, error) {
	var backendModels []models.BackendModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&backendModels).Error; err != nil {
		return nil, err
	}
	backends := make([]*connector.Backend, len(backendModels))
	for i := range backendModels {
		backends[i] = backendModels[i].ToDomain()
	}
	return backends, nil
}

// List returns a page of backends with the total count
func (r *GormBackendRepository) List(ctx context.Context, offset, limit int) ([]*connector.Backend, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.BackendModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var backendModels []models.BackendModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&backendModels).Error; err != nil {
		return nil, 0, err
	}

	backends := make([]*connector.Backend, len(backendModels))
	for i := range backendModels {
		backends[i] = backendModels[i].ToDomain()
	}
	return backends, total, nil
}

// SalePrefixTaken reports whether another backend already uses the prefix
func (r *GormBackendRepository) SalePrefixTaken(ctx context.Context, prefix string, excludeID uuid.UUID) (bool, error) {
	if prefix == "" {
		return false, nil
	}
	var count int64
	query := r.db.WithContext(ctx).Model(&models.BackendModel{}).
		Where("sale_prefix = ?", prefix)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
