package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/amazon-connector/internal/domain/sales"
	"github.com/erp/amazon-connector/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements sales.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

var _ sales.OrderRepository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create persists a new imported order with its items
func (r *GormOrderRepository) Create(ctx context.Context, order *sales.Order) error {
	model := models.OrderModelFromDomain(order)
	err := r.db.WithContext(ctx).Create(model).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return sales.ErrOrderDuplicate
	}
	return err
}

// Update persists order changes, replacing items
func (r *GormOrderRepository) Update(ctx context.Context, order *sales.Order) error {
	model := models.OrderModelFromDomain(order)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OrderModel{}).
			Where("id = ?", order.ID).
			Select("*").Omit("id", "created_at", "Items").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return sales.ErrOrderNotFound
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sales.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPlatformID finds the binding of an Amazon order for a backend
func (r *GormOrderRepository) FindByPlatformID(ctx context.Context, backendID uuid.UUID, platformOrderID string) (*sales.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("backend_id = ? AND platform_order_id = ?", backendID, platformOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sales.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByBackend returns a page of a backend's orders, newest purchase first
func (r *GormOrderRepository) ListByBackend(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*sales.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("backend_id = ?", backendID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orderModels []models.OrderModel
	if err := query.Preload("Items").
		Order("purchase_date DESC").
		Offset(offset).Limit(limit).
		Find(&orderModels).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*sales.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = orderModels[i].ToDomain()
	}
	return orders, total, nil
}

// CountImportedSince counts orders imported after the given time
func (r *GormOrderRepository) CountImportedSince(ctx context.Context, backendID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("backend_id = ? AND created_at >= ?", backendID, since).
		Count(&count).Error
	return count, err
}
