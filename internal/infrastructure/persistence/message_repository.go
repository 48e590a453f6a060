package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/pricewatch"
	"github.com/erp/amazon-connector/internal/infrastructure/persistence/models"
)

// GormMessageRepository implements pricewatch.MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

var _ pricewatch.MessageRepository = (*GormMessageRepository)(nil)

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create persists a received message
func (r *GormMessageRepository) Create(ctx context.Context, msg *pricewatch.Message) error {
	model := &models.PriceMessageModel{}
	model.FromDomain(msg)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists message changes
func (r *GormMessageRepository) Update(ctx context.Context, msg *pricewatch.Message) error {
	model := &models.PriceMessageModel{}
	model.FromDomain(msg)
	result := r.db.WithContext(ctx).Model(&models.PriceMessageModel{}).
		Where("id = ?", msg.ID).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pricewatch.ErrMessageNotFound
	}
	return nil
}

// FindByID finds a message by its ID
func (r *GormMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricewatch.Message, error) {
	var model models.PriceMessageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pricewatch.ErrMessageNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListUnprocessed returns oldest-first unprocessed messages for dispatch
func (r *GormMessageRepository) ListUnprocessed(ctx context.Context, backendID uuid.UUID, limit int) ([]*pricewatch.Message, error) {
	var messageModels []models.PriceMessageModel
	if err := r.db.WithContext(ctx).
		Where("backend_id = ? AND processed = ?", backendID, false).
		Order("received_at ASC").
		Limit(limit).
		Find(&messageModels).Error; err != nil {
		return nil, err
	}
	messages := make([]*pricewatch.Message, len(messageModels))
	for i := range messageModels {
		messages[i] = messageModels[i].ToDomain()
	}
	return messages, nil
}

// CountUnprocessed counts pending messages of a backend
func (r *GormMessageRepository) CountUnprocessed(ctx context.Context, backendID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PriceMessageModel{}).
		Where("backend_id = ? AND processed = ?", backendID, false).
		Count(&count).Error
	return count, err
}

// DeleteProcessedBefore prunes consumed messages older than the retention
func (r *GormMessageRepository) DeleteProcessedBefore(ctx context.Context, backendID uuid.UUID, keepDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -keepDays)
	result := r.db.WithContext(ctx).
		Where("backend_id = ? AND processed = ? AND processed_at < ?", backendID, true, cutoff).
		Delete(&models.PriceMessageModel{})
	return result.RowsAffected, result.Error
}
