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

// GormFeedRepository implements listing.FeedRepository using GORM
type GormFeedRepository struct {
	db *gorm.DB
}

var _ listing.FeedRepository = (*GormFeedRepository)(nil)

// NewGormFeedRepository creates a new GormFeedRepository
func NewGormFeedRepository(db *gorm.DB) *GormFeedRepository {
	return &GormFeedRepository{db: db}
}

// Create persists a new feed with its items
func (r *GormFeedRepository) Create(ctx context.Context, feed *listing.Feed) error {
	model := &models.FeedModel{}
	model.FromDomain(feed)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists feed changes, replacing items
func (r *GormFeedRepository) Update(ctx context.Context, feed *listing.Feed) error {
	model := &models.FeedModel{}
	model.FromDomain(feed)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.FeedModel{}).
			Where("id = ?", feed.ID).
			Select("*").Omit("id", "created_at", "Items").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return listing.ErrFeedNotFound
		}
		if err := tx.Where("feed_id = ?", feed.ID).Delete(&models.FeedItemModel{}).Error; err != nil {
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

// FindByID finds a feed by its ID
func (r *GormFeedRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Feed, error) {
	var model models.FeedModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrFeedNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpen returns the pending feed of a type for a backend, if any
func (r *GormFeedRepository) FindOpen(ctx context.Context, backendID uuid.UUID, feedType listing.FeedType) (*listing.Feed, error) {
	var model models.FeedModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("backend_id = ? AND type = ? AND status = ?", backendID, feedType, listing.FeedStatusPending).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrFeedNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListPending returns all pending feeds of a backend for submission
func (r *GormFeedRepository) ListPending(ctx context.Context, backendID uuid.UUID) ([]*listing.Feed, error) {
	var feedModels []models.FeedModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("backend_id = ? AND status = ?", backendID, listing.FeedStatusPending).
		Order("created_at ASC").
		Find(&feedModels).Error; err != nil {
		return nil, err
	}
	feeds := make([]*listing.Feed, len(feedModels))
	for i := range feedModels {
		feeds[i] = feedModels[i].ToDomain()
	}
	return feeds, nil
}

// ListByBackend returns a page of a backend's feeds, newest first
func (r *GormFeedRepository) ListByBackend(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*listing.Feed, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FeedModel{}).
		Where("backend_id = ?", backendID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var feedModels []models.FeedModel
	if err := query.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&feedModels).Error; err != nil {
		return nil, 0, err
	}

	feeds := make([]*listing.Feed, len(feedModels))
	for i := range feedModels {
		feeds[i] = feedModels[i].ToDomain()
	}
	return feeds, total, nil
}
