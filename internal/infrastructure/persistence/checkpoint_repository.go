package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/infrastructure/persistence/models"
)

// GormCheckpointRepository implements connector.CheckpointRepository using GORM
type GormCheckpointRepository struct {
	db *gorm.DB
}

var _ connector.CheckpointRepository = (*GormCheckpointRepository)(nil)

// NewGormCheckpointRepository creates a new GormCheckpointRepository
func NewGormCheckpointRepository(db *gorm.DB) *GormCheckpointRepository {
	return &GormCheckpointRepository{db: db}
}

// Create persists a new checkpoint
func (r *GormCheckpointRepository) Create(ctx context.Context, cp *connector.Checkpoint) error {
	model := &models.CheckpointModel{}
	model.FromDomain(cp)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists checkpoint changes
func (r *GormCheckpointRepository) Update(ctx context.Context, cp *connector.Checkpoint) error {
	model := &models.CheckpointModel{}
	model.FromDomain(cp)
	result := r.db.WithContext(ctx).Model(&models.CheckpointModel{}).
		Where("id = ?", cp.ID).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return connector.ErrCheckpointNotFound
	}
	return nil
}

// FindByID finds a checkpoint by its ID
func (r *GormCheckpointRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Checkpoint, error) {
	var model models.CheckpointModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connector.ErrCheckpointNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListUnresolved returns unresolved review records for a backend, oldest first
func (r *GormCheckpointRepository) ListUnresolved(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*connector.Checkpoint, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CheckpointModel{}).
		Where("resolved = ?", false)
	if backendID != uuid.Nil {
		query = query.Where("backend_id = ?", backendID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var checkpointModels []models.CheckpointModel
	if err := query.
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&checkpointModels).Error; err != nil {
		return nil, 0, err
	}

	checkpoints := make([]*connector.Checkpoint, len(checkpointModels))
	for i := range checkpointModels {
		checkpoints[i] = checkpointModels[i].ToDomain()
	}
	return checkpoints, total, nil
}
