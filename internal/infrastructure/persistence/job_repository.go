package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/job"
	"github.com/erp/amazon-connector/internal/infrastructure/persistence/models"
)

// GormJobRepository implements job.Repository using GORM
type GormJobRepository struct {
	db *gorm.DB
}

var _ job.Repository = (*GormJobRepository)(nil)

// NewGormJobRepository creates a new GormJobRepository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// Create persists a new job
func (r *GormJobRepository) Create(ctx context.Context, j *job.Job) error {
	model := &models.JobModel{}
	model.FromDomain(j)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists job state changes
func (r *GormJobRepository) Update(ctx context.Context, j *job.Job) error {
	model := &models.JobModel{}
	model.FromDomain(j)
	result := r.db.WithContext(ctx).Model(&models.JobModel{}).
		Where("id = ?", j.ID).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

// FindByID finds a job by its ID
func (r *GormJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	var model models.JobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, job.ErrJobNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ClaimRunnable claims up to limit runnable jobs on the channel, selected by
// priority then ETA. Each candidate is flipped pending→enqueued with a guarded
// update; a candidate another claimer flipped first affects zero rows and is
// skipped, so a job is only ever returned to the claimer that won its update.
func (r *GormJobRepository) ClaimRunnable(ctx context.Context, channel string, now time.Time, limit int) ([]*job.Job, error) {
	var candidates []models.JobModel
	if err := r.db.WithContext(ctx).
		Where("channel = ? AND status = ? AND eta <= ?", channel, string(job.StatusPending), now).
		Order("priority ASC, eta ASC").
		Limit(limit).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	claimed := make([]*job.Job, 0, len(candidates))
	for i := range candidates {
		m := &candidates[i]
		claimedAt := time.Now()
		result := r.db.WithContext(ctx).Model(&models.JobModel{}).
			Where("id = ? AND status = ?", m.ID, string(job.StatusPending)).
			Updates(map[string]any{
				"status":     string(job.StatusEnqueued),
				"updated_at": claimedAt,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			// lost the race to a concurrent claimer
			continue
		}
		m.Status = string(job.StatusEnqueued)
		m.UpdatedAt = claimedAt
		claimed = append(claimed, m.ToDomain())
	}
	return claimed, nil
}

// HasActive reports whether a job for the pair is pending, enqueued or
// started
func (r *GormJobRepository) HasActive(ctx context.Context, backendID uuid.UUID, operation string) (bool, error) {
	statuses := make([]string, len(job.ActiveStatuses))
	for i, s := range job.ActiveStatuses {
		statuses[i] = string(s)
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.JobModel{}).
		Where("backend_id = ? AND operation = ? AND status IN ?", backendID, operation, statuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns jobs newest first, optionally scoped to a backend
func (r *GormJobRepository) List(ctx context.Context, backendID uuid.UUID, limit, offset int) ([]*job.Job, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.JobModel{})
	if backendID != uuid.Nil {
		query = query.Where("backend_id = ?", backendID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.JobModel
	if err := query.
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	jobs := make([]*job.Job, len(rows))
	for i, m := range rows {
		jobs[i] = m.ToDomain()
	}
	return jobs, total, nil
}

// DeleteCompletedBefore removes finished jobs older than the cutoff
func (r *GormJobRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []string{string(job.StatusDone), string(job.StatusFailed)}, cutoff).
		Delete(&models.JobModel{})
	return result.RowsAffected, result.Error
}
