package job

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists queue jobs.
type Repository interface {
	// Create persists a new job.
	Create(ctx context.Context, j *Job) error
	// Update persists job state changes.
	Update(ctx context.Context, j *Job) error
	// FindByID retrieves a job.
	FindByID(ctx context.Context, id uuid.UUID) (*Job, error)
	// ClaimRunnable atomically moves up to limit runnable jobs on the
	// channel to enqueued and returns them, ordered by priority then ETA.
	ClaimRunnable(ctx context.Context, channel string, now time.Time, limit int) ([]*Job, error)
	// HasActive reports whether the (backend, operation) pair has a job in
	// an active state.
	HasActive(ctx context.Context, backendID uuid.UUID, operation string) (bool, error)
	// List returns jobs for a backend, newest first. A nil backend ID lists
	// across backends.
	List(ctx context.Context, backendID uuid.UUID, limit, offset int) ([]*Job, int64, error)
	// DeleteCompletedBefore removes done and failed jobs older than the
	// cutoff, returning how many were deleted.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
