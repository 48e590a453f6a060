package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/job"
	"github.com/erp/amazon-connector/internal/infrastructure/config"
)

// memoryJobRepository is an in-memory job.Repository for queue tests.
type memoryJobRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*job.Job
}

func newMemoryJobRepository() *memoryJobRepository {
	return &memoryJobRepository{jobs: make(map[uuid.UUID]*job.Job)}
}

func (r *memoryJobRepository) Create(ctx context.Context, j *job.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *j
	r.jobs[j.ID] = &clone
	return nil
}

func (r *memoryJobRepository) Update(ctx context.Context, j *job.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; !ok {
		return job.ErrJobNotFound
	}
	clone := *j
	r.jobs[j.ID] = &clone
	return nil
}

func (r *memoryJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, job.ErrJobNotFound
	}
	clone := *j
	return &clone, nil
}

func (r *memoryJobRepository) ClaimRunnable(ctx context.Context, channel string, now time.Time, limit int) ([]*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var claimed []*job.Job
	for _, j := range r.jobs {
		if len(claimed) >= limit {
			break
		}
		if j.Channel == channel && j.Runnable(now) {
			j.Status = job.StatusEnqueued
			clone := *j
			claimed = append(claimed, &clone)
		}
	}
	return claimed, nil
}

func (r *memoryJobRepository) HasActive(ctx context.Context, backendID uuid.UUID, operation string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.BackendID == backendID && j.Operation == operation && j.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryJobRepository) List(ctx context.Context, backendID uuid.UUID, limit, offset int) ([]*job.Job, int64, error) {
	return nil, 0, nil
}

func (r *memoryJobRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func newTestQueue(repo job.Repository) *Queue {
	return New(repo, &config.QueueConfig{
		Workers:      2,
		PollInterval: 10 * time.Millisecond,
		JobTimeout:   time.Second,
		Channel:      "root.amazon",
	}, zap.NewNop())
}

func waitForStatus(t *testing.T, repo job.Repository, id uuid.UUID, want job.Status) *job.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		if j.Status == want {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", id, want)
	return nil
}

func TestQueue_ExecutesRegisteredHandler(t *testing.T) {
	repo := newMemoryJobRepository()
	queue := newTestQueue(repo)

	var mu sync.Mutex
	var decoded map[string]string
	queue.Register("import_sales", func(ctx context.Context, j *job.Job) error {
		mu.Lock()
		defer mu.Unlock()
		return j.DecodePayload(&decoded)
	})

	require.NoError(t, queue.Start(context.Background()))
	defer queue.Stop(context.Background())

	backendID := uuid.New()
	require.NoError(t, queue.Enqueue(context.Background(), backendID, "import_sales",
		map[string]string{"window": "2h"}, 3, time.Time{}))

	var jobID uuid.UUID
	repo.mu.Lock()
	for id := range repo.jobs {
		jobID = id
	}
	repo.mu.Unlock()

	done := waitForStatus(t, repo, jobID, job.StatusDone)
	assert.NotNil(t, done.CompletedAt)

	mu.Lock()
	assert.Equal(t, "2h", decoded["window"])
	mu.Unlock()
}

func TestQueue_FailedJobIsRescheduled(t *testing.T) {
	repo := newMemoryJobRepository()
	queue := newTestQueue(repo)

	queue.Register("import_sales", func(ctx context.Context, j *job.Job) error {
		return errors.New("marketplace unavailable")
	})

	require.NoError(t, queue.Start(context.Background()))
	defer queue.Stop(context.Background())

	backendID := uuid.New()
	require.NoError(t, queue.Enqueue(context.Background(), backendID, "import_sales", nil, 5, time.Time{}))

	var jobID uuid.UUID
	repo.mu.Lock()
	for id := range repo.jobs {
		jobID = id
	}
	repo.mu.Unlock()

	rescheduled := waitForStatus(t, repo, jobID, job.StatusPending)
	assert.GreaterOrEqual(t, rescheduled.Retries, 1)
	assert.Equal(t, "marketplace unavailable", rescheduled.LastError)
	assert.True(t, rescheduled.ETA.After(time.Now()), "retry ETA is in the future")
}

func TestQueue_UnregisteredOperationFailsPermanently(t *testing.T) {
	repo := newMemoryJobRepository()
	queue := newTestQueue(repo)

	require.NoError(t, queue.Start(context.Background()))
	defer queue.Stop(context.Background())

	require.NoError(t, queue.Enqueue(context.Background(), uuid.New(), "unknown_op", nil, 5, time.Time{}))

	var jobID uuid.UUID
	repo.mu.Lock()
	for id := range repo.jobs {
		jobID = id
	}
	repo.mu.Unlock()

	failed := waitForStatus(t, repo, jobID, job.StatusFailed)
	assert.Contains(t, failed.LastError, "no handler registered")
}

func TestQueue_HasActiveDeduplicates(t *testing.T) {
	repo := newMemoryJobRepository()
	queue := newTestQueue(repo)
	ctx := context.Background()
	backendID := uuid.New()

	active, err := queue.HasActive(ctx, backendID, "import_sales")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, queue.Enqueue(ctx, backendID, "import_sales", nil, 5, time.Now().Add(time.Hour)))

	active, err = queue.HasActive(ctx, backendID, "import_sales")
	require.NoError(t, err)
	assert.True(t, active, "a delayed job still counts as active")
}

func TestQueue_StopWaitsForWorkers(t *testing.T) {
	repo := newMemoryJobRepository()
	queue := newTestQueue(repo)

	started := make(chan struct{})
	queue.Register("slow", func(ctx context.Context, j *job.Job) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	require.NoError(t, queue.Start(context.Background()))
	require.NoError(t, queue.Enqueue(context.Background(), uuid.New(), "slow", nil, 5, time.Time{}))

	<-started
	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, queue.Stop(stopCtx))
}
