// Package queue runs the durable job queue scheduled sync work flows
// through. Jobs survive restarts in the database; a worker pool claims and
// executes them.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/erp/amazon-connector/internal/application/sync"
	"github.com/erp/amazon-connector/internal/domain/job"
	"github.com/erp/amazon-connector/internal/infrastructure/config"
)

var ErrHandlerNotRegistered = errors.New("queue: no handler registered for operation")

// Handler executes one job. The error it returns decides whether the job is
// retried.
type Handler func(ctx context.Context, j *job.Job) error

// Queue persists jobs and dispatches them to registered handlers with a
// fixed-size worker pool.
type Queue struct {
	repo    job.Repository
	channel string
	cfg     *config.QueueConfig
	logger  *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a queue over the given job repository.
func New(repo job.Repository, cfg *config.QueueConfig, logger *zap.Logger) *Queue {
	return &Queue{
		repo:     repo,
		channel:  cfg.Channel,
		cfg:      cfg,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to an operation name. Jobs whose operation has
// no handler fail without retry.
func (q *Queue) Register(operation string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[operation] = handler
}

// Enqueue persists a new job on the queue's channel.
func (q *Queue) Enqueue(ctx context.Context, backendID uuid.UUID, operation string, payload any, priority int, eta time.Time) error {
	j, err := job.New(backendID, operation, q.channel, payload, priority, eta)
	if err != nil {
		return err
	}
	if err := q.repo.Create(ctx, j); err != nil {
		return fmt.Errorf("enqueue %s: %w", operation, err)
	}
	q.logger.Debug("job enqueued",
		zap.String("job_id", j.ID.String()),
		zap.String("operation", operation),
		zap.Int("priority", priority),
		zap.Time("eta", j.ETA))
	return nil
}

// HasActive reports whether the (backend, operation) pair already has an
// unfinished job.
func (q *Queue) HasActive(ctx context.Context, backendID uuid.UUID, operation string) (bool, error) {
	return q.repo.HasActive(ctx, backendID, operation)
}

// Start launches the worker pool.
func (q *Queue) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	jobs := make(chan *job.Job)

	q.wg.Add(1)
	go q.claimLoop(ctx, jobs)

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, jobs)
	}

	q.logger.Info("queue started",
		zap.String("channel", q.channel),
		zap.Int("workers", q.cfg.Workers),
		zap.Duration("poll_interval", q.cfg.PollInterval))
	return nil
}

// Stop waits for in-flight jobs to finish or the context to expire.
func (q *Queue) Stop(ctx context.Context) error {
	if q.cancel != nil {
		q.cancel()
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("queue stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// claimLoop polls for runnable jobs and feeds them to the workers.
func (q *Queue) claimLoop(ctx context.Context, jobs chan<- *job.Job) {
	defer q.wg.Done()
	defer close(jobs)

	ticker := time.NewTicker(q.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			claimed, err := q.repo.ClaimRunnable(ctx, q.channel, time.Now(), q.cfg.Workers*2)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					q.logger.Error("claim runnable jobs failed", zap.Error(err))
				}
				continue
			}
			for _, j := range claimed {
				select {
				case <-ctx.Done():
					return
				case jobs <- j:
				}
			}
		}
	}
}

func (q *Queue) worker(ctx context.Context, jobs <-chan *job.Job) {
	defer q.wg.Done()
	for j := range jobs {
		q.execute(ctx, j)
	}
}

// execute runs one job through its handler and persists the outcome.
func (q *Queue) execute(ctx context.Context, j *job.Job) {
	q.mu.RLock()
	handler, ok := q.handlers[j.Operation]
	q.mu.RUnlock()

	if err := j.MarkStarted(); err != nil {
		q.logger.Error("job in unexpected state",
			zap.String("job_id", j.ID.String()),
			zap.String("status", string(j.Status)),
			zap.Error(err))
		return
	}
	if err := q.repo.Update(ctx, j); err != nil {
		q.logger.Error("persist job start failed", zap.String("job_id", j.ID.String()), zap.Error(err))
		return
	}

	if !ok {
		// fail permanently, there is nothing to retry against
		j.Retries = j.MaxRetries
		j.MarkFailed(ErrHandlerNotRegistered.Error())
		if err := q.repo.Update(ctx, j); err != nil {
			q.logger.Error("persist job failure failed", zap.String("job_id", j.ID.String()), zap.Error(err))
		}
		q.logger.Error("no handler for operation",
			zap.String("job_id", j.ID.String()),
			zap.String("operation", j.Operation))
		return
	}

	jobCtx := ctx
	if q.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, q.cfg.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := handler(jobCtx, j); err != nil {
		j.MarkFailed(err.Error())
		if updateErr := q.repo.Update(ctx, j); updateErr != nil {
			q.logger.Error("persist job failure failed", zap.String("job_id", j.ID.String()), zap.Error(updateErr))
		}
		if j.Status == job.StatusFailed {
			q.logger.Error("job failed permanently",
				zap.String("job_id", j.ID.String()),
				zap.String("operation", j.Operation),
				zap.Int("retries", j.Retries),
				zap.Error(err))
		} else {
			q.logger.Warn("job failed, retry scheduled",
				zap.String("job_id", j.ID.String()),
				zap.String("operation", j.Operation),
				zap.Int("retries", j.Retries),
				zap.Time("eta", j.ETA),
				zap.Error(err))
		}
		return
	}

	if err := j.MarkDone(); err != nil {
		q.logger.Error("job in unexpected state after handler",
			zap.String("job_id", j.ID.String()),
			zap.Error(err))
		return
	}
	if err := q.repo.Update(ctx, j); err != nil {
		q.logger.Error("persist job completion failed", zap.String("job_id", j.ID.String()), zap.Error(err))
		return
	}
	q.logger.Debug("job completed",
		zap.String("job_id", j.ID.String()),
		zap.String("operation", j.Operation),
		zap.Duration("duration", time.Since(start)))
}

var _ appsync.Enqueuer = (*Queue)(nil)
