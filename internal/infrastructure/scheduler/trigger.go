// Package scheduler fires the scheduled sync operations on their configured
// intervals. Each firing fans the operation out across active backends
// through the sync service; a Redis lock keeps multiple instances from
// fanning out the same operation at once.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appsync "github.com/erp/amazon-connector/internal/application/sync"
	"github.com/erp/amazon-connector/internal/infrastructure/config"
)

// lockScope namespaces the scheduler's locks away from per-backend ones.
const lockScope = "scheduler"

// Dispatcher fans one operation out across active backends.
type Dispatcher interface {
	Schedule(ctx context.Context, operation string) error
}

// Locker serializes operation fan-out across scheduler instances.
type Locker interface {
	Acquire(ctx context.Context, scope, operation string) (bool, error)
	Release(ctx context.Context, scope, operation string) error
}

// Trigger runs one ticker loop per enabled operation interval.
type Trigger struct {
	cfg        *config.SyncConfig
	dispatcher Dispatcher
	lock       Locker
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a trigger over the sync intervals in cfg.
func New(cfg *config.SyncConfig, dispatcher Dispatcher, lock Locker, logger *zap.Logger) *Trigger {
	return &Trigger{
		cfg:        cfg,
		dispatcher: dispatcher,
		lock:       lock,
		logger:     logger,
	}
}

// Start launches the interval loops. Operations with a zero interval are
// disabled.
func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	if !t.cfg.Enabled {
		t.logger.Info("sync scheduling disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	started := 0
	for operation, interval := range t.intervals() {
		if interval <= 0 {
			continue
		}
		t.wg.Add(1)
		go t.loop(ctx, operation, interval)
		started++
	}

	t.logger.Info("sync trigger started", zap.Int("operations", started))
	return nil
}

// Stop cancels the loops and waits for in-flight firings.
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Trigger) loop(ctx context.Context, operation string, interval time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.fire(ctx, operation)
		}
	}
}

// fire fans one operation out, guarded by the cross-instance lock.
func (t *Trigger) fire(ctx context.Context, operation string) {
	acquired, err := t.lock.Acquire(ctx, lockScope, operation)
	if err != nil {
		t.logger.Error("acquire scheduler lock failed",
			zap.String("operation", operation),
			zap.Error(err))
		return
	}
	if !acquired {
		t.logger.Debug("operation held by another instance",
			zap.String("operation", operation))
		return
	}
	defer func() {
		if err := t.lock.Release(ctx, lockScope, operation); err != nil {
			t.logger.Warn("release scheduler lock failed",
				zap.String("operation", operation),
				zap.Error(err))
		}
	}()

	if err := t.dispatcher.Schedule(ctx, operation); err != nil {
		t.logger.Error("operation fan-out failed",
			zap.String("operation", operation),
			zap.Error(err))
	}
}

// intervals maps each scheduled operation to its configured interval.
func (t *Trigger) intervals() map[string]time.Duration {
	return map[string]time.Duration{
		appsync.OpImportSales:       t.cfg.ImportSalesInterval,
		appsync.OpImportProducts:    t.cfg.ImportProductsInterval,
		appsync.OpExportProducts:    t.cfg.ExportProductsInterval,
		appsync.OpUpdateStockPrices: t.cfg.UpdateStockInterval,
		appsync.OpPollMessages:      t.cfg.PollMessagesInterval,
		appsync.OpDispatchMessages:  t.cfg.DispatchInterval,
		appsync.OpSubmitFeeds:       t.cfg.SubmitFeedsInterval,
		appsync.OpFixData:           t.cfg.FixDataInterval,
	}
}
