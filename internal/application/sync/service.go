// Package sync orchestrates the scheduled synchronization operations of the
// connector: order imports, product imports/exports, stock and price
// updates, price-change message processing and feed submission. The
// scheduler fans operations out across active backends as durable queue
// jobs; the executors registered on the queue perform the actual work
// through the marketplace gateway.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/domain/job"
	"github.com/erp/amazon-connector/internal/domain/listing"
	"github.com/erp/amazon-connector/internal/domain/pricewatch"
	"github.com/erp/amazon-connector/internal/domain/sales"
)

// Operation names. Each names a job handler; the scheduled ones also name a
// fan-out trigger.
const (
	OpImportSales          = "import_sales"
	OpImportProducts       = "import_products"
	OpExportProducts       = "export_products"
	OpUpdateStockPrices    = "update_stock_prices"
	OpPollMessages         = "poll_messages"
	OpDispatchMessages     = "dispatch_messages"
	OpSubmitFeeds          = "submit_feeds"
	OpFixData              = "fix_data"
	OpFetchSalesReport     = "fetch_sales_report"
	OpFetchInventoryReport = "fetch_inventory_report"
	OpDispatchMessage      = "dispatch_message"
)

// Job priorities; lower runs first.
const (
	PriorityInventoryReportFetch = 1
	PrioritySalesReportFetch     = 3
	PriorityDefault              = 5
	PriorityDispatchMessage      = 7
)

// Report fetch delays give the marketplace time to generate a report before
// the first fetch attempt; premature fetches just burn a retry.
const (
	salesReportFetchDelay     = 5 * time.Minute
	inventoryReportFetchDelay = 10 * time.Minute
)

// fixDataBatch bounds how many bindings one fix-data run repairs.
const fixDataBatch = 100

var (
	ErrUnknownOperation = errors.New("sync: unknown operation")
	ErrOperationQueued  = errors.New("sync: operation already queued for backend")
	ErrNotSchedulable   = errors.New("sync: operation cannot be triggered directly")
	ErrPayloadMissing   = errors.New("sync: job payload missing required field")
)

// scheduledOperations are the operations the interval trigger and the manual
// HTTP trigger may fan out. The report-fetch and per-message operations are
// internal follow-ups and only ever enqueued by other executors.
var scheduledOperations = []string{
	OpImportSales,
	OpImportProducts,
	OpExportProducts,
	OpUpdateStockPrices,
	OpPollMessages,
	OpDispatchMessages,
	OpSubmitFeeds,
	OpFixData,
}

// reportFetchPayload carries a pending report request to its fetch job.
type reportFetchPayload struct {
	RequestID  string `json:"request_id"`
	ReportType string `json:"report_type"`
}

// messageJobPayload points a dispatch job at one stored price message.
type messageJobPayload struct {
	MessageID uuid.UUID `json:"message_id"`
}

// Service orchestrates the scheduled operations over the domain
// repositories and the infrastructure ports.
type Service struct {
	backendRepo    connector.BackendRepository
	checkpointRepo connector.CheckpointRepository
	orderRepo      sales.OrderRepository
	productRepo    listing.ProductRepository
	feedRepo       listing.FeedRepository
	messageRepo    pricewatch.MessageRepository

	gateway MarketplaceGateway
	source  MessageSource
	archive ReportArchive
	queue   Enqueuer

	// pollWindow bounds one SQS polling run
	pollWindow time.Duration
	logger     *zap.Logger
}

// NewService wires the sync orchestrator.
func NewService(
	backendRepo connector.BackendRepository,
	checkpointRepo connector.CheckpointRepository,
	orderRepo sales.OrderRepository,
	productRepo listing.ProductRepository,
	feedRepo listing.FeedRepository,
	messageRepo pricewatch.MessageRepository,
	gateway MarketplaceGateway,
	source MessageSource,
	archive ReportArchive,
	queue Enqueuer,
	pollWindow time.Duration,
	logger *zap.Logger,
) *Service {
	if pollWindow <= 0 {
		pollWindow = time.Minute
	}
	return &Service{
		backendRepo:    backendRepo,
		checkpointRepo: checkpointRepo,
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		feedRepo:       feedRepo,
		messageRepo:    messageRepo,
		gateway:        gateway,
		source:         source,
		archive:        archive,
		queue:          queue,
		pollWindow:     pollWindow,
		logger:         logger,
	}
}

// Operations returns every operation name the service executes. The queue
// registers Execute under each of them.
func (s *Service) Operations() []string {
	return []string{
		OpImportSales,
		OpImportProducts,
		OpExportProducts,
		OpUpdateStockPrices,
		OpPollMessages,
		OpDispatchMessages,
		OpSubmitFeeds,
		OpFixData,
		OpFetchSalesReport,
		OpFetchInventoryReport,
		OpDispatchMessage,
	}
}

// ScheduledOperations returns the operation names the interval trigger fans
// out.
func (s *Service) ScheduledOperations() []string {
	out := make([]string, len(scheduledOperations))
	copy(out, scheduledOperations)
	return out
}

// Schedule fans an operation out across all active backends it applies to.
// A backend with an unfinished job for the same operation is skipped.
func (s *Service) Schedule(ctx context.Context, operation string) error {
	if !isScheduled(operation) {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, operation)
	}

	backends, err := s.backendRepo.FindActive(ctx)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", operation, err)
	}

	scheduled := 0
	for _, backend := range backends {
		if !s.applies(backend, operation) {
			continue
		}
		active, err := s.queue.HasActive(ctx, backend.ID, operation)
		if err != nil {
			return fmt.Errorf("schedule %s: %w", operation, err)
		}
		if active {
			s.logger.Debug("operation already queued, skipping",
				zap.String("operation", operation),
				zap.String("backend_id", backend.ID.String()))
			continue
		}
		if err := s.queue.Enqueue(ctx, backend.ID, operation, nil, PriorityDefault, time.Time{}); err != nil {
			return fmt.Errorf("schedule %s: %w", operation, err)
		}
		scheduled++
	}

	if scheduled > 0 {
		s.logger.Info("operation scheduled",
			zap.String("operation", operation),
			zap.Int("backends", scheduled))
	}
	return nil
}

// Trigger enqueues one operation for one backend, bypassing the interval
// trigger. Used by the manual HTTP endpoint.
func (s *Service) Trigger(ctx context.Context, backendID uuid.UUID, operation string) error {
	if !isScheduled(operation) {
		return fmt.Errorf("%w: %s", ErrNotSchedulable, operation)
	}

	backend, err := s.backendRepo.FindByID(ctx, backendID)
	if err != nil {
		return err
	}
	if !backend.Active {
		return connector.ErrBackendInactive
	}
	if operation == OpPollMessages && !backend.HasQueue() {
		return connector.ErrBackendQueueNotBound
	}

	active, err := s.queue.HasActive(ctx, backend.ID, operation)
	if err != nil {
		return err
	}
	if active {
		return ErrOperationQueued
	}
	return s.queue.Enqueue(ctx, backend.ID, operation, nil, PriorityDefault, time.Time{})
}

// Execute runs one claimed job. It is registered on the queue under every
// operation name.
func (s *Service) Execute(ctx context.Context, j *job.Job) error {
	switch j.Operation {
	case OpImportSales:
		return s.importSales(ctx, j)
	case OpImportProducts:
		return s.importProducts(ctx, j)
	case OpExportProducts:
		return s.exportProducts(ctx, j)
	case OpUpdateStockPrices:
		return s.updateStockPrices(ctx, j)
	case OpPollMessages:
		return s.pollMessages(ctx, j)
	case OpDispatchMessages:
		return s.dispatchMessages(ctx, j)
	case OpSubmitFeeds:
		return s.submitFeeds(ctx, j)
	case OpFixData:
		return s.fixData(ctx, j)
	case OpFetchSalesReport:
		return s.fetchSalesReport(ctx, j)
	case OpFetchInventoryReport:
		return s.fetchInventoryReport(ctx, j)
	case OpDispatchMessage:
		return s.dispatchMessage(ctx, j)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOperation, j.Operation)
	}
}

// applies decides whether a scheduled operation is relevant for a backend.
func (s *Service) applies(backend *connector.Backend, operation string) bool {
	switch operation {
	case OpImportSales:
		return backend.SalesSyncActive()
	case OpUpdateStockPrices:
		return backend.StockSyncEnabled
	case OpPollMessages:
		return backend.HasQueue()
	case OpDispatchMessages:
		return backend.Repricing
	default:
		return backend.Active
	}
}

func isScheduled(operation string) bool {
	for _, op := range scheduledOperations {
		if op == operation {
			return true
		}
	}
	return false
}

// checkpoint records a review item for an operator; checkpoint write
// failures are logged but never fail the surrounding job.
func (s *Service) checkpoint(ctx context.Context, backendID uuid.UUID, model, recordID, reason string) {
	cp := connector.NewCheckpoint(backendID, model, recordID, reason)
	if err := s.checkpointRepo.Create(ctx, cp); err != nil {
		s.logger.Error("write checkpoint failed",
			zap.String("model", model),
			zap.String("record_id", recordID),
			zap.Error(err))
		return
	}
	s.logger.Warn("checkpoint recorded",
		zap.String("model", model),
		zap.String("record_id", recordID),
		zap.String("reason", reason))
}
