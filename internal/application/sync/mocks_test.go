package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/domain/listing"
	"github.com/erp/amazon-connector/internal/domain/pricewatch"
	"github.com/erp/amazon-connector/internal/domain/sales"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockBackendRepository struct {
	mock.Mock
}

func (m *MockBackendRepository) Create(ctx context.Context, backend *connector.Backend) error {
	args := m.Called(ctx, backend)
	return args.Error(0)
}

func (m *MockBackendRepository) Update(ctx context.Context, backend *connector.Backend) error {
	args := m.Called(ctx, backend)
	return args.Error(0)
}

func (m *MockBackendRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackendRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Backend, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connector.Backend), args.Error(1)
}

func (m *MockBackendRepository) FindActive(ctx context.Context) ([]*connector.Backend, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*connector.Backend), args.Error(1)
}

func (m *MockBackendRepository) List(ctx context.Context, offset, limit int) ([]*connector.Backend, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*connector.Backend), args.Get(1).(int64), args.Error(2)
}

func (m *MockBackendRepository) SalePrefixTaken(ctx context.Context, prefix string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, prefix, excludeID)
	return args.Bool(0), args.Error(1)
}

type MockCheckpointRepository struct {
	mock.Mock
}

func (m *MockCheckpointRepository) Create(ctx context.Context, cp *connector.Checkpoint) error {
	args := m.Called(ctx, cp)
	return args.Error(0)
}

func (m *MockCheckpointRepository) Update(ctx context.Context, cp *connector.Checkpoint) error {
	args := m.Called(ctx, cp)
	return args.Error(0)
}

func (m *MockCheckpointRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Checkpoint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connector.Checkpoint), args.Error(1)
}

func (m *MockCheckpointRepository) ListUnresolved(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*connector.Checkpoint, int64, error) {
	args := m.Called(ctx, backendID, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*connector.Checkpoint), args.Get(1).(int64), args.Error(2)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *sales.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *sales.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByPlatformID(ctx context.Context, backendID uuid.UUID, platformOrderID string) (*sales.Order, error) {
	args := m.Called(ctx, backendID, platformOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByBackend(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*sales.Order, int64, error) {
	args := m.Called(ctx, backendID, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*sales.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) CountImportedSince(ctx context.Context, backendID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, backendID, since)
	return args.Get(0).(int64), args.Error(1)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, binding *listing.ProductBinding) error {
	args := m.Called(ctx, binding)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, binding *listing.ProductBinding) error {
	args := m.Called(ctx, binding)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.ProductBinding, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.ProductBinding), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, backendID uuid.UUID, sku string) (*listing.ProductBinding, error) {
	args := m.Called(ctx, backendID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.ProductBinding), args.Error(1)
}

func (m *MockProductRepository) FindByASIN(ctx context.Context, backendID uuid.UUID, asin string) ([]*listing.ProductBinding, error) {
	args := m.Called(ctx, backendID, asin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.ProductBinding), args.Error(1)
}

func (m *MockProductRepository) ListByBackend(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*listing.ProductBinding, int64, error) {
	args := m.Called(ctx, backendID, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*listing.ProductBinding), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) ListExportEnabled(ctx context.Context, backendID uuid.UUID) ([]*listing.ProductBinding, error) {
	args := m.Called(ctx, backendID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.ProductBinding), args.Error(1)
}

func (m *MockProductRepository) ListNeedingFixData(ctx context.Context, backendID uuid.UUID, limit int) ([]*listing.ProductBinding, error) {
	args := m.Called(ctx, backendID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.ProductBinding), args.Error(1)
}

func (m *MockProductRepository) CountListingDetails(ctx context.Context, backendID uuid.UUID) (int64, error) {
	args := m.Called(ctx, backendID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) UpsertDetail(ctx context.Context, detail *listing.ListingDetail) error {
	args := m.Called(ctx, detail)
	return args.Error(0)
}

type MockFeedRepository struct {
	mock.Mock
}

func (m *MockFeedRepository) Create(ctx context.Context, feed *listing.Feed) error {
	args := m.Called(ctx, feed)
	return args.Error(0)
}

func (m *MockFeedRepository) Update(ctx context.Context, feed *listing.Feed) error {
	args := m.Called(ctx, feed)
	return args.Error(0)
}

func (m *MockFeedRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Feed, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Feed), args.Error(1)
}

func (m *MockFeedRepository) FindOpen(ctx context.Context, backendID uuid.UUID, feedType listing.FeedType) (*listing.Feed, error) {
	args := m.Called(ctx, backendID, feedType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Feed), args.Error(1)
}

func (m *MockFeedRepository) ListPending(ctx context.Context, backendID uuid.UUID) ([]*listing.Feed, error) {
	args := m.Called(ctx, backendID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.Feed), args.Error(1)
}

func (m *MockFeedRepository) ListByBackend(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*listing.Feed, int64, error) {
	args := m.Called(ctx, backendID, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*listing.Feed), args.Get(1).(int64), args.Error(2)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *pricewatch.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) Update(ctx context.Context, msg *pricewatch.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricewatch.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricewatch.Message), args.Error(1)
}

func (m *MockMessageRepository) ListUnprocessed(ctx context.Context, backendID uuid.UUID, limit int) ([]*pricewatch.Message, error) {
	args := m.Called(ctx, backendID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pricewatch.Message), args.Error(1)
}

func (m *MockMessageRepository) CountUnprocessed(ctx context.Context, backendID uuid.UUID) (int64, error) {
	args := m.Called(ctx, backendID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) DeleteProcessedBefore(ctx context.Context, backendID uuid.UUID, keepDays int) (int64, error) {
	args := m.Called(ctx, backendID, keepDays)
	return args.Get(0).(int64), args.Error(1)
}

// =============================================================================
// Mock Ports
// =============================================================================

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListOrders(ctx context.Context, backend *connector.Backend, createdAfter, createdBefore time.Time) ([]OrderSnapshot, error) {
	args := m.Called(ctx, backend, createdAfter, createdBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OrderSnapshot), args.Error(1)
}

func (m *MockGateway) ListUpdatedOrders(ctx context.Context, backend *connector.Backend, updatedAfter, updatedBefore time.Time) ([]OrderSnapshot, error) {
	args := m.Called(ctx, backend, updatedAfter, updatedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OrderSnapshot), args.Error(1)
}

func (m *MockGateway) RequestReport(ctx context.Context, backend *connector.Backend, reportType string, from, to time.Time) (string, error) {
	args := m.Called(ctx, backend, reportType, from, to)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) FetchReport(ctx context.Context, backend *connector.Backend, requestID string) ([]byte, error) {
	args := m.Called(ctx, backend, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockGateway) SubmitFeed(ctx context.Context, backend *connector.Backend, feedType string, payload []byte) (string, error) {
	args := m.Called(ctx, backend, feedType, payload)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) GetMyPrice(ctx context.Context, backend *connector.Backend, marketplaceID string, skus []string) ([]PriceSnapshot, error) {
	args := m.Called(ctx, backend, marketplaceID, skus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]PriceSnapshot), args.Error(1)
}

func (m *MockGateway) GetFeesEstimate(ctx context.Context, backend *connector.Backend, marketplaceID, asin string, price decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, backend, marketplaceID, asin, price)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockMessageSource feeds canned messages through the poll handler.
type MockMessageSource struct {
	mock.Mock
	Messages [][2]string
}

func (m *MockMessageSource) Poll(ctx context.Context, queueURL string, window time.Duration, handle func(messageID, body string) error) (int, error) {
	args := m.Called(ctx, queueURL, window)
	handled := 0
	for _, msg := range m.Messages {
		if err := handle(msg[0], msg[1]); err != nil {
			return handled, err
		}
		handled++
	}
	if args.Error(1) != nil {
		return handled, args.Error(1)
	}
	return handled, nil
}

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Store(ctx context.Context, backendID, reportType string, payload []byte) (string, error) {
	args := m.Called(ctx, backendID, reportType, payload)
	return args.String(0), args.Error(1)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(ctx context.Context, backendID uuid.UUID, operation string, payload any, priority int, eta time.Time) error {
	args := m.Called(ctx, backendID, operation, payload, priority, eta)
	return args.Error(0)
}

func (m *MockEnqueuer) HasActive(ctx context.Context, backendID uuid.UUID, operation string) (bool, error) {
	args := m.Called(ctx, backendID, operation)
	return args.Bool(0), args.Error(1)
}
