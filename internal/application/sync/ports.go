package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/amazon-connector/internal/domain/connector"
)

var (
	// ErrReportNotReady signals that a requested report is still being
	// generated and should be fetched again later.
	ErrReportNotReady = errors.New("sync: report not ready")
	// ErrReportCancelled signals that the marketplace cancelled the report
	// request; retrying the same request ID is pointless.
	ErrReportCancelled = errors.New("sync: report request cancelled")
)

// OrderSnapshot is one order as returned by the marketplace API, before it
// is bound to a local record.
type OrderSnapshot struct {
	PlatformOrderID string
	// Status is the raw Amazon OrderStatus value
	Status        string
	MarketplaceID string
	Fulfillment   string
	Total         decimal.Decimal
	Currency      string
	BuyerEmail    string
	PurchaseDate  time.Time
	LastUpdate    time.Time
	Items         []OrderItemSnapshot
	// RawPayload is the original response fragment, persisted for reprocessing
	RawPayload string
}

// OrderItemSnapshot is one order line from the marketplace API.
type OrderItemSnapshot struct {
	OrderItemID   string
	SKU           string
	ASIN          string
	Title         string
	Quantity      int
	ItemPrice     decimal.Decimal
	ShippingPrice decimal.Decimal
	Tax           decimal.Decimal
}

// PriceSnapshot is the seller's own listed price for a SKU.
type PriceSnapshot struct {
	SKU           string
	MarketplaceID string
	Price         decimal.Decimal
	Currency      string
}

// Report types submitted through the reports API.
const (
	ReportTypeSales     = "_GET_FLAT_FILE_ORDERS_DATA_"
	ReportTypeInventory = "_GET_MERCHANT_LISTINGS_DATA_"
)

// InventoryReportRow is one line of a parsed inventory report.
type InventoryReportRow struct {
	SKU                   string
	ASIN                  string
	Title                 string
	Quantity              int
	Price                 decimal.Decimal
	MarketplaceID         string
	MerchantShippingGroup string
}

// MarketplaceGateway is the port to the marketplace API. The adapter signs
// requests with the backend's credentials; every call is scoped to one
// backend.
type MarketplaceGateway interface {
	// ListOrders returns orders created inside the window.
	ListOrders(ctx context.Context, backend *connector.Backend, createdAfter, createdBefore time.Time) ([]OrderSnapshot, error)
	// ListUpdatedOrders returns orders modified inside the window.
	ListUpdatedOrders(ctx context.Context, backend *connector.Backend, updatedAfter, updatedBefore time.Time) ([]OrderSnapshot, error)
	// RequestReport submits a report request and returns its request ID.
	RequestReport(ctx context.Context, backend *connector.Backend, reportType string, from, to time.Time) (string, error)
	// FetchReport resolves a report request to its payload. Returns
	// ErrReportNotReady while the marketplace is still generating it.
	FetchReport(ctx context.Context, backend *connector.Backend, requestID string) ([]byte, error)
	// SubmitFeed uploads a feed document and returns the submission ID.
	SubmitFeed(ctx context.Context, backend *connector.Backend, feedType string, payload []byte) (string, error)
	// GetMyPrice returns the seller's current prices for up to 20 SKUs.
	GetMyPrice(ctx context.Context, backend *connector.Backend, marketplaceID string, skus []string) ([]PriceSnapshot, error)
	// GetFeesEstimate returns the estimated referral fee for listing an ASIN
	// at the given price.
	GetFeesEstimate(ctx context.Context, backend *connector.Backend, marketplaceID, asin string, price decimal.Decimal) (decimal.Decimal, error)
}

// MessageSource is the port to the price-change notification queue. Poll
// long-polls the backend's queue until the window elapses or ctx is done,
// calling handle for every message; messages are deleted from the queue
// only after handle returns nil.
type MessageSource interface {
	Poll(ctx context.Context, queueURL string, window time.Duration, handle func(messageID, body string) error) (int, error)
}

// ReportArchive stores fetched report payloads for audit and reprocessing.
// Implementations may be backed by object storage; a nil-safe no-op is used
// when archiving is disabled.
type ReportArchive interface {
	Store(ctx context.Context, backendID, reportType string, payload []byte) (string, error)
}

// Enqueuer is the port to the durable job queue.
type Enqueuer interface {
	// Enqueue schedules a job; priority orders runnable jobs (lower runs
	// first) and eta delays execution.
	Enqueue(ctx context.Context, backendID uuid.UUID, operation string, payload any, priority int, eta time.Time) error
	// HasActive reports whether a job for the (backend, operation) pair is
	// pending, enqueued or started.
	HasActive(ctx context.Context, backendID uuid.UUID, operation string) (bool, error)
}
