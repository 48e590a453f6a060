package connector

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Backend Errors
// ---------------------------------------------------------------------------

var (
	ErrBackendNotFound          = errors.New("connector: backend not found")
	ErrBackendNameRequired      = errors.New("connector: backend name is required")
	ErrBackendAccessKeyRequired = errors.New("connector: AWS access key is required")
	ErrBackendSecretKeyRequired = errors.New("connector: AWS secret key is required")
	ErrBackendSellerIDRequired  = errors.New("connector: seller ID is required")
	ErrBackendTokenRequired     = errors.New("connector: MWS auth token is required")
	ErrBackendRegionInvalid     = errors.New("connector: unsupported region")
	ErrBackendWarehouseRequired = errors.New("connector: warehouse is required")
	ErrBackendPrefixTaken       = errors.New("connector: sale prefix already in use")
	ErrBackendMarginInvalid     = errors.New("connector: margin limits must satisfy 0 <= min <= max")
	ErrBackendInactive          = errors.New("connector: backend is not active")
	ErrBackendQueueNotBound     = errors.New("connector: no SQS queue bound to backend")
)

// ImportDeltaBuffer is subtracted from an import window end before it is
// stored as the next watermark, so that records committed on Amazon's side
// slightly out of order are still caught by the following run.
const ImportDeltaBuffer = 120 * time.Second

// OrderWindowLag keeps the end of every order import window behind the
// current time. Amazon does not accept LastUpdatedAfter/CreatedAfter values
// closer than two minutes to now.
const OrderWindowLag = 2 * time.Minute

// ---------------------------------------------------------------------------
// Backend Aggregate
// ---------------------------------------------------------------------------

// Backend is a configured Amazon seller account the connector synchronizes
// against. All scheduled operations fan out over active backends.
type Backend struct {
	ID uuid.UUID
	// Name is a human label for the seller account
	Name string
	// AccessKey is the AWS access key ID used to sign MWS requests
	AccessKey string
	// SecretKey is the AWS secret access key
	SecretKey string
	// SellerID is the Amazon merchant identifier
	SellerID string
	// AuthToken is the MWS authorization token granted to the developer account
	AuthToken string
	// DeveloperID optionally overrides the registered developer ID
	DeveloperID string
	// Region selects the MWS endpoint group (e.g. "de", "fr", "us")
	Region string
	// WarehouseID is the warehouse own shipments are issued from
	WarehouseID uuid.UUID
	// FBAWarehouseID is the warehouse tracking Amazon-fulfilled stock
	FBAWarehouseID uuid.UUID
	// SalePrefix is prepended to imported order names; unique per backend
	SalePrefix string
	// MinMargin and MaxMargin bound the repricing engine when Repricing is on
	MinMargin decimal.Decimal
	MaxMargin decimal.Decimal
	// UnitsToChange suppresses price updates smaller than this amount
	UnitsToChange decimal.Decimal
	// Repricing enables automatic price adjustments from price-change messages
	Repricing bool
	// StockSyncEnabled gates the stock export operation
	StockSyncEnabled bool
	// SalesSyncDisabled pauses sale order imports without deactivating the backend
	SalesSyncDisabled bool
	// SQSQueueURL is the queue delivering price-change notifications
	SQSQueueURL string
	// Marketplaces the backend sells on; at least the region default
	Marketplaces []Marketplace
	// Active backends participate in scheduler fan-out
	Active bool

	Checkpoints SyncCheckpoints

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SyncCheckpoints holds the per-backend watermarks the scheduled imports
// advance. Zero values mean the operation has never run.
type SyncCheckpoints struct {
	// ImportSalesFrom is the lower bound of the next created-orders window
	ImportSalesFrom time.Time
	// ImportUpdatedSalesFrom is the lower bound of the next updated-orders window
	ImportUpdatedSalesFrom time.Time
	// ExportPricesAt marks the last successful price export
	ExportPricesAt time.Time
}

// NewBackend builds a backend with generated ID and validates it.
func NewBackend(name, accessKey, secretKey, sellerID, authToken, region, salePrefix string, warehouseID uuid.UUID) (*Backend, error) {
	b := &Backend{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		AccessKey:   strings.TrimSpace(accessKey),
		SecretKey:   secretKey,
		SellerID:    strings.TrimSpace(sellerID),
		AuthToken:   strings.TrimSpace(authToken),
		Region:      strings.ToLower(strings.TrimSpace(region)),
		SalePrefix:  strings.TrimSpace(salePrefix),
		WarehouseID: warehouseID,
		Active:      true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the aggregate invariants.
func (b *Backend) Validate() error {
	if b.Name == "" {
		return ErrBackendNameRequired
	}
	if b.AccessKey == "" {
		return ErrBackendAccessKeyRequired
	}
	if b.SecretKey == "" {
		return ErrBackendSecretKeyRequired
	}
	if b.SellerID == "" {
		return ErrBackendSellerIDRequired
	}
	if b.AuthToken == "" {
		return ErrBackendTokenRequired
	}
	if _, ok := regionEndpoints[b.Region]; !ok {
		return ErrBackendRegionInvalid
	}
	if b.WarehouseID == uuid.Nil {
		return ErrBackendWarehouseRequired
	}
	if b.Repricing {
		if b.MinMargin.IsNegative() || b.MinMargin.GreaterThan(b.MaxMargin) {
			return ErrBackendMarginInvalid
		}
	}
	return nil
}

// DefaultMarketplace returns the bound marketplace whose country matches the
// backend region, falling back to the first bound marketplace.
func (b *Backend) DefaultMarketplace() (Marketplace, error) {
	for _, m := range b.Marketplaces {
		if strings.EqualFold(m.CountryCode, b.Region) {
			return m, nil
		}
	}
	if len(b.Marketplaces) > 0 {
		return b.Marketplaces[0], nil
	}
	return Marketplace{}, ErrNoMarketplaceBound
}

// MarketplaceIDs returns the MWS IDs of all bound marketplaces.
func (b *Backend) MarketplaceIDs() []string {
	ids := make([]string, 0, len(b.Marketplaces))
	for _, m := range b.Marketplaces {
		ids = append(ids, m.ID)
	}
	return ids
}

// SalesImportWindow computes the created-orders window for the next import.
// The end is always lagged behind now; a backend that has never imported
// starts at the window end and imports nothing historical.
func (b *Backend) SalesImportWindow(now time.Time) (from, to time.Time) {
	to = now.Add(-OrderWindowLag)
	from = b.Checkpoints.ImportSalesFrom
	if from.IsZero() || from.After(to) {
		from = to
	}
	return from, to
}

// UpdatedSalesImportWindow computes the modified-orders window. When the
// updated-sales watermark has never been set it inherits the sales one.
func (b *Backend) UpdatedSalesImportWindow(now time.Time) (from, to time.Time) {
	to = now.Add(-OrderWindowLag)
	from = b.Checkpoints.ImportUpdatedSalesFrom
	if from.IsZero() {
		from = b.Checkpoints.ImportSalesFrom
	}
	if from.IsZero() || from.After(to) {
		from = to
	}
	return from, to
}

// AdvanceSalesWatermark moves the created-orders watermark to the given
// window end minus the safety buffer.
func (b *Backend) AdvanceSalesWatermark(windowEnd time.Time) {
	b.Checkpoints.ImportSalesFrom = windowEnd.Add(-ImportDeltaBuffer)
	b.UpdatedAt = time.Now()
}

// AdvanceUpdatedSalesWatermark moves the updated-orders watermark to the
// given window end minus the safety buffer.
func (b *Backend) AdvanceUpdatedSalesWatermark(windowEnd time.Time) {
	b.Checkpoints.ImportUpdatedSalesFrom = windowEnd.Add(-ImportDeltaBuffer)
	b.UpdatedAt = time.Now()
}

// MarkPricesExported records a completed price export.
func (b *Backend) MarkPricesExported(at time.Time) {
	b.Checkpoints.ExportPricesAt = at
	b.UpdatedAt = time.Now()
}

// Activate marks the backend eligible for scheduled operations.
func (b *Backend) Activate() {
	b.Active = true
	b.UpdatedAt = time.Now()
}

// Deactivate removes the backend from scheduler fan-out.
func (b *Backend) Deactivate() {
	b.Active = false
	b.UpdatedAt = time.Now()
}

// SalesSyncActive reports whether scheduled order imports should run.
func (b *Backend) SalesSyncActive() bool {
	return b.Active && !b.SalesSyncDisabled
}

// HasQueue reports whether a price-change SQS queue is bound.
func (b *Backend) HasQueue() bool {
	return b.SQSQueueURL != ""
}

// OrderName applies the backend's sale prefix to a platform order ID.
func (b *Backend) OrderName(platformOrderID string) string {
	if b.SalePrefix == "" {
		return platformOrderID
	}
	return b.SalePrefix + platformOrderID
}
