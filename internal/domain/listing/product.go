package listing

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound     = errors.New("listing: product binding not found")
	ErrProductSKURequired  = errors.New("listing: SKU is required")
	ErrProductDuplicateSKU = errors.New("listing: SKU already bound for backend")
	ErrDetailNotFound      = errors.New("listing: listing detail not found")
)

// ProductBinding links a local product to its Amazon listing for one
// backend. Per-marketplace data lives in ListingDetail rows.
type ProductBinding struct {
	ID        uuid.UUID
	BackendID uuid.UUID
	// SKU is the seller SKU on Amazon, unique per backend
	SKU  string
	ASIN string
	// ProductID points at the local ERP product, when matched
	ProductID uuid.UUID
	Title     string
	// StockQty is the last quantity exported to Amazon
	StockQty int
	// ExportEnabled marks bindings included in automatic product export
	ExportEnabled bool
	// FeeRate is the referral fee fraction recovered from the fees estimate
	// API; zero until the fix-data pass fills it
	FeeRate decimal.Decimal
	// InitialPrice is the listing price observed when the binding was
	// created; zero until recovered
	InitialPrice decimal.Decimal
	Details      []ListingDetail
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ListingDetail is per-marketplace listing state for a product binding.
type ListingDetail struct {
	ID            uuid.UUID
	BindingID     uuid.UUID
	MarketplaceID string
	// Price is the currently published price on the marketplace
	Price    decimal.Decimal
	Currency string
	// MinMargin/MaxMargin override the backend margin band when set
	MinMargin decimal.Decimal
	MaxMargin decimal.Decimal
	// MerchantShippingGroup is the seller shipping setting observed in
	// inventory reports; feeds shipping-template discovery
	MerchantShippingGroup string
	Active                bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewProductBinding validates and builds a binding.
func NewProductBinding(backendID uuid.UUID, sku, asin, title string) (*ProductBinding, error) {
	if sku == "" {
		return nil, ErrProductSKURequired
	}
	return &ProductBinding{
		ID:        uuid.New(),
		BackendID: backendID,
		SKU:       sku,
		ASIN:      asin,
		Title:     title,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// NeedsFixData reports whether the fix-data recovery pass should fetch
// initial price or fee information for this binding.
func (p *ProductBinding) NeedsFixData() bool {
	return p.FeeRate.IsZero() || p.InitialPrice.IsZero()
}

// RecordFixData stores recovered price and fee data.
func (p *ProductBinding) RecordFixData(initialPrice, feeRate decimal.Decimal) {
	if p.InitialPrice.IsZero() && !initialPrice.IsZero() {
		p.InitialPrice = initialPrice
	}
	if p.FeeRate.IsZero() && !feeRate.IsZero() {
		p.FeeRate = feeRate
	}
	p.UpdatedAt = time.Now()
}

// UpdateStock records the quantity last exported.
func (p *ProductBinding) UpdateStock(qty int) {
	p.StockQty = qty
	p.UpdatedAt = time.Now()
}

// Detail returns the listing detail for a marketplace, if present.
func (p *ProductBinding) Detail(marketplaceID string) (*ListingDetail, bool) {
	for i := range p.Details {
		if p.Details[i].MarketplaceID == marketplaceID {
			return &p.Details[i], true
		}
	}
	return nil, false
}
