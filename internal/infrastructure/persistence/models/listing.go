package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/amazon-connector/internal/domain/listing"
)

// ProductBindingModel is the persistence model for Amazon product bindings.
type ProductBindingModel struct {
	ID            uuid.UUID            `gorm:"type:uuid;primary_key"`
	BackendID     uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:uq_binding_backend_sku,priority:1"`
	SKU           string               `gorm:"type:varchar(100);not null;uniqueIndex:uq_binding_backend_sku,priority:2"`
	ASIN          string               `gorm:"type:varchar(20);index"`
	ProductID     uuid.UUID            `gorm:"type:uuid"`
	Title         string               `gorm:"type:varchar(512)"`
	StockQty      int                  `gorm:"not null;default:0"`
	ExportEnabled bool                 `gorm:"not null;default:false;index"`
	FeeRate       decimal.Decimal      `gorm:"type:numeric(8,4);not null;default:0"`
	InitialPrice  decimal.Decimal      `gorm:"type:numeric(14,2);not null;default:0"`
	Details       []ListingDetailModel `gorm:"foreignKey:BindingID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time            `gorm:"not null"`
	UpdatedAt     time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductBindingModel) TableName() string {
	return "product_bindings"
}

// ListingDetailModel is the persistence model for per-marketplace listing state.
type ListingDetailModel struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primary_key"`
	BindingID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_detail_binding_marketplace,priority:1"`
	MarketplaceID         string          `gorm:"type:varchar(32);not null;uniqueIndex:uq_detail_binding_marketplace,priority:2"`
	Price                 decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Currency              string          `gorm:"type:varchar(3)"`
	MinMargin             decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`
	MaxMargin             decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`
	MerchantShippingGroup string          `gorm:"type:varchar(255)"`
	Active                bool            `gorm:"not null;default:true"`
	CreatedAt             time.Time       `gorm:"not null"`
	UpdatedAt             time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ListingDetailModel) TableName() string {
	return "listing_details"
}

// ToDomain converts the persistence model to a domain ProductBinding.
func (m *ProductBindingModel) ToDomain() *listing.ProductBinding {
	p := &listing.ProductBinding{
		ID:            m.ID,
		BackendID:     m.BackendID,
		SKU:           m.SKU,
		ASIN:          m.ASIN,
		ProductID:     m.ProductID,
		Title:         m.Title,
		StockQty:      m.StockQty,
		ExportEnabled: m.ExportEnabled,
		FeeRate:       m.FeeRate,
		InitialPrice:  m.InitialPrice,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	for _, d := range m.Details {
		p.Details = append(p.Details, *d.ToDomain())
	}
	return p
}

// FromDomain populates the persistence model from a domain ProductBinding.
func (m *ProductBindingModel) FromDomain(p *listing.ProductBinding) {
	m.ID = p.ID
	m.BackendID = p.BackendID
	m.SKU = p.SKU
	m.ASIN = p.ASIN
	m.ProductID = p.ProductID
	m.Title = p.Title
	m.StockQty = p.StockQty
	m.ExportEnabled = p.ExportEnabled
	m.FeeRate = p.FeeRate
	m.InitialPrice = p.InitialPrice
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt

	m.Details = m.Details[:0]
	for _, d := range p.Details {
		dm := ListingDetailModel{}
		dm.FromDomain(&d)
		m.Details = append(m.Details, dm)
	}
}

// ToDomain converts the persistence model to a domain ListingDetail.
func (m *ListingDetailModel) ToDomain() *listing.ListingDetail {
	return &listing.ListingDetail{
		ID:                    m.ID,
		BindingID:             m.BindingID,
		MarketplaceID:         m.MarketplaceID,
		Price:                 m.Price,
		Currency:              m.Currency,
		MinMargin:             m.MinMargin,
		MaxMargin:             m.MaxMargin,
		MerchantShippingGroup: m.MerchantShippingGroup,
		Active:                m.Active,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain ListingDetail.
func (m *ListingDetailModel) FromDomain(d *listing.ListingDetail) {
	m.ID = d.ID
	m.BindingID = d.BindingID
	m.MarketplaceID = d.MarketplaceID
	m.Price = d.Price
	m.Currency = d.Currency
	m.MinMargin = d.MinMargin
	m.MaxMargin = d.MaxMargin
	m.MerchantShippingGroup = d.MerchantShippingGroup
	m.Active = d.Active
	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt
}

// FeedModel is the persistence model for MWS feeds.
type FeedModel struct {
	ID           uuid.UUID          `gorm:"type:uuid;primary_key"`
	BackendID    uuid.UUID          `gorm:"type:uuid;not null;index:idx_feed_backend_status,priority:1"`
	Type         listing.FeedType   `gorm:"type:varchar(16);not null"`
	Status       listing.FeedStatus `gorm:"type:varchar(16);not null;index:idx_feed_backend_status,priority:2"`
	SubmissionID string             `gorm:"type:varchar(64)"`
	ErrorMessage string             `gorm:"type:text"`
	Items        []FeedItemModel    `gorm:"foreignKey:FeedID;constraint:OnDelete:CASCADE"`
	SubmittedAt  *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FeedModel) TableName() string {
	return "feeds"
}

// FeedItemModel is the persistence model for feed items.
type FeedItemModel struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	FeedID  uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU     string    `gorm:"type:varchar(100);not null"`
	Payload string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (FeedItemModel) TableName() string {
	return "feed_items"
}

// ToDomain converts the persistence model to a domain Feed.
func (m *FeedModel) ToDomain() *listing.Feed {
	f := &listing.Feed{
		ID:           m.ID,
		BackendID:    m.BackendID,
		Type:         m.Type,
		Status:       m.Status,
		SubmissionID: m.SubmissionID,
		ErrorMessage: m.ErrorMessage,
		SubmittedAt:  m.SubmittedAt,
		CompletedAt:  m.CompletedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for _, item := range m.Items {
		f.Items = append(f.Items, listing.FeedItem{
			ID:      item.ID,
			FeedID:  item.FeedID,
			SKU:     item.SKU,
			Payload: item.Payload,
		})
	}
	return f
}

// FromDomain populates the persistence model from a domain Feed.
func (m *FeedModel) FromDomain(f *listing.Feed) {
	m.ID = f.ID
	m.BackendID = f.BackendID
	m.Type = f.Type
	m.Status = f.Status
	m.SubmissionID = f.SubmissionID
	m.ErrorMessage = f.ErrorMessage
	m.SubmittedAt = f.SubmittedAt
	m.CompletedAt = f.CompletedAt
	m.CreatedAt = f.CreatedAt
	m.UpdatedAt = f.UpdatedAt

	m.Items = m.Items[:0]
	for _, item := range f.Items {
		m.Items = append(m.Items, FeedItemModel{
			ID:      item.ID,
			FeedID:  item.FeedID,
			SKU:     item.SKU,
			Payload: item.Payload,
		})
	}
}
