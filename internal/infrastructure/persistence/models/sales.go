package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/amazon-connector/internal/domain/sales"
)

// OrderModel is the persistence model for imported Amazon orders.
type OrderModel struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key"`
	BackendID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uq_order_backend_platform,priority:1"`
	PlatformOrderID string           `gorm:"type:varchar(64);not null;uniqueIndex:uq_order_backend_platform,priority:2"`
	Name            string           `gorm:"type:varchar(100);not null;index"`
	MarketplaceID   string           `gorm:"type:varchar(32)"`
	Status          sales.Status     `gorm:"type:varchar(32);not null"`
	Fulfillment     string           `gorm:"type:varchar(8)"`
	Total           decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0"`
	Currency        string           `gorm:"type:varchar(3)"`
	BuyerEmail      string           `gorm:"type:varchar(255)"`
	PurchaseDate    time.Time        `gorm:"index"`
	LastUpdateDate  time.Time        `gorm:"index"`
	RawPayload      string           `gorm:"type:text"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time        `gorm:"not null"`
	UpdatedAt       time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "amazon_orders"
}

// OrderItemModel is the persistence model for order lines.
type OrderItemModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderItemID   string          `gorm:"type:varchar(64);not null"`
	SKU           string          `gorm:"type:varchar(100);index"`
	ASIN          string          `gorm:"type:varchar(20)"`
	Title         string          `gorm:"type:varchar(512)"`
	Quantity      int             `gorm:"not null;default:0"`
	ItemPrice     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	ShippingPrice decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Tax           decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "amazon_order_items"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *sales.Order {
	o := &sales.Order{
		ID:              m.ID,
		BackendID:       m.BackendID,
		PlatformOrderID: m.PlatformOrderID,
		Name:            m.Name,
		MarketplaceID:   m.MarketplaceID,
		Status:          m.Status,
		Fulfillment:     sales.FulfillmentChannel(m.Fulfillment),
		Total:           m.Total,
		Currency:        m.Currency,
		BuyerEmail:      m.BuyerEmail,
		PurchaseDate:    m.PurchaseDate,
		LastUpdateDate:  m.LastUpdateDate,
		RawPayload:      m.RawPayload,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	for _, item := range m.Items {
		o.Items = append(o.Items, sales.OrderItem{
			ID:            item.ID,
			OrderID:       item.OrderID,
			OrderItemID:   item.OrderItemID,
			SKU:           item.SKU,
			ASIN:          item.ASIN,
			Title:         item.Title,
			Quantity:      item.Quantity,
			ItemPrice:     item.ItemPrice,
			ShippingPrice: item.ShippingPrice,
			Tax:           item.Tax,
		})
	}
	return o
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *sales.Order) {
	m.ID = o.ID
	m.BackendID = o.BackendID
	m.PlatformOrderID = o.PlatformOrderID
	m.Name = o.Name
	m.MarketplaceID = o.MarketplaceID
	m.Status = o.Status
	m.Fulfillment = string(o.Fulfillment)
	m.Total = o.Total
	m.Currency = o.Currency
	m.BuyerEmail = o.BuyerEmail
	m.PurchaseDate = o.PurchaseDate
	m.LastUpdateDate = o.LastUpdateDate
	m.RawPayload = o.RawPayload
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt

	m.Items = m.Items[:0]
	for _, item := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			ID:            item.ID,
			OrderID:       item.OrderID,
			OrderItemID:   item.OrderItemID,
			SKU:           item.SKU,
			ASIN:          item.ASIN,
			Title:         item.Title,
			Quantity:      item.Quantity,
			ItemPrice:     item.ItemPrice,
			ShippingPrice: item.ShippingPrice,
			Tax:           item.Tax,
		})
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *sales.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
