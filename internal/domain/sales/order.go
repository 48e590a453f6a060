package sales

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound       = errors.New("sales: order not found")
	ErrOrderDuplicate      = errors.New("sales: order already imported for backend")
	ErrOrderIDRequired     = errors.New("sales: platform order ID is required")
	ErrOrderStatusUnknown  = errors.New("sales: unknown Amazon order status")
	ErrOrderItemsRequired  = errors.New("sales: order has no items")
	ErrOrderBackendMissing = errors.New("sales: order has no backend")
)

// Status is the connector-side order state, mapped from Amazon order states.
type Status string

const (
	StatusPending          Status = "PENDING"
	StatusUnshipped        Status = "UNSHIPPED"
	StatusPartiallyShipped Status = "PARTIALLY_SHIPPED"
	StatusShipped          Status = "SHIPPED"
	StatusCanceled         Status = "CANCELED"
	StatusUnfulfillable    Status = "UNFULFILLABLE"
)

// amazonStatuses maps MWS OrderStatus values onto connector states.
var amazonStatuses = map[string]Status{
	"Pending":             StatusPending,
	"PendingAvailability": StatusPending,
	"Unshipped":           StatusUnshipped,
	"PartiallyShipped":    StatusPartiallyShipped,
	"Shipped":             StatusShipped,
	"Canceled":            StatusCanceled,
	"Unfulfillable":       StatusUnfulfillable,
}

// StatusFromAmazon maps an MWS OrderStatus string.
func StatusFromAmazon(s string) (Status, error) {
	st, ok := amazonStatuses[s]
	if !ok {
		return "", ErrOrderStatusUnknown
	}
	return st, nil
}

// IsFinal reports whether the state is terminal.
func (s Status) IsFinal() bool {
	switch s {
	case StatusShipped, StatusCanceled, StatusUnfulfillable:
		return true
	default:
		return false
	}
}

// FulfillmentChannel distinguishes merchant- from Amazon-fulfilled orders.
type FulfillmentChannel string

const (
	FulfillmentMerchant FulfillmentChannel = "MFN"
	FulfillmentAmazon   FulfillmentChannel = "AFN"
)

// Order is the local binding of an Amazon sale order. One row per
// (backend, platform order ID); re-imports update in place.
type Order struct {
	ID        uuid.UUID
	BackendID uuid.UUID
	// PlatformOrderID is Amazon's order identifier (e.g. 403-1234567-1234567)
	PlatformOrderID string
	// Name is the ERP-facing order name, already carrying the backend prefix
	Name          string
	MarketplaceID string
	Status        Status
	Fulfillment   FulfillmentChannel
	Total         decimal.Decimal
	Currency      string
	BuyerEmail    string
	// PurchaseDate is when the order was placed on Amazon
	PurchaseDate time.Time
	// LastUpdateDate is Amazon's modification timestamp, used by the
	// updated-orders import to decide staleness
	LastUpdateDate time.Time
	Items          []OrderItem
	// RawPayload keeps the original API response for reprocessing
	RawPayload string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderItem is a line of an imported order.
type OrderItem struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	// OrderItemID is Amazon's line identifier
	OrderItemID   string
	SKU           string
	ASIN          string
	Title         string
	Quantity      int
	ItemPrice     decimal.Decimal
	ShippingPrice decimal.Decimal
	Tax           decimal.Decimal
}

// NewOrder validates and builds an imported order.
func NewOrder(backendID uuid.UUID, platformOrderID, name string, status Status, items []OrderItem) (*Order, error) {
	if backendID == uuid.Nil {
		return nil, ErrOrderBackendMissing
	}
	if platformOrderID == "" {
		return nil, ErrOrderIDRequired
	}
	if len(items) == 0 {
		return nil, ErrOrderItemsRequired
	}
	o := &Order{
		ID:              uuid.New(),
		BackendID:       backendID,
		PlatformOrderID: platformOrderID,
		Name:            name,
		Status:          status,
		Items:           items,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	return o, nil
}

// ApplyUpdate refreshes mutable fields from a newer Amazon snapshot. Stale
// snapshots (LastUpdateDate not after the stored one) are ignored.
func (o *Order) ApplyUpdate(status Status, lastUpdate time.Time, rawPayload string) bool {
	if !lastUpdate.After(o.LastUpdateDate) {
		return false
	}
	o.Status = status
	o.LastUpdateDate = lastUpdate
	if rawPayload != "" {
		o.RawPayload = rawPayload
	}
	o.UpdatedAt = time.Now()
	return true
}
