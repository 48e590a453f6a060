package connector

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/amazon-connector/internal/domain/connector"
)

// =============================================================================
// Backend DTOs
// =============================================================================

// CreateBackendRequest represents a request to register a seller account
type CreateBackendRequest struct {
	Name           string    `json:"name" binding:"required,min=1,max=100"`
	AccessKey      string    `json:"access_key" binding:"required"`
	SecretKey      string    `json:"secret_key" binding:"required"`
	SellerID       string    `json:"seller_id" binding:"required"`
	AuthToken      string    `json:"auth_token" binding:"required"`
	DeveloperID    string    `json:"developer_id"`
	Region         string    `json:"region" binding:"required"`
	SalePrefix     string    `json:"sale_prefix" binding:"max=16"`
	WarehouseID    uuid.UUID `json:"warehouse_id" binding:"required"`
	FBAWarehouseID uuid.UUID `json:"fba_warehouse_id"`
	// Marketplaces lists country codes to bind; defaults to the region's own
	Marketplaces      []string         `json:"marketplaces"`
	MinMargin         *decimal.Decimal `json:"min_margin"`
	MaxMargin         *decimal.Decimal `json:"max_margin"`
	UnitsToChange     *decimal.Decimal `json:"units_to_change"`
	Repricing         bool             `json:"repricing"`
	StockSyncEnabled  bool             `json:"stock_sync_enabled"`
	SalesSyncDisabled bool             `json:"sales_sync_disabled"`
	SQSQueueURL       string           `json:"sqs_queue_url"`
}

// UpdateBackendRequest represents a partial backend update
type UpdateBackendRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=1,max=100"`
	AccessKey         *string          `json:"access_key"`
	SecretKey         *string          `json:"secret_key"`
	AuthToken         *string          `json:"auth_token"`
	DeveloperID       *string          `json:"developer_id"`
	SalePrefix        *string          `json:"sale_prefix" binding:"omitempty,max=16"`
	FBAWarehouseID    *uuid.UUID       `json:"fba_warehouse_id"`
	Marketplaces      []string         `json:"marketplaces"`
	MinMargin         *decimal.Decimal `json:"min_margin"`
	MaxMargin         *decimal.Decimal `json:"max_margin"`
	UnitsToChange     *decimal.Decimal `json:"units_to_change"`
	Repricing         *bool            `json:"repricing"`
	StockSyncEnabled  *bool            `json:"stock_sync_enabled"`
	SalesSyncDisabled *bool            `json:"sales_sync_disabled"`
	SQSQueueURL       *string          `json:"sqs_queue_url"`
}

// BackendResponse represents a backend in API responses. Credentials are
// never echoed back.
type BackendResponse struct {
	ID                uuid.UUID             `json:"id"`
	Name              string                `json:"name"`
	SellerID          string                `json:"seller_id"`
	Region            string                `json:"region"`
	SalePrefix        string                `json:"sale_prefix"`
	WarehouseID       uuid.UUID             `json:"warehouse_id"`
	FBAWarehouseID    uuid.UUID             `json:"fba_warehouse_id,omitempty"`
	Marketplaces      []MarketplaceResponse `json:"marketplaces"`
	MinMargin         decimal.Decimal       `json:"min_margin"`
	MaxMargin         decimal.Decimal       `json:"max_margin"`
	UnitsToChange     decimal.Decimal       `json:"units_to_change"`
	Repricing         bool                  `json:"repricing"`
	StockSyncEnabled  bool                  `json:"stock_sync_enabled"`
	SalesSyncDisabled bool                  `json:"sales_sync_disabled"`
	SQSQueueBound     bool                  `json:"sqs_queue_bound"`
	Active            bool                  `json:"active"`
	ImportSalesFrom   *time.Time            `json:"import_sales_from,omitempty"`
	ImportUpdatedFrom *time.Time            `json:"import_updated_sales_from,omitempty"`
	ExportPricesAt    *time.Time            `json:"export_prices_at,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// MarketplaceResponse represents a bound marketplace
type MarketplaceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	Currency    string `json:"currency"`
}

// CheckpointResponse represents a review record
type CheckpointResponse struct {
	ID        uuid.UUID `json:"id"`
	BackendID uuid.UUID `json:"backend_id"`
	Model     string    `json:"model"`
	RecordID  string    `json:"record_id"`
	Reason    string    `json:"reason"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"created_at"`
}

// ShippingTemplateResponse represents a discovered shipping template
type ShippingTemplateResponse struct {
	ID                    uuid.UUID `json:"id"`
	BackendID             uuid.UUID `json:"backend_id"`
	MarketplaceID         string    `json:"marketplace_id"`
	MerchantShippingGroup string    `json:"merchant_shipping_group"`
	CreatedAt             time.Time `json:"created_at"`
}

// =============================================================================
// Mappers
// =============================================================================

// ToBackendResponse converts a backend aggregate to its API representation
func ToBackendResponse(b *connector.Backend) BackendResponse {
	marketplaces := make([]MarketplaceResponse, 0, len(b.Marketplaces))
	for _, m := range b.Marketplaces {
		marketplaces = append(marketplaces, MarketplaceResponse{
			ID:          m.ID,
			Name:        m.Name,
			CountryCode: m.CountryCode,
			Currency:    m.Currency,
		})
	}

	resp := BackendResponse{
		ID:                b.ID,
		Name:              b.Name,
		SellerID:          b.SellerID,
		Region:            b.Region,
		SalePrefix:        b.SalePrefix,
		WarehouseID:       b.WarehouseID,
		FBAWarehouseID:    b.FBAWarehouseID,
		Marketplaces:      marketplaces,
		MinMargin:         b.MinMargin,
		MaxMargin:         b.MaxMargin,
		UnitsToChange:     b.UnitsToChange,
		Repricing:         b.Repricing,
		StockSyncEnabled:  b.StockSyncEnabled,
		SalesSyncDisabled: b.SalesSyncDisabled,
		SQSQueueBound:     b.HasQueue(),
		Active:            b.Active,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
	if !b.Checkpoints.ImportSalesFrom.IsZero() {
		t := b.Checkpoints.ImportSalesFrom
		resp.ImportSalesFrom = &t
	}
	if !b.Checkpoints.ImportUpdatedSalesFrom.IsZero() {
		t := b.Checkpoints.ImportUpdatedSalesFrom
		resp.ImportUpdatedFrom = &t
	}
	if !b.Checkpoints.ExportPricesAt.IsZero() {
		t := b.Checkpoints.ExportPricesAt
		resp.ExportPricesAt = &t
	}
	return resp
}

// ToBackendResponses converts a slice of backends
func ToBackendResponses(backends []*connector.Backend) []BackendResponse {
	responses := make([]BackendResponse, len(backends))
	for i, b := range backends {
		responses[i] = ToBackendResponse(b)
	}
	return responses
}

// ToCheckpointResponse converts a checkpoint
func ToCheckpointResponse(cp *connector.Checkpoint) CheckpointResponse {
	return CheckpointResponse{
		ID:        cp.ID,
		BackendID: cp.BackendID,
		Model:     cp.Model,
		RecordID:  cp.RecordID,
		Reason:    cp.Reason,
		Resolved:  cp.Resolved,
		CreatedAt: cp.CreatedAt,
	}
}

// ToShippingTemplateResponse converts a shipping template
func ToShippingTemplateResponse(tpl *connector.ShippingTemplate) ShippingTemplateResponse {
	return ShippingTemplateResponse{
		ID:                    tpl.ID,
		BackendID:             tpl.BackendID,
		MarketplaceID:         tpl.MarketplaceID,
		MerchantShippingGroup: tpl.MerchantShippingGroup,
		CreatedAt:             tpl.CreatedAt,
	}
}
