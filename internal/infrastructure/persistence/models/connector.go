package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/amazon-connector/internal/domain/connector"
)

// BackendModel is the persistence model for the Backend aggregate.
type BackendModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	Name              string          `gorm:"type:varchar(255);not null"`
	AccessKey         string          `gorm:"type:varchar(255);not null"`
	SecretKey         string          `gorm:"type:varchar(255);not null"`
	SellerID          string          `gorm:"type:varchar(100);not null"`
	AuthToken         string          `gorm:"type:varchar(255);not null"`
	DeveloperID       string          `gorm:"type:varchar(100)"`
	Region            string          `gorm:"type:varchar(8);not null"`
	WarehouseID       uuid.UUID       `gorm:"type:uuid;not null"`
	FBAWarehouseID    uuid.UUID       `gorm:"type:uuid"`
	SalePrefix        string          `gorm:"type:varchar(32);uniqueIndex:uq_backend_sale_prefix"`
	MinMargin         decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`
	MaxMargin         decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`
	UnitsToChange     decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`
	Repricing         bool            `gorm:"not null;default:false"`
	StockSyncEnabled  bool            `gorm:"not null;default:true"`
	SalesSyncDisabled bool            `gorm:"not null;default:false"`
	SQSQueueURL       string          `gorm:"type:varchar(512);column:sqs_queue_url"`
	MarketplacesJSON  string          `gorm:"type:jsonb;column:marketplaces"`
	Active            bool            `gorm:"not null;default:true;index"`

	ImportSalesFrom        *time.Time
	ImportUpdatedSalesFrom *time.Time
	ExportPricesAt         *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BackendModel) TableName() string {
	return "amazon_backends"
}

// ToDomain converts the persistence model to a domain Backend aggregate.
func (m *BackendModel) ToDomain() *connector.Backend {
	b := &connector.Backend{
		ID:                m.ID,
		Name:              m.Name,
		AccessKey:         m.AccessKey,
		SecretKey:         m.SecretKey,
		SellerID:          m.SellerID,
		AuthToken:         m.AuthToken,
		DeveloperID:       m.DeveloperID,
		Region:            m.Region,
		WarehouseID:       m.WarehouseID,
		FBAWarehouseID:    m.FBAWarehouseID,
		SalePrefix:        m.SalePrefix,
		MinMargin:         m.MinMargin,
		MaxMargin:         m.MaxMargin,
		UnitsToChange:     m.UnitsToChange,
		Repricing:         m.Repricing,
		StockSyncEnabled:  m.StockSyncEnabled,
		SalesSyncDisabled: m.SalesSyncDisabled,
		SQSQueueURL:       m.SQSQueueURL,
		Active:            m.Active,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.ImportSalesFrom != nil {
		b.Checkpoints.ImportSalesFrom = *m.ImportSalesFrom
	}
	if m.ImportUpdatedSalesFrom != nil {
		b.Checkpoints.ImportUpdatedSalesFrom = *m.ImportUpdatedSalesFrom
	}
	if m.ExportPricesAt != nil {
		b.Checkpoints.ExportPricesAt = *m.ExportPricesAt
	}
	if m.MarketplacesJSON != "" {
		var ids []string
		if err := json.Unmarshal([]byte(m.MarketplacesJSON), &ids); err == nil {
			for _, id := range ids {
				if mp, ok := connector.MarketplaceByID(id); ok {
					b.Marketplaces = append(b.Marketplaces, mp)
				}
			}
		}
	}
	return b
}

// FromDomain populates the persistence model from a domain Backend aggregate.
func (m *BackendModel) FromDomain(b *connector.Backend) {
	m.ID = b.ID
	m.Name = b.Name
	m.AccessKey = b.AccessKey
	m.SecretKey = b.SecretKey
	m.SellerID = b.SellerID
	m.AuthToken = b.AuthToken
	m.DeveloperID = b.DeveloperID
	m.Region = b.Region
	m.WarehouseID = b.WarehouseID
	m.FBAWarehouseID = b.FBAWarehouseID
	m.SalePrefix = b.SalePrefix
	m.MinMargin = b.MinMargin
	m.MaxMargin = b.MaxMargin
	m.UnitsToChange = b.UnitsToChange
	m.Repricing = b.Repricing
	m.StockSyncEnabled = b.StockSyncEnabled
	m.SalesSyncDisabled = b.SalesSyncDisabled
	m.SQSQueueURL = b.SQSQueueURL
	m.Active = b.Active
	m.CreatedAt = b.CreatedAt
	m.UpdatedAt = b.UpdatedAt

	m.ImportSalesFrom = timePtr(b.Checkpoints.ImportSalesFrom)
	m.ImportUpdatedSalesFrom = timePtr(b.Checkpoints.ImportUpdatedSalesFrom)
	m.ExportPricesAt = timePtr(b.Checkpoints.ExportPricesAt)

	ids := b.MarketplaceIDs()
	if jsonBytes, err := json.Marshal(ids); err == nil {
		m.MarketplacesJSON = string(jsonBytes)
	}
}

// BackendModelFromDomain creates a new persistence model from a domain Backend.
func BackendModelFromDomain(b *connector.Backend) *BackendModel {
	m := &BackendModel{}
	m.FromDomain(b)
	return m
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// CheckpointModel is the persistence model for review checkpoints.
type CheckpointModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	BackendID uuid.UUID `gorm:"type:uuid;not null;index:idx_checkpoint_backend"`
	Model     string    `gorm:"type:varchar(100);not null"`
	RecordID  string    `gorm:"type:varchar(255);not null"`
	Reason    string    `gorm:"type:text"`
	Resolved  bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CheckpointModel) TableName() string {
	return "checkpoints"
}

// ToDomain converts the persistence model to a domain Checkpoint.
func (m *CheckpointModel) ToDomain() *connector.Checkpoint {
	return &connector.Checkpoint{
		ID:        m.ID,
		BackendID: m.BackendID,
		Model:     m.Model,
		RecordID:  m.RecordID,
		Reason:    m.Reason,
		Resolved:  m.Resolved,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Checkpoint.
func (m *CheckpointModel) FromDomain(cp *connector.Checkpoint) {
	m.ID = cp.ID
	m.BackendID = cp.BackendID
	m.Model = cp.Model
	m.RecordID = cp.RecordID
	m.Reason = cp.Reason
	m.Resolved = cp.Resolved
	m.CreatedAt = cp.CreatedAt
	m.UpdatedAt = cp.UpdatedAt
}

// ShippingTemplateModel is the persistence model for derived shipping templates.
type ShippingTemplateModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primary_key"`
	BackendID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_shipping_template,priority:1"`
	MarketplaceID         string    `gorm:"type:varchar(32);not null;uniqueIndex:uq_shipping_template,priority:2"`
	MerchantShippingGroup string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_shipping_template,priority:3"`
	CreatedAt             time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShippingTemplateModel) TableName() string {
	return "shipping_templates"
}

// ToDomain converts the persistence model to a domain ShippingTemplate.
func (m *ShippingTemplateModel) ToDomain() *connector.ShippingTemplate {
	return &connector.ShippingTemplate{
		ID:                    m.ID,
		BackendID:             m.BackendID,
		MarketplaceID:         m.MarketplaceID,
		MerchantShippingGroup: m.MerchantShippingGroup,
		CreatedAt:             m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain ShippingTemplate.
func (m *ShippingTemplateModel) FromDomain(tpl *connector.ShippingTemplate) {
	m.ID = tpl.ID
	m.BackendID = tpl.BackendID
	m.MarketplaceID = tpl.MarketplaceID
	m.MerchantShippingGroup = tpl.MerchantShippingGroup
	m.CreatedAt = tpl.CreatedAt
}
