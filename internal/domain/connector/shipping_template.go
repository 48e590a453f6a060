package connector

import (
	"time"

	"github.com/google/uuid"
)

// ShippingTemplate is a (marketplace, merchant shipping group) pair derived
// from listing details. Templates are discovered, never entered by hand:
// the discovery pass creates one record per distinct pair that has no
// template yet.
type ShippingTemplate struct {
	ID        uuid.UUID
	BackendID uuid.UUID
	// MarketplaceID is the MWS marketplace the group was observed on
	MarketplaceID string
	// MerchantShippingGroup is Amazon's name for the seller shipping setting
	MerchantShippingGroup string
	CreatedAt             time.Time
}

// NewShippingTemplate records a newly discovered pair.
func NewShippingTemplate(backendID uuid.UUID, marketplaceID, group string) *ShippingTemplate {
	return &ShippingTemplate{
		ID:                    uuid.New(),
		BackendID:             backendID,
		MarketplaceID:         marketplaceID,
		MerchantShippingGroup: group,
		CreatedAt:             time.Now(),
	}
}
