package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/infrastructure/persistence/models"
)

// GormShippingTemplateRepository implements connector.ShippingTemplateRepository
// using GORM
type GormShippingTemplateRepository struct {
	db *gorm.DB
}

var _ connector.ShippingTemplateRepository = (*GormShippingTemplateRepository)(nil)

// NewGormShippingTemplateRepository creates a new GormShippingTemplateRepository
func NewGormShippingTemplateRepository(db *gorm.DB) *GormShippingTemplateRepository {
	return &GormShippingTemplateRepository{db: db}
}

// Create persists a discovered template
func (r *GormShippingTemplateRepository) Create(ctx context.Context, tpl *connector.ShippingTemplate) error {
	model := &models.ShippingTemplateModel{}
	model.FromDomain(tpl)
	return r.db.WithContext(ctx).Create(model).Error
}

// ListByBackend returns all templates of a backend
func (r *GormShippingTemplateRepository) ListByBackend(ctx context.Context, backendID uuid.UUID) ([]*connector.ShippingTemplate, error) {
	var templateModels []models.ShippingTemplateModel
	if err := r.db.WithContext(ctx).
		Where("backend_id = ?", backendID).
		Order("marketplace_id ASC, merchant_shipping_group ASC").
		Find(&templateModels).Error; err != nil {
		return nil, err
	}
	templates := make([]*connector.ShippingTemplate, len(templateModels))
	for i := range templateModels {
		templates[i] = templateModels[i].ToDomain()
	}
	return templates, nil
}

// discoverMissingSQL finds distinct (marketplace, merchant shipping group)
// pairs present in listing details of a backend's bindings that have no
// shipping template record yet.
const discoverMissingSQL = `
SELECT DISTINCT ld.marketplace_id, ld.merchant_shipping_group
FROM listing_details ld
JOIN product_bindings pb ON pb.id = ld.binding_id
WHERE pb.backend_id = ?
  AND ld.merchant_shipping_group <> ''
  AND NOT EXISTS (
    SELECT 1 FROM shipping_templates st
    WHERE st.backend_id = pb.backend_id
      AND st.marketplace_id = ld.marketplace_id
      AND st.merchant_shipping_group = ld.merchant_shipping_group
  )
ORDER BY ld.marketplace_id, ld.merchant_shipping_group`

// DiscoverMissing returns template candidates not yet recorded. The caller
// decides whether to persist them.
func (r *GormShippingTemplateRepository) DiscoverMissing(ctx context.Context, backendID uuid.UUID) ([]*connector.ShippingTemplate, error) {
	rows, err := r.db.WithContext(ctx).Raw(discoverMissingSQL, backendID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*connector.ShippingTemplate
	for rows.Next() {
		var marketplaceID, group string
		if err := rows.Scan(&marketplaceID, &group); err != nil {
			return nil, err
		}
		templates = append(templates, &connector.ShippingTemplate{
			ID:                    uuid.New(),
			BackendID:             backendID,
			MarketplaceID:         marketplaceID,
			MerchantShippingGroup: group,
			CreatedAt:             time.Now(),
		})
	}
	return templates, rows.Err()
}
