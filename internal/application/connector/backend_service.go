// Package connector exposes backend configuration operations: registering
// seller accounts, binding marketplaces, reviewing checkpoints and
// discovering shipping templates.
package connector

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/erp/amazon-connector/internal/domain/connector"
)

// BackendService handles seller account configuration
type BackendService struct {
	backendRepo  connector.BackendRepository
	checkpoints  connector.CheckpointRepository
	shippingRepo connector.ShippingTemplateRepository
}

// NewBackendService creates a new BackendService
func NewBackendService(
	backendRepo connector.BackendRepository,
	checkpoints connector.CheckpointRepository,
	shippingRepo connector.ShippingTemplateRepository,
) *BackendService {
	return &BackendService{
		backendRepo:  backendRepo,
		checkpoints:  checkpoints,
		shippingRepo: shippingRepo,
	}
}

// Create registers a new seller account
func (s *BackendService) Create(ctx context.Context, req CreateBackendRequest) (*BackendResponse, error) {
	backend, err := connector.NewBackend(
		req.Name, req.AccessKey, req.SecretKey, req.SellerID, req.AuthToken,
		req.Region, req.SalePrefix, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	backend.DeveloperID = req.DeveloperID
	backend.FBAWarehouseID = req.FBAWarehouseID
	backend.Repricing = req.Repricing
	backend.StockSyncEnabled = req.StockSyncEnabled
	backend.SalesSyncDisabled = req.SalesSyncDisabled
	backend.SQSQueueURL = req.SQSQueueURL
	if req.MinMargin != nil {
		backend.MinMargin = *req.MinMargin
	}
	if req.MaxMargin != nil {
		backend.MaxMargin = *req.MaxMargin
	}
	if req.UnitsToChange != nil {
		backend.UnitsToChange = *req.UnitsToChange
	}

	marketplaces, err := resolveMarketplaces(req.Marketplaces, backend.Region)
	if err != nil {
		return nil, err
	}
	backend.Marketplaces = marketplaces

	// revalidate: margins and flags were set after construction
	if err := backend.Validate(); err != nil {
		return nil, err
	}

	if backend.SalePrefix != "" {
		taken, err := s.backendRepo.SalePrefixTaken(ctx, backend.SalePrefix, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, connector.ErrBackendPrefixTaken
		}
	}

	if err := s.backendRepo.Create(ctx, backend); err != nil {
		return nil, err
	}

	response := ToBackendResponse(backend)
	return &response, nil
}

// GetByID retrieves a backend
func (s *BackendService) GetByID(ctx context.Context, id uuid.UUID) (*BackendResponse, error) {
	backend, err := s.backendRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToBackendResponse(backend)
	return &response, nil
}

// List retrieves backends with pagination
func (s *BackendService) List(ctx context.Context, page, pageSize int) ([]BackendResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	backends, total, err := s.backendRepo.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return ToBackendResponses(backends), total, nil
}

// Update applies a partial update to a backend
func (s *BackendService) Update(ctx context.Context, id uuid.UUID, req UpdateBackendRequest) (*BackendResponse, error) {
	backend, err := s.backendRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		backend.Name = *req.Name
	}
	if req.AccessKey != nil {
		backend.AccessKey = *req.AccessKey
	}
	if req.SecretKey != nil {
		backend.SecretKey = *req.SecretKey
	}
	if req.AuthToken != nil {
		backend.AuthToken = *req.AuthToken
	}
	if req.DeveloperID != nil {
		backend.DeveloperID = *req.DeveloperID
	}
	if req.SalePrefix != nil && *req.SalePrefix != backend.SalePrefix {
		if *req.SalePrefix != "" {
			taken, err := s.backendRepo.SalePrefixTaken(ctx, *req.SalePrefix, backend.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, connector.ErrBackendPrefixTaken
			}
		}
		backend.SalePrefix = *req.SalePrefix
	}
	if req.FBAWarehouseID != nil {
		backend.FBAWarehouseID = *req.FBAWarehouseID
	}
	if req.Marketplaces != nil {
		marketplaces, err := resolveMarketplaces(req.Marketplaces, backend.Region)
		if err != nil {
			return nil, err
		}
		backend.Marketplaces = marketplaces
	}
	if req.MinMargin != nil {
		backend.MinMargin = *req.MinMargin
	}
	if req.MaxMargin != nil {
		backend.MaxMargin = *req.MaxMargin
	}
	if req.UnitsToChange != nil {
		backend.UnitsToChange = *req.UnitsToChange
	}
	if req.Repricing != nil {
		backend.Repricing = *req.Repricing
	}
	if req.StockSyncEnabled != nil {
		backend.StockSyncEnabled = *req.StockSyncEnabled
	}
	if req.SalesSyncDisabled != nil {
		backend.SalesSyncDisabled = *req.SalesSyncDisabled
	}
	if req.SQSQueueURL != nil {
		backend.SQSQueueURL = *req.SQSQueueURL
	}

	if err := backend.Validate(); err != nil {
		return nil, err
	}
	if err := s.backendRepo.Update(ctx, backend); err != nil {
		return nil, err
	}

	response := ToBackendResponse(backend)
	return &response, nil
}

// Delete removes a backend and its configuration
func (s *BackendService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.backendRepo.Delete(ctx, id)
}

// Activate puts a backend back into scheduler fan-out
func (s *BackendService) Activate(ctx context.Context, id uuid.UUID) error {
	backend, err := s.backendRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	backend.Activate()
	return s.backendRepo.Update(ctx, backend)
}

// Deactivate removes a backend from scheduler fan-out
func (s *BackendService) Deactivate(ctx context.Context, id uuid.UUID) error {
	backend, err := s.backendRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	backend.Deactivate()
	return s.backendRepo.Update(ctx, backend)
}

// ListCheckpoints returns unresolved review records for a backend
func (s *BackendService) ListCheckpoints(ctx context.Context, backendID uuid.UUID, page, pageSize int) ([]CheckpointResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	checkpoints, total, err := s.checkpoints.ListUnresolved(ctx, backendID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CheckpointResponse, len(checkpoints))
	for i, cp := range checkpoints {
		responses[i] = ToCheckpointResponse(cp)
	}
	return responses, total, nil
}

// ResolveCheckpoint marks a review record as handled
func (s *BackendService) ResolveCheckpoint(ctx context.Context, id uuid.UUID) error {
	cp, err := s.checkpoints.FindByID(ctx, id)
	if err != nil {
		return err
	}
	cp.Resolve()
	return s.checkpoints.Update(ctx, cp)
}

// DiscoverShippingTemplates records every (marketplace, shipping group)
// pair present in listing details but not yet known, then returns the full
// template list.
func (s *BackendService) DiscoverShippingTemplates(ctx context.Context, backendID uuid.UUID) ([]ShippingTemplateResponse, error) {
	if _, err := s.backendRepo.FindByID(ctx, backendID); err != nil {
		return nil, err
	}

	missing, err := s.shippingRepo.DiscoverMissing(ctx, backendID)
	if err != nil {
		return nil, err
	}
	for _, tpl := range missing {
		if err := s.shippingRepo.Create(ctx, tpl); err != nil {
			return nil, fmt.Errorf("record shipping template %s/%s: %w",
				tpl.MarketplaceID, tpl.MerchantShippingGroup, err)
		}
	}

	templates, err := s.shippingRepo.ListByBackend(ctx, backendID)
	if err != nil {
		return nil, err
	}
	responses := make([]ShippingTemplateResponse, len(templates))
	for i, tpl := range templates {
		responses[i] = ToShippingTemplateResponse(tpl)
	}
	return responses, nil
}

// Marketplaces returns the catalogue of supported marketplaces
func (s *BackendService) Marketplaces() []MarketplaceResponse {
	responses := make([]MarketplaceResponse, 0, len(connector.Catalogue))
	for _, m := range connector.Catalogue {
		responses = append(responses, MarketplaceResponse{
			ID:          m.ID,
			Name:        m.Name,
			CountryCode: m.CountryCode,
			Currency:    m.Currency,
		})
	}
	return responses
}

// resolveMarketplaces maps country codes to catalogue entries; an empty list
// binds the region's own marketplace.
func resolveMarketplaces(codes []string, region string) ([]connector.Marketplace, error) {
	if len(codes) == 0 {
		m, ok := connector.MarketplaceByCountry(region)
		if !ok {
			return nil, connector.ErrNoMarketplaceBound
		}
		return []connector.Marketplace{m}, nil
	}

	marketplaces := make([]connector.Marketplace, 0, len(codes))
	for _, code := range codes {
		m, ok := connector.MarketplaceByCountry(code)
		if !ok {
			return nil, fmt.Errorf("%w: unknown marketplace %q", connector.ErrNoMarketplaceBound, code)
		}
		marketplaces = append(marketplaces, m)
	}
	return marketplaces, nil
}
