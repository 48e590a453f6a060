package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/domain/job"
	"github.com/erp/amazon-connector/internal/domain/listing"
)

// importProducts submits an inventory report request for the backend and
// schedules the delayed fetch job that ingests it.
func (s *Service) importProducts(ctx context.Context, j *job.Job) error {
	backend, err := s.backendRepo.FindByID(ctx, j.BackendID)
	if err != nil {
		return err
	}

	requestID, err := s.gateway.RequestReport(ctx, backend, ReportTypeInventory, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("request inventory report: %w", err)
	}

	payload := reportFetchPayload{RequestID: requestID, ReportType: ReportTypeInventory}
	if err := s.queue.Enqueue(ctx, backend.ID, OpFetchInventoryReport, payload,
		PriorityInventoryReportFetch, time.Now().Add(inventoryReportFetchDelay)); err != nil {
		return fmt.Errorf("enqueue inventory report fetch: %w", err)
	}
	s.logger.Info("inventory report requested",
		zap.String("backend_id", backend.ID.String()),
		zap.String("request_id", requestID))
	return nil
}

// fetchInventoryReport resolves a pending inventory report and ingests its
// rows: unknown SKUs become product bindings, known ones refresh their
// per-marketplace listing details.
func (s *Service) fetchInventoryReport(ctx context.Context, j *job.Job) error {
	var p reportFetchPayload
	if err := j.DecodePayload(&p); err != nil {
		return err
	}
	if p.RequestID == "" {
		return ErrPayloadMissing
	}

	backend, err := s.backendRepo.FindByID(ctx, j.BackendID)
	if err != nil {
		return err
	}

	payload, err := s.gateway.FetchReport(ctx, backend, p.RequestID)
	if err != nil {
		if errors.Is(err, ErrReportCancelled) {
			s.checkpoint(ctx, backend.ID, "listing.report", p.RequestID,
				"inventory report request cancelled by marketplace")
			return nil
		}
		return err
	}
	if len(payload) == 0 {
		return nil
	}

	if key, err := s.archive.Store(ctx, backend.ID.String(), ReportTypeInventory, payload); err != nil {
		s.logger.Warn("archive inventory report failed", zap.Error(err))
	} else if key != "" {
		s.logger.Debug("inventory report archived", zap.String("key", key))
	}

	rows, err := ParseInventoryReport(payload)
	if err != nil {
		return fmt.Errorf("parse inventory report: %w", err)
	}

	created, updated := 0, 0
	for _, row := range rows {
		wasNew, err := s.ingestInventoryRow(ctx, backend, row)
		if err != nil {
			return err
		}
		if wasNew {
			created++
		} else {
			updated++
		}
	}
	s.logger.Info("inventory report ingested",
		zap.String("backend_id", backend.ID.String()),
		zap.Int("created", created),
		zap.Int("updated", updated))
	return nil
}

// ingestInventoryRow upserts one report row into a product binding and its
// listing detail. Returns whether the binding was newly created.
func (s *Service) ingestInventoryRow(ctx context.Context, backend *connector.Backend, row InventoryReportRow) (bool, error) {
	binding, err := s.productRepo.FindBySKU(ctx, backend.ID, row.SKU)
	wasNew := false
	switch {
	case errors.Is(err, listing.ErrProductNotFound):
		binding, err = listing.NewProductBinding(backend.ID, row.SKU, row.ASIN, row.Title)
		if err != nil {
			s.checkpoint(ctx, backend.ID, "listing.product", row.SKU, err.Error())
			return false, nil
		}
		binding.StockQty = row.Quantity
		if err := s.productRepo.Create(ctx, binding); err != nil {
			if errors.Is(err, listing.ErrProductDuplicateSKU) {
				return false, nil
			}
			return false, fmt.Errorf("create product binding %s: %w", row.SKU, err)
		}
		wasNew = true
	case err != nil:
		return false, err
	default:
		changed := false
		if binding.ASIN == "" && row.ASIN != "" {
			binding.ASIN = row.ASIN
			changed = true
		}
		if binding.Title == "" && row.Title != "" {
			binding.Title = row.Title
			changed = true
		}
		if binding.StockQty != row.Quantity {
			binding.UpdateStock(row.Quantity)
			changed = true
		}
		if changed {
			if err := s.productRepo.Update(ctx, binding); err != nil {
				return false, fmt.Errorf("update product binding %s: %w", row.SKU, err)
			}
		}
	}

	marketplaceID := row.MarketplaceID
	if marketplaceID == "" {
		m, err := backend.DefaultMarketplace()
		if err != nil {
			return wasNew, err
		}
		marketplaceID = m.ID
	}

	detail := listing.ListingDetail{
		BindingID:             binding.ID,
		MarketplaceID:         marketplaceID,
		Price:                 row.Price,
		MerchantShippingGroup: row.MerchantShippingGroup,
		Active:                true,
	}
	if existing, ok := binding.Detail(marketplaceID); ok {
		detail.ID = existing.ID
		detail.Currency = existing.Currency
		detail.MinMargin = existing.MinMargin
		detail.MaxMargin = existing.MaxMargin
		if row.Price.IsZero() {
			detail.Price = existing.Price
		}
	}
	if detail.Currency == "" {
		if m, ok := connector.MarketplaceByID(marketplaceID); ok {
			detail.Currency = m.Currency
		}
	}
	if err := s.productRepo.UpsertDetail(ctx, &detail); err != nil {
		return wasNew, fmt.Errorf("upsert listing detail %s/%s: %w", row.SKU, marketplaceID, err)
	}
	return wasNew, nil
}
