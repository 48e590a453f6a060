package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/domain/job"
	"github.com/erp/amazon-connector/internal/domain/sales"
)

// importSales imports the created-orders and updated-orders windows of one
// backend, advances both watermarks and requests a flat-file orders report
// for later reconciliation.
func (s *Service) importSales(ctx context.Context, j *job.Job) error {
	backend, err := s.backendRepo.FindByID(ctx, j.BackendID)
	if err != nil {
		return err
	}
	if !backend.SalesSyncActive() {
		s.logger.Debug("sales sync paused, skipping import",
			zap.String("backend_id", backend.ID.String()))
		return nil
	}

	now := time.Now()

	from, to := backend.SalesImportWindow(now)
	if to.After(from) {
		snapshots, err := s.gateway.ListOrders(ctx, backend, from, to)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		imported, err := s.ingestOrders(ctx, backend, snapshots)
		if err != nil {
			return err
		}
		s.logger.Info("sale orders imported",
			zap.String("backend_id", backend.ID.String()),
			zap.Int("orders", imported),
			zap.Time("window_from", from),
			zap.Time("window_to", to))
	}
	backend.AdvanceSalesWatermark(to)

	updatedFrom, updatedTo := backend.UpdatedSalesImportWindow(now)
	if updatedTo.After(updatedFrom) {
		snapshots, err := s.gateway.ListUpdatedOrders(ctx, backend, updatedFrom, updatedTo)
		if err != nil {
			return fmt.Errorf("list updated orders: %w", err)
		}
		updated, err := s.ingestOrders(ctx, backend, snapshots)
		if err != nil {
			return err
		}
		s.logger.Info("updated sale orders applied",
			zap.String("backend_id", backend.ID.String()),
			zap.Int("orders", updated))
	}
	backend.AdvanceUpdatedSalesWatermark(updatedTo)

	if err := s.backendRepo.Update(ctx, backend); err != nil {
		return fmt.Errorf("advance sales watermarks: %w", err)
	}

	if !to.After(from) {
		return nil
	}

	// reconciliation report: anything the order API missed inside the window
	// surfaces in the flat file
	requestID, err := s.gateway.RequestReport(ctx, backend, ReportTypeSales, from, to)
	if err != nil {
		return fmt.Errorf("request sales report: %w", err)
	}
	payload := reportFetchPayload{RequestID: requestID, ReportType: ReportTypeSales}
	if err := s.queue.Enqueue(ctx, backend.ID, OpFetchSalesReport, payload,
		PrioritySalesReportFetch, now.Add(salesReportFetchDelay)); err != nil {
		return fmt.Errorf("enqueue sales report fetch: %w", err)
	}
	return nil
}

// ingestOrders binds snapshots to local orders: unknown platform order IDs
// are created, known ones get stale-guarded status updates. Snapshots that
// cannot be bound become checkpoints instead of failing the import.
func (s *Service) ingestOrders(ctx context.Context, backend *connector.Backend, snapshots []OrderSnapshot) (int, error) {
	count := 0
	for _, snap := range snapshots {
		status, err := sales.StatusFromAmazon(snap.Status)
		if err != nil {
			s.checkpoint(ctx, backend.ID, "sales.order", snap.PlatformOrderID,
				fmt.Sprintf("unknown order status %q", snap.Status))
			continue
		}

		existing, err := s.orderRepo.FindByPlatformID(ctx, backend.ID, snap.PlatformOrderID)
		switch {
		case err == nil:
			if existing.ApplyUpdate(status, snap.LastUpdate, snap.RawPayload) {
				if err := s.orderRepo.Update(ctx, existing); err != nil {
					return count, fmt.Errorf("update order %s: %w", snap.PlatformOrderID, err)
				}
				count++
			}
		case errors.Is(err, sales.ErrOrderNotFound):
			order, err := s.bindOrder(backend, snap, status)
			if err != nil {
				s.checkpoint(ctx, backend.ID, "sales.order", snap.PlatformOrderID, err.Error())
				continue
			}
			if err := s.orderRepo.Create(ctx, order); err != nil {
				if errors.Is(err, sales.ErrOrderDuplicate) {
					continue
				}
				return count, fmt.Errorf("create order %s: %w", snap.PlatformOrderID, err)
			}
			count++
		default:
			return count, err
		}
	}
	return count, nil
}

// bindOrder converts an API snapshot into a local order aggregate.
func (s *Service) bindOrder(backend *connector.Backend, snap OrderSnapshot, status sales.Status) (*sales.Order, error) {
	items := make([]sales.OrderItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, sales.OrderItem{
			OrderItemID:   it.OrderItemID,
			SKU:           it.SKU,
			ASIN:          it.ASIN,
			Title:         it.Title,
			Quantity:      it.Quantity,
			ItemPrice:     it.ItemPrice,
			ShippingPrice: it.ShippingPrice,
			Tax:           it.Tax,
		})
	}

	order, err := sales.NewOrder(backend.ID, snap.PlatformOrderID,
		backend.OrderName(snap.PlatformOrderID), status, items)
	if err != nil {
		return nil, err
	}
	order.MarketplaceID = snap.MarketplaceID
	order.Fulfillment = sales.FulfillmentChannel(snap.Fulfillment)
	order.Total = snap.Total
	order.Currency = snap.Currency
	order.BuyerEmail = snap.BuyerEmail
	order.PurchaseDate = snap.PurchaseDate
	order.LastUpdateDate = snap.LastUpdate
	order.RawPayload = snap.RawPayload
	return order, nil
}

// fetchSalesReport resolves a pending sales report request and reconciles
// it against locally imported orders. Order IDs present in the report but
// missing locally become checkpoints.
func (s *Service) fetchSalesReport(ctx context.Context, j *job.Job) error {
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
			s.checkpoint(ctx, backend.ID, "sales.report", p.RequestID,
				"sales report request cancelled by marketplace")
			return nil
		}
		// not-ready and transport errors ride the queue's retry backoff
		return err
	}
	if len(payload) == 0 {
		return nil
	}

	if key, err := s.archive.Store(ctx, backend.ID.String(), ReportTypeSales, payload); err != nil {
		s.logger.Warn("archive sales report failed", zap.Error(err))
	} else if key != "" {
		s.logger.Debug("sales report archived", zap.String("key", key))
	}

	orderIDs, err := SalesReportOrderIDs(payload)
	if err != nil {
		return fmt.Errorf("parse sales report: %w", err)
	}

	missing := 0
	for _, orderID := range orderIDs {
		_, err := s.orderRepo.FindByPlatformID(ctx, backend.ID, orderID)
		if errors.Is(err, sales.ErrOrderNotFound) {
			s.checkpoint(ctx, backend.ID, "sales.order", orderID,
				"order present in sales report but not imported")
			missing++
			continue
		}
		if err != nil {
			return err
		}
	}
	s.logger.Info("sales report reconciled",
		zap.String("backend_id", backend.ID.String()),
		zap.Int("orders", len(orderIDs)),
		zap.Int("missing", missing))
	return nil
}
