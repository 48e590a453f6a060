package sync

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/job"
)

// priceLookupChunk is the per-call SKU limit of the price lookup API.
const priceLookupChunk = 20

// fixData recovers initial prices and fee rates for product bindings that
// miss them, chunking price lookups to the API's SKU limit. Bindings whose
// price cannot be recovered become checkpoints.
func (s *Service) fixData(ctx context.Context, j *job.Job) error {
	backend, err := s.backendRepo.FindByID(ctx, j.BackendID)
	if err != nil {
		return err
	}

	bindings, err := s.productRepo.ListNeedingFixData(ctx, backend.ID, fixDataBatch)
	if err != nil {
		return err
	}
	if len(bindings) == 0 {
		return nil
	}

	marketplace, err := backend.DefaultMarketplace()
	if err != nil {
		return err
	}

	fixed := 0
	for start := 0; start < len(bindings); start += priceLookupChunk {
		end := start + priceLookupChunk
		if end > len(bindings) {
			end = len(bindings)
		}
		chunk := bindings[start:end]

		skus := make([]string, 0, len(chunk))
		for _, binding := range chunk {
			skus = append(skus, binding.SKU)
		}

		prices, err := s.gateway.GetMyPrice(ctx, backend, marketplace.ID, skus)
		if err != nil {
			return fmt.Errorf("get prices for fix data: %w", err)
		}
		priceBySKU := make(map[string]PriceSnapshot, len(prices))
		for _, snap := range prices {
			priceBySKU[snap.SKU] = snap
		}

		for _, binding := range chunk {
			snap, ok := priceBySKU[binding.SKU]
			if !ok || snap.Price.IsZero() {
				s.checkpoint(ctx, backend.ID, "listing.product", binding.SKU,
					"no listed price found during data recovery")
				continue
			}

			feeRate := decimal.Zero
			if binding.ASIN != "" && binding.FeeRate.IsZero() {
				fee, err := s.gateway.GetFeesEstimate(ctx, backend, marketplace.ID, binding.ASIN, snap.Price)
				if err != nil {
					s.logger.Warn("fees estimate failed",
						zap.String("sku", binding.SKU),
						zap.String("asin", binding.ASIN),
						zap.Error(err))
				} else if fee.IsPositive() {
					feeRate = fee.Div(snap.Price)
				}
			}

			binding.RecordFixData(snap.Price, feeRate)
			if err := s.productRepo.Update(ctx, binding); err != nil {
				return fmt.Errorf("persist recovered data for %s: %w", binding.SKU, err)
			}
			fixed++
		}
	}

	s.logger.Info("binding data recovered",
		zap.String("backend_id", backend.ID.String()),
		zap.Int("bindings", fixed))
	return nil
}
