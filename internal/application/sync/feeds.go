package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/job"
	"github.com/erp/amazon-connector/internal/domain/listing"
)

// listingPageSize bounds how many bindings one stock/price pass loads per
// repository call.
const listingPageSize = 200

// exportProducts appends every export-enabled binding of the backend to the
// open listing feed. The feed is flushed by the submit-feeds operation.
func (s *Service) exportProducts(ctx context.Context, j *job.Job) error {
	backend, err := s.backendRepo.FindByID(ctx, j.BackendID)
	if err != nil {
		return err
	}

	bindings, err := s.productRepo.ListExportEnabled(ctx, backend.ID)
	if err != nil {
		return err
	}
	if len(bindings) == 0 {
		return nil
	}

	feed, err := s.openFeed(ctx, backend.ID, listing.FeedTypeListing)
	if err != nil {
		return err
	}
	queued := feedSKUs(feed)

	appended := 0
	for _, binding := range bindings {
		if _, ok := queued[binding.SKU]; ok {
			continue
		}
		fragment := listing.ListingFragment(binding.SKU, binding.ASIN, binding.Title)
		if err := feed.Append(binding.SKU, fragment); err != nil {
			return err
		}
		queued[binding.SKU] = struct{}{}
		appended++
	}
	if appended == 0 {
		return nil
	}
	if err := s.feedRepo.Update(ctx, feed); err != nil {
		return fmt.Errorf("persist listing feed: %w", err)
	}
	s.logger.Info("products queued for export",
		zap.String("backend_id", backend.ID.String()),
		zap.Int("products", appended))
	return nil
}

// updateStockPrices walks every product binding of the backend and queues
// stock and price updates on the open feeds.
func (s *Service) updateStockPrices(ctx context.Context, j *job.Job) error {
	backend, err := s.backendRepo.FindByID(ctx, j.BackendID)
	if err != nil {
		return err
	}
	if !backend.StockSyncEnabled {
		s.logger.Debug("stock sync disabled, skipping",
			zap.String("backend_id", backend.ID.String()))
		return nil
	}

	marketplace, err := backend.DefaultMarketplace()
	if err != nil {
		return err
	}

	stockFeed, err := s.openFeed(ctx, backend.ID, listing.FeedTypeStock)
	if err != nil {
		return err
	}
	priceFeed, err := s.openFeed(ctx, backend.ID, listing.FeedTypePrice)
	if err != nil {
		return err
	}
	stockQueued := feedSKUs(stockFeed)
	priceQueued := feedSKUs(priceFeed)

	stock, prices := 0, 0
	for offset := 0; ; offset += listingPageSize {
		bindings, _, err := s.productRepo.ListByBackend(ctx, backend.ID, offset, listingPageSize)
		if err != nil {
			return err
		}
		if len(bindings) == 0 {
			break
		}
		for _, binding := range bindings {
			if _, ok := stockQueued[binding.SKU]; !ok {
				if err := stockFeed.Append(binding.SKU, listing.StockFragment(binding.SKU, binding.StockQty)); err != nil {
					return err
				}
				stockQueued[binding.SKU] = struct{}{}
				stock++
			}

			detail, ok := binding.Detail(marketplace.ID)
			if !ok || detail.Price.IsZero() {
				continue
			}
			if _, ok := priceQueued[binding.SKU]; ok {
				continue
			}
			currency := detail.Currency
			if currency == "" {
				currency = marketplace.Currency
			}
			if err := priceFeed.Append(binding.SKU, listing.PriceFragment(binding.SKU, currency, detail.Price)); err != nil {
				return err
			}
			priceQueued[binding.SKU] = struct{}{}
			prices++
		}
		if len(bindings) < listingPageSize {
			break
		}
	}

	if stock > 0 {
		if err := s.feedRepo.Update(ctx, stockFeed); err != nil {
			return fmt.Errorf("persist stock feed: %w", err)
		}
	}
	if prices > 0 {
		if err := s.feedRepo.Update(ctx, priceFeed); err != nil {
			return fmt.Errorf("persist price feed: %w", err)
		}
	}
	s.logger.Info("stock and prices queued",
		zap.String("backend_id", backend.ID.String()),
		zap.Int("stock_items", stock),
		zap.Int("price_items", prices))
	return nil
}

// submitFeeds flushes every pending feed of the backend to the marketplace.
// Already-submitted feeds are untouched, so a retried job picks up where the
// failed run stopped.
func (s *Service) submitFeeds(ctx context.Context, j *job.Job) error {
	backend, err := s.backendRepo.FindByID(ctx, j.BackendID)
	if err != nil {
		return err
	}

	feeds, err := s.feedRepo.ListPending(ctx, backend.ID)
	if err != nil {
		return err
	}

	pricesSubmitted := false
	for _, feed := range feeds {
		if len(feed.Items) == 0 {
			continue
		}

		fragments := make([]string, 0, len(feed.Items))
		for _, item := range feed.Items {
			fragments = append(fragments, item.Payload)
		}
		envelope, err := listing.BuildEnvelope(backend.SellerID, feed.Type, fragments)
		if err != nil {
			if markErr := feed.MarkFailed(err.Error()); markErr != nil {
				return markErr
			}
			if updateErr := s.feedRepo.Update(ctx, feed); updateErr != nil {
				return updateErr
			}
			s.checkpoint(ctx, backend.ID, "listing.feed", feed.ID.String(), err.Error())
			continue
		}

		submissionID, err := s.gateway.SubmitFeed(ctx, backend, feed.Type.MWSFeedType(), envelope)
		if err != nil {
			return fmt.Errorf("submit %s feed: %w", feed.Type, err)
		}
		if err := feed.MarkSubmitted(submissionID); err != nil {
			return err
		}
		if err := s.feedRepo.Update(ctx, feed); err != nil {
			return fmt.Errorf("persist submitted feed: %w", err)
		}
		if feed.Type == listing.FeedTypePrice {
			pricesSubmitted = true
		}
		s.logger.Info("feed submitted",
			zap.String("backend_id", backend.ID.String()),
			zap.String("feed_type", string(feed.Type)),
			zap.String("submission_id", submissionID),
			zap.Int("items", len(feed.Items)))
	}

	if pricesSubmitted {
		backend.MarkPricesExported(time.Now())
		if err := s.backendRepo.Update(ctx, backend); err != nil {
			return fmt.Errorf("mark prices exported: %w", err)
		}
	}
	return nil
}

// openFeed returns the backend's pending feed of a type, opening a new one
// when none exists.
func (s *Service) openFeed(ctx context.Context, backendID uuid.UUID, feedType listing.FeedType) (*listing.Feed, error) {
	feed, err := s.feedRepo.FindOpen(ctx, backendID, feedType)
	if err == nil {
		return feed, nil
	}
	if !errors.Is(err, listing.ErrFeedNotFound) {
		return nil, err
	}
	feed, err = listing.NewFeed(backendID, feedType)
	if err != nil {
		return nil, err
	}
	if err := s.feedRepo.Create(ctx, feed); err != nil {
		return nil, fmt.Errorf("open %s feed: %w", feedType, err)
	}
	return feed, nil
}

// feedSKUs indexes the SKUs already queued on a feed.
func feedSKUs(feed *listing.Feed) map[string]struct{} {
	skus := make(map[string]struct{}, len(feed.Items))
	for _, item := range feed.Items {
		skus[item.SKU] = struct{}{}
	}
	return skus
}
