package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/domain/job"
	"github.com/erp/amazon-connector/internal/domain/listing"
	"github.com/erp/amazon-connector/internal/domain/pricewatch"
)

// pollMessages long-polls the backend's SQS queue for price-change
// notifications and persists the raw messages. Messages are deleted from
// the queue only after the local row is committed.
func (s *Service) pollMessages(ctx context.Context, j *job.Job) error {
	backend, err := s.backendRepo.FindByID(ctx, j.BackendID)
	if err != nil {
		return err
	}
	if !backend.HasQueue() {
		s.logger.Debug("no SQS queue bound, skipping poll",
			zap.String("backend_id", backend.ID.String()))
		return nil
	}

	received, err := s.source.Poll(ctx, backend.SQSQueueURL, s.pollWindow,
		func(messageID, body string) error {
			msg, err := pricewatch.NewMessage(backend.ID, messageID, body)
			if err != nil {
				// junk message; delete it from the queue, leave a trace
				s.checkpoint(ctx, backend.ID, "pricewatch.message", messageID, err.Error())
				return nil
			}
			return s.messageRepo.Create(ctx, msg)
		})
	if err != nil {
		return fmt.Errorf("poll price messages: %w", err)
	}
	if received > 0 {
		s.logger.Info("price messages received",
			zap.String("backend_id", backend.ID.String()),
			zap.Int("messages", received))
	}
	return nil
}

// dispatchMessages turns stored, unprocessed price messages into individual
// dispatch jobs, oldest first. The batch is bounded by MaxDispatchBatch and
// by the backend's listing-detail count.
func (s *Service) dispatchMessages(ctx context.Context, j *job.Job) error {
	backend, err := s.backendRepo.FindByID(ctx, j.BackendID)
	if err != nil {
		return err
	}

	limit := pricewatch.MaxDispatchBatch
	detailCount, err := s.productRepo.CountListingDetails(ctx, backend.ID)
	if err != nil {
		return err
	}
	if detailCount < int64(limit) {
		limit = int(detailCount)
	}
	if limit == 0 {
		return nil
	}

	messages, err := s.messageRepo.ListUnprocessed(ctx, backend.ID, limit)
	if err != nil {
		return err
	}

	dispatched := 0
	for _, msg := range messages {
		payload := messageJobPayload{MessageID: msg.ID}
		if err := s.queue.Enqueue(ctx, backend.ID, OpDispatchMessage, payload,
			PriorityDispatchMessage, time.Time{}); err != nil {
			return fmt.Errorf("enqueue message dispatch: %w", err)
		}
		if err := msg.MarkProcessed(); err != nil {
			return err
		}
		if err := s.messageRepo.Update(ctx, msg); err != nil {
			return fmt.Errorf("mark message processed: %w", err)
		}
		dispatched++
	}
	if dispatched > 0 {
		s.logger.Info("price messages dispatched",
			zap.String("backend_id", backend.ID.String()),
			zap.Int("messages", dispatched))
	}
	return nil
}

// dispatchMessage reprices the bindings matching one stored price message.
// Unparseable messages become checkpoints, never retries.
func (s *Service) dispatchMessage(ctx context.Context, j *job.Job) error {
	var p messageJobPayload
	if err := j.DecodePayload(&p); err != nil {
		return err
	}

	msg, err := s.messageRepo.FindByID(ctx, p.MessageID)
	if err != nil {
		return err
	}
	backend, err := s.backendRepo.FindByID(ctx, j.BackendID)
	if err != nil {
		return err
	}

	notification, err := msg.Parse()
	if err != nil {
		s.checkpoint(ctx, backend.ID, "pricewatch.message", msg.ID.String(), err.Error())
		return nil
	}
	if !backend.Repricing || notification.NewPrice.IsZero() {
		return nil
	}

	bindings, err := s.productRepo.FindByASIN(ctx, backend.ID, notification.ASIN)
	if err != nil {
		return err
	}
	if len(bindings) == 0 {
		s.checkpoint(ctx, backend.ID, "listing.product", notification.ASIN,
			"price message for unbound ASIN")
		return nil
	}

	for _, binding := range bindings {
		if err := s.repriceBinding(ctx, backend, binding, notification); err != nil {
			return err
		}
	}
	return nil
}

// repriceBinding evaluates the notified price against the margin band and
// queues an accepted price on the open price feed.
func (s *Service) repriceBinding(ctx context.Context, backend *connector.Backend, binding *listing.ProductBinding, n *pricewatch.Notification) error {
	feeRate := n.FeeRate
	if feeRate.IsZero() {
		feeRate = binding.FeeRate
	}

	detail, hasDetail := binding.Detail(n.MarketplaceID)
	band := listing.EffectiveBand(listing.MarginBand{Min: backend.MinMargin, Max: backend.MaxMargin}, detail)

	price, err := listing.EvaluatePrice(n.NewPrice, binding.InitialPrice, feeRate, band)
	if err != nil {
		switch {
		case errors.Is(err, listing.ErrPriceCostUnknown):
			// fix-data recovers the initial price later
			s.logger.Debug("cost unknown, skipping reprice",
				zap.String("sku", binding.SKU))
		case errors.Is(err, listing.ErrPriceBelowMinMargin):
			s.logger.Debug("price below margin band, skipping reprice",
				zap.String("sku", binding.SKU),
				zap.String("proposed", n.NewPrice.String()))
		default:
			return err
		}
		return nil
	}

	currency := n.Currency
	var current decimal.Decimal
	if hasDetail {
		current = detail.Price
		if currency == "" {
			currency = detail.Currency
		}
	}
	if !listing.ShouldPublish(current, price, backend.UnitsToChange) {
		return nil
	}

	feed, err := s.openFeed(ctx, backend.ID, listing.FeedTypePrice)
	if err != nil {
		return err
	}
	if _, queued := feedSKUs(feed)[binding.SKU]; queued {
		return nil
	}
	if err := feed.Append(binding.SKU, listing.PriceFragment(binding.SKU, currency, price)); err != nil {
		return err
	}
	if err := s.feedRepo.Update(ctx, feed); err != nil {
		return fmt.Errorf("queue repriced SKU %s: %w", binding.SKU, err)
	}
	s.logger.Info("reprice queued",
		zap.String("backend_id", backend.ID.String()),
		zap.String("sku", binding.SKU),
		zap.String("price", price.String()))
	return nil
}
