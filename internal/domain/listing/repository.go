package listing

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository persists product bindings and their listing details.
type ProductRepository interface {
	Create(ctx context.Context, binding *ProductBinding) error
	Update(ctx context.Context, binding *ProductBinding) error
	FindByID(ctx context.Context, id uuid.UUID) (*ProductBinding, error)
	FindBySKU(ctx context.Context, backendID uuid.UUID, sku string) (*ProductBinding, error)
	FindByASIN(ctx context.Context, backendID uuid.UUID, asin string) ([]*ProductBinding, error)
	ListByBackend(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*ProductBinding, int64, error)
	// ListExportEnabled returns bindings flagged for automatic export.
	ListExportEnabled(ctx context.Context, backendID uuid.UUID) ([]*ProductBinding, error)
	// ListNeedingFixData returns bindings missing fee or initial price data.
	ListNeedingFixData(ctx context.Context, backendID uuid.UUID, limit int) ([]*ProductBinding, error)
	// CountListingDetails bounds the price-message dispatch batch.
	CountListingDetails(ctx context.Context, backendID uuid.UUID) (int64, error)
	UpsertDetail(ctx context.Context, detail *ListingDetail) error
}

// FeedRepository persists feeds and their items.
type FeedRepository interface {
	Create(ctx context.Context, feed *Feed) error
	Update(ctx context.Context, feed *Feed) error
	FindByID(ctx context.Context, id uuid.UUID) (*Feed, error)
	// FindOpen returns the pending feed of a type for a backend, if any;
	// the feed builders append to it instead of opening a new one.
	FindOpen(ctx context.Context, backendID uuid.UUID, feedType FeedType) (*Feed, error)
	// ListPending returns all pending feeds for submission.
	ListPending(ctx context.Context, backendID uuid.UUID) ([]*Feed, error)
	ListByBackend(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*Feed, int64, error)
}
