package listing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFeedNotFound      = errors.New("listing: feed not found")
	ErrFeedEmpty         = errors.New("listing: feed has no items")
	ErrFeedNotPending    = errors.New("listing: feed is not pending")
	ErrFeedNotSubmitted  = errors.New("listing: feed is not submitted")
	ErrFeedTypeInvalid   = errors.New("listing: invalid feed type")
	ErrFeedAlreadyClosed = errors.New("listing: feed already completed")
)

// FeedType selects the MWS feed a batch is submitted as.
type FeedType string

const (
	// FeedTypeStock batches quantity updates (_POST_INVENTORY_AVAILABILITY_DATA_)
	FeedTypeStock FeedType = "STOCK"
	// FeedTypePrice batches price updates (_POST_PRODUCT_PRICING_DATA_)
	FeedTypePrice FeedType = "PRICE"
	// FeedTypeListing batches listing create/update data (_POST_PRODUCT_DATA_)
	FeedTypeListing FeedType = "LISTING"
)

// MWSFeedType returns the wire feed type identifier.
func (t FeedType) MWSFeedType() string {
	switch t {
	case FeedTypeStock:
		return "_POST_INVENTORY_AVAILABILITY_DATA_"
	case FeedTypePrice:
		return "_POST_PRODUCT_PRICING_DATA_"
	case FeedTypeListing:
		return "_POST_PRODUCT_DATA_"
	default:
		return ""
	}
}

// IsValid reports whether the feed type is known.
func (t FeedType) IsValid() bool {
	return t.MWSFeedType() != ""
}

// FeedStatus is the submission state machine:
// pending -> submitted -> done | failed.
type FeedStatus string

const (
	FeedStatusPending   FeedStatus = "PENDING"
	FeedStatusSubmitted FeedStatus = "SUBMITTED"
	FeedStatusDone      FeedStatus = "DONE"
	FeedStatusFailed    FeedStatus = "FAILED"
)

// Feed accumulates stock/price/listing changes for one backend until the
// submit-feeds operation flushes it to MWS.
type Feed struct {
	ID        uuid.UUID
	BackendID uuid.UUID
	Type      FeedType
	Status    FeedStatus
	// SubmissionID is the MWS FeedSubmissionId once submitted
	SubmissionID string
	// ErrorMessage records why a submission failed
	ErrorMessage string
	Items        []FeedItem
	SubmittedAt  *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FeedItem is one SKU-level change inside a feed.
type FeedItem struct {
	ID     uuid.UUID
	FeedID uuid.UUID
	SKU    string
	// Payload is the item's XML fragment for the feed envelope
	Payload string
}

// NewFeed opens a pending feed for a backend.
func NewFeed(backendID uuid.UUID, feedType FeedType) (*Feed, error) {
	if !feedType.IsValid() {
		return nil, ErrFeedTypeInvalid
	}
	return &Feed{
		ID:        uuid.New(),
		BackendID: backendID,
		Type:      feedType,
		Status:    FeedStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// Append adds an item to a pending feed.
func (f *Feed) Append(sku, payload string) error {
	if f.Status != FeedStatusPending {
		return ErrFeedNotPending
	}
	f.Items = append(f.Items, FeedItem{ID: uuid.New(), FeedID: f.ID, SKU: sku, Payload: payload})
	f.UpdatedAt = time.Now()
	return nil
}

// MarkSubmitted transitions pending -> submitted.
func (f *Feed) MarkSubmitted(submissionID string) error {
	if f.Status != FeedStatusPending {
		return ErrFeedNotPending
	}
	if len(f.Items) == 0 {
		return ErrFeedEmpty
	}
	now := time.Now()
	f.Status = FeedStatusSubmitted
	f.SubmissionID = submissionID
	f.SubmittedAt = &now
	f.UpdatedAt = now
	return nil
}

// MarkDone transitions submitted -> done.
func (f *Feed) MarkDone() error {
	if f.Status != FeedStatusSubmitted {
		return ErrFeedNotSubmitted
	}
	now := time.Now()
	f.Status = FeedStatusDone
	f.CompletedAt = &now
	f.UpdatedAt = now
	return nil
}

// MarkFailed records a failed submission. Allowed from pending (local
// build error) or submitted (MWS rejected the feed).
func (f *Feed) MarkFailed(reason string) error {
	if f.Status == FeedStatusDone || f.Status == FeedStatusFailed {
		return ErrFeedAlreadyClosed
	}
	now := time.Now()
	f.Status = FeedStatusFailed
	f.ErrorMessage = reason
	f.CompletedAt = &now
	f.UpdatedAt = now
	return nil
}
