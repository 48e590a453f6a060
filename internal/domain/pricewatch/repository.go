package pricewatch

import (
	"context"

	"github.com/google/uuid"
)

// MessageRepository persists received price-change messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	Update(ctx context.Context, msg *Message) error
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)
	// ListUnprocessed returns oldest-first unprocessed messages for dispatch.
	ListUnprocessed(ctx context.Context, backendID uuid.UUID, limit int) ([]*Message, error)
	CountUnprocessed(ctx context.Context, backendID uuid.UUID) (int64, error)
	// DeleteProcessedBefore prunes consumed messages past their retention.
	DeleteProcessedBefore(ctx context.Context, backendID uuid.UUID, keepDays int) (int64, error)
}
