package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderRepository persists imported order bindings.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByPlatformID enforces the one-binding-per-backend invariant.
	FindByPlatformID(ctx context.Context, backendID uuid.UUID, platformOrderID string) (*Order, error)
	ListByBackend(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*Order, int64, error)
	// CountImportedSince supports operational reporting on a backend.
	CountImportedSince(ctx context.Context, backendID uuid.UUID, since time.Time) (int64, error)
}
