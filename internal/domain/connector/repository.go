package connector

import (
	"context"

	"github.com/google/uuid"
)

// BackendRepository persists backend aggregates.
type BackendRepository interface {
	Create(ctx context.Context, backend *Backend) error
	Update(ctx context.Context, backend *Backend) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Backend, error)
	// FindActive returns backends participating in scheduler fan-out.
	FindActive(ctx context.Context) ([]*Backend, error)
	List(ctx context.Context, offset, limit int) ([]*Backend, int64, error)
	// SalePrefixTaken reports whether another backend already uses the prefix.
	SalePrefixTaken(ctx context.Context, prefix string, excludeID uuid.UUID) (bool, error)
}

// CheckpointRepository persists review records.
type CheckpointRepository interface {
	Create(ctx context.Context, cp *Checkpoint) error
	Update(ctx context.Context, cp *Checkpoint) error
	FindByID(ctx context.Context, id uuid.UUID) (*Checkpoint, error)
	ListUnresolved(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*Checkpoint, int64, error)
}

// ShippingTemplateRepository persists discovered shipping templates. The
// discovery query itself lives in the persistence layer because it joins
// across listing details.
type ShippingTemplateRepository interface {
	Create(ctx context.Context, tpl *ShippingTemplate) error
	ListByBackend(ctx context.Context, backendID uuid.UUID) ([]*ShippingTemplate, error)
	// DiscoverMissing returns distinct (marketplace, shipping group) pairs
	// present in listing details but lacking a template record.
	DiscoverMissing(ctx context.Context, backendID uuid.UUID) ([]*ShippingTemplate, error)
}
