package connector

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrCheckpointNotFound = errors.New("connector: checkpoint not found")

// Checkpoint is a review record pointing an operator at data the connector
// could not resolve on its own (unmatched products, unparseable messages).
type Checkpoint struct {
	ID uuid.UUID
	// BackendID is the backend the record belongs to
	BackendID uuid.UUID
	// Model names the kind of record needing review (e.g. "listing.product",
	// "pricewatch.message")
	Model string
	// RecordID identifies the record within its model
	RecordID string
	// Reason is a short operator-facing description
	Reason string
	// Resolved is set once an operator has handled the record
	Resolved  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCheckpoint creates an unresolved review record.
func NewCheckpoint(backendID uuid.UUID, model, recordID, reason string) *Checkpoint {
	return &Checkpoint{
		ID:        uuid.New(),
		BackendID: backendID,
		Model:     model,
		RecordID:  recordID,
		Reason:    reason,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// Resolve marks the record as handled.
func (c *Checkpoint) Resolve() {
	c.Resolved = true
	c.UpdatedAt = time.Now()
}
