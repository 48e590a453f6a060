package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp/amazon-connector/internal/domain/pricewatch"
)

// PriceMessageModel is the persistence model for received price-change
// notifications.
type PriceMessageModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	BackendID    uuid.UUID `gorm:"type:uuid;not null;index:idx_price_message_dispatch,priority:1"`
	SQSMessageID string    `gorm:"type:varchar(128);column:sqs_message_id"`
	Body         string    `gorm:"type:text;not null"`
	Processed    bool      `gorm:"not null;default:false;index:idx_price_message_dispatch,priority:2"`
	ReceivedAt   time.Time `gorm:"not null;index:idx_price_message_dispatch,priority:3"`
	ProcessedAt  *time.Time
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PriceMessageModel) TableName() string {
	return "price_messages"
}

// ToDomain converts the persistence model to a domain Message.
func (m *PriceMessageModel) ToDomain() *pricewatch.Message {
	return &pricewatch.Message{
		ID:           m.ID,
		BackendID:    m.BackendID,
		SQSMessageID: m.SQSMessageID,
		Body:         m.Body,
		Processed:    m.Processed,
		ReceivedAt:   m.ReceivedAt,
		ProcessedAt:  m.ProcessedAt,
		CreatedAt:    m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Message.
func (m *PriceMessageModel) FromDomain(msg *pricewatch.Message) {
	m.ID = msg.ID
	m.BackendID = msg.BackendID
	m.SQSMessageID = msg.SQSMessageID
	m.Body = msg.Body
	m.Processed = msg.Processed
	m.ReceivedAt = msg.ReceivedAt
	m.ProcessedAt = msg.ProcessedAt
	m.CreatedAt = msg.CreatedAt
}
