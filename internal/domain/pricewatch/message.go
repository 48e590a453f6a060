package pricewatch

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrMessageNotFound    = errors.New("pricewatch: message not found")
	ErrMessageEmpty       = errors.New("pricewatch: empty message body")
	ErrMessageUnparseable = errors.New("pricewatch: message body could not be parsed")
	ErrMessageProcessed   = errors.New("pricewatch: message already processed")
)

// MaxDispatchBatch bounds how many stored messages one dispatch run turns
// into jobs. The run is further capped by the backend's listing-detail
// count so a backend with few listings does not monopolize workers.
const MaxDispatchBatch = 1000

// Message is a raw price-change notification received from the backend's
// SQS queue. Messages are persisted before the queue delete so a crash
// between receive and process loses nothing.
type Message struct {
	ID        uuid.UUID
	BackendID uuid.UUID
	// SQSMessageID is the provider-side message identifier, for tracing
	SQSMessageID string
	// Body is the raw JSON payload
	Body string
	// Processed is set once a dispatch job has consumed the message
	Processed   bool
	ReceivedAt  time.Time
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// Notification is the parsed content of a price-change message.
type Notification struct {
	ASIN          string
	MarketplaceID string
	// NewPrice is the competing offer's landed price
	NewPrice decimal.Decimal
	Currency string
	// FeeRate is included in some notification variants
	FeeRate decimal.Decimal
}

// payload mirrors the relevant subset of the AnyOfferChanged notification
// body as delivered through SQS.
type payload struct {
	OfferChangeTrigger struct {
		ASIN          string `json:"ASIN"`
		MarketplaceID string `json:"MarketplaceId"`
	} `json:"OfferChangeTrigger"`
	Summary struct {
		LowestPrices []struct {
			LandedPrice struct {
				Amount       json.Number `json:"Amount"`
				CurrencyCode string      `json:"CurrencyCode"`
			} `json:"LandedPrice"`
		} `json:"LowestPrices"`
	} `json:"Summary"`
	FeeRate json.Number `json:"FeeRate"`
}

// NewMessage stores a freshly received queue message.
func NewMessage(backendID uuid.UUID, sqsMessageID, body string) (*Message, error) {
	if body == "" {
		return nil, ErrMessageEmpty
	}
	return &Message{
		ID:           uuid.New(),
		BackendID:    backendID,
		SQSMessageID: sqsMessageID,
		Body:         body,
		ReceivedAt:   time.Now(),
		CreatedAt:    time.Now(),
	}, nil
}

// Parse extracts the notification content from the raw body.
func (m *Message) Parse() (*Notification, error) {
	var p payload
	if err := json.Unmarshal([]byte(m.Body), &p); err != nil {
		return nil, ErrMessageUnparseable
	}
	if p.OfferChangeTrigger.ASIN == "" || p.OfferChangeTrigger.MarketplaceID == "" {
		return nil, ErrMessageUnparseable
	}
	n := &Notification{
		ASIN:          p.OfferChangeTrigger.ASIN,
		MarketplaceID: p.OfferChangeTrigger.MarketplaceID,
	}
	if len(p.Summary.LowestPrices) > 0 {
		lp := p.Summary.LowestPrices[0].LandedPrice
		price, err := decimal.NewFromString(lp.Amount.String())
		if err != nil {
			return nil, ErrMessageUnparseable
		}
		n.NewPrice = price
		n.Currency = lp.CurrencyCode
	}
	if p.FeeRate != "" {
		if rate, err := decimal.NewFromString(p.FeeRate.String()); err == nil {
			n.FeeRate = rate
		}
	}
	return n, nil
}

// MarkProcessed flips the processed flag once a dispatch job consumed the
// message. Processing twice is an error.
func (m *Message) MarkProcessed() error {
	if m.Processed {
		return ErrMessageProcessed
	}
	now := time.Now()
	m.Processed = true
	m.ProcessedAt = &now
	return nil
}
