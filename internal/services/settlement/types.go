package settlement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types and statuses
const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"

	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Header names on the outbound request
const (
	HeaderServiceID = "X-Service-Id"
	HeaderRequestID = "X-Request-Id"
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
)

// EventData carries the settlement details of a payment.
type EventData struct {
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Gateway      string          `json:"gateway"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// Event is the outbound settlement notification. The serialized form is
// the wire contract with the downstream receiver; the HMAC signature is
// computed over these exact bytes.
type Event struct {
	EventType     string    `json:"eventType"`
	CorrelationID string    `json:"correlationId"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Data          EventData `json:"data"`
}

// NewCompletedEvent builds a payment.completed event.
func NewCompletedEvent(correlationID string, amount decimal.Decimal, currency, gateway string, completedAt time.Time) Event {
	return Event{
		EventType:     EventPaymentCompleted,
		CorrelationID: correlationID,
		Status:        StatusCompleted,
		Timestamp:     time.Now().UTC(),
		Data: EventData{
			Amount:      amount,
			Currency:    currency,
			Gateway:     gateway,
			CompletedAt: &completedAt,
		},
	}
}

// NewFailedEvent builds a payment.failed event.
func NewFailedEvent(correlationID string, amount decimal.Decimal, currency, gateway, errorMessage string) Event {
	return Event{
		EventType:     EventPaymentFailed,
		CorrelationID: correlationID,
		Status:        StatusFailed,
		Timestamp:     time.Now().UTC(),
		Data: EventData{
			Amount:       amount,
			Currency:     currency,
			Gateway:      gateway,
			ErrorMessage: errorMessage,
		},
	}
}

// Result reports the outcome of one notify call. Err is informational:
// an undelivered event has already been handed to the retry queue and
// must not fail the caller's own unit of work.
type Result struct {
	Delivered bool
	Err       error
}
