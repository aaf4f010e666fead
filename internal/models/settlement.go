package models

import "time"

// Retry entry states
const (
	RetryPending   = "pending"
	RetryDelivered = "delivered"
	RetryExhausted = "exhausted"
)

// SettlementRetry tracks redelivery of one undelivered settlement event.
// One row per correlation id: re-enqueues replace the payload but keep the
// attempt counter, so repeated failures converge toward exhaustion.
type SettlementRetry struct {
	ID            uint      `gorm:"primarykey"`
	CorrelationID string    `gorm:"uniqueIndex;size:64;not null"`
	Status        string    `gorm:"size:32;not null"`
	Payload       []byte    `gorm:"type:jsonb;not null"`
	Attempts      int       `gorm:"not null;default:0"`
	MaxAttempts   int       `gorm:"not null"`
	NextRetryAt   time.Time `gorm:"index;not null"`
	State         string    `gorm:"size:16;not null;default:'pending'"`
	LastError     string    `gorm:"size:512"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
