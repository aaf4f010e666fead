// Package retry implements the durable retry queue for undelivered
// settlement events. Entries live in Postgres so pending notifications
// survive process restarts; the drain worker replays them on a fixed
// cadence with exponential backoff until delivery or exhaustion.
package retry

import (
	"context"
	"fmt"
	"time"

	"ledgerd/internal/config"
	"ledgerd/internal/models"
	"ledgerd/internal/repositories"

	"github.com/sirupsen/logrus"
)

// Queue is the enqueue/operator surface over the retry store.
type Queue struct {
	store repositories.RetryRepository
	cfg   config.RetryConfig
	log   *logrus.Entry
}

// NewQueue creates a retry queue over store.
func NewQueue(store repositories.RetryRepository, cfg config.RetryConfig) *Queue {
	if store == nil {
		panic("store is required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Minute
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Hour
	}
	return &Queue{
		store: store,
		cfg:   cfg,
		log:   logrus.WithField("component", "settlement_retry"),
	}
}

// Enqueue records an undelivered event. One entry per correlation id:
// the payload snapshot is replaced, the attempt counter of an existing
// entry is preserved so repeated failures converge toward exhaustion.
func (q *Queue) Enqueue(ctx context.Context, correlationID, status string, payload []byte) error {
	entry := &models.SettlementRetry{
		CorrelationID: correlationID,
		Status:        status,
		Payload:       payload,
		MaxAttempts:   q.cfg.MaxAttempts,
		NextRetryAt:   time.Now().UTC().Add(q.cfg.BaseBackoff),
		State:         models.RetryPending,
	}
	if err := q.store.Enqueue(ctx, entry); err != nil {
		return fmt.Errorf("failed to enqueue settlement retry: %w", err)
	}

	q.log.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"status":         status,
	}).Info("settlement event queued for retry")
	return nil
}

// ListExhausted returns entries whose retry budget is consumed. These
// are terminal and surfaced to operators, never silently dropped.
func (q *Queue) ListExhausted(ctx context.Context) ([]models.SettlementRetry, error) {
	return q.store.ListByState(ctx, models.RetryExhausted)
}

// Requeue gives an exhausted entry a fresh attempt budget.
func (q *Queue) Requeue(ctx context.Context, correlationID string) error {
	next := time.Now().UTC().Add(q.cfg.BaseBackoff)
	if err := q.store.Reopen(ctx, correlationID, q.cfg.MaxAttempts, next); err != nil {
		return fmt.Errorf("failed to requeue settlement retry: %w", err)
	}
	q.log.WithField("correlation_id", correlationID).Info("exhausted retry entry reopened")
	return nil
}

// backoff returns the wait before the next attempt: base doubled per
// completed attempt, capped.
func (q *Queue) backoff(attempts int) time.Duration {
	d := q.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= q.cfg.MaxBackoff {
			return q.cfg.MaxBackoff
		}
	}
	return d
}
