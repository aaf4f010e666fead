package retry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ledgerd/internal/models"

	"github.com/sirupsen/logrus"
)

// drainBatchSize bounds the entries processed per cycle.
const drainBatchSize = 100

// Sender performs one delivery attempt of a serialized event payload.
// *settlement.Notifier satisfies this with its Send method.
type Sender interface {
	Send(ctx context.Context, payload []byte) error
}

// Worker drains the retry queue on a fixed interval. Drain cycles are
// single-flight: a tick that fires while the previous cycle is still
// running is skipped, so no entry is delivered concurrently with itself.
type Worker struct {
	queue    *Queue
	sender   Sender
	interval time.Duration
	log      *logrus.Entry

	draining atomic.Bool
	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewWorker creates a drain worker for queue using sender.
func NewWorker(queue *Queue, sender Sender) *Worker {
	if queue == nil {
		panic("queue is required")
	}
	if sender == nil {
		panic("sender is required")
	}
	interval := queue.cfg.DrainInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Worker{
		queue:    queue,
		sender:   sender,
		interval: interval,
		log:      logrus.WithField("component", "settlement_retry_worker"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the drain loop until ctx is cancelled or Stop is called.
// A second Start is a no-op.
func (w *Worker) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.log.WithField("interval", w.interval).Info("retry worker started")
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				if _, err := w.Drain(ctx); err != nil {
					w.log.WithError(err).Error("drain cycle failed")
				}
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the in-flight cycle.
// Safe to call whether or not the worker was started.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	if w.started.Load() {
		<-w.done
	}
}

// Drain processes every due entry once. Returns the number of entries
// attempted; returns immediately if another cycle is already running.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	if !w.draining.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer w.draining.Store(false)

	entries, err := w.queue.store.Due(ctx, time.Now().UTC(), drainBatchSize)
	if err != nil {
		return 0, err
	}

	for i := range entries {
		w.attempt(ctx, &entries[i])
	}
	return len(entries), nil
}

// attempt re-delivers one entry and advances its state machine:
// delivered (removed), pending with backoff, or exhausted.
func (w *Worker) attempt(ctx context.Context, entry *models.SettlementRetry) {
	log := w.log.WithFields(logrus.Fields{
		"correlation_id": entry.CorrelationID,
		"attempt":        entry.Attempts + 1,
		"max_attempts":   entry.MaxAttempts,
	})

	err := w.sender.Send(ctx, entry.Payload)
	if err == nil {
		if delErr := w.queue.store.Delete(ctx, entry.CorrelationID); delErr != nil {
			log.WithError(delErr).Error("delivered but failed to remove retry entry")
			return
		}
		log.Info("queued settlement event delivered")
		return
	}

	entry.Attempts++
	state := models.RetryPending
	next := time.Now().UTC().Add(w.queue.backoff(entry.Attempts))

	if entry.Attempts >= entry.MaxAttempts {
		state = models.RetryExhausted
		// Terminal: surfaced to operators via the exhausted list,
		// never silently dropped.
		log.WithError(err).Error("retry budget exhausted, settlement event undelivered")
	} else {
		log.WithError(err).Warn("redelivery failed, backing off")
	}

	if recErr := w.queue.store.RecordFailure(ctx, entry.ID, entry.Attempts, next, state, err.Error()); recErr != nil {
		log.WithError(recErr).Error("failed to record retry failure")
	}
}
