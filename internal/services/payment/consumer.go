package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"ledgerd/internal/services/commission"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultStream is the Redis list gateway webhooks publish payment
// events to.
const DefaultStream = "payments:events"

const popTimeout = 5 * time.Second

// Message event types.
const (
	MessageCompleted = "completed"
	MessageFailed    = "failed"
)

var ErrUnknownMessageType = errors.New("unknown payment message type")

// Message is the wire format of one payment event on the stream.
type Message struct {
	Type          string                 `json:"type"`
	CorrelationID string                 `json:"correlationId"`
	PayeeID       uint                   `json:"payeeId"`
	PayeeRole     string                 `json:"payeeRole"`
	Amount        decimal.Decimal        `json:"amount"`
	Category      string                 `json:"category"`
	Currency      string                 `json:"currency"`
	Gateway       string                 `json:"gateway"`
	CustomRate    *decimal.Decimal       `json:"customRate,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// Consumer pops payment events off a Redis list and feeds them to the
// processor. One consumer goroutine is enough; ordering within the
// list is preserved.
type Consumer struct {
	client    *redis.Client
	processor *Processor
	stream    string
	log       *logrus.Entry

	started atomic.Bool
	done    chan struct{}
}

// NewConsumer creates a payment event consumer.
func NewConsumer(client *redis.Client, processor *Processor, stream string) *Consumer {
	if client == nil {
		panic("redis client is required")
	}
	if processor == nil {
		panic("payment processor is required")
	}
	if stream == "" {
		stream = DefaultStream
	}
	return &Consumer{
		client:    client,
		processor: processor,
		stream:    stream,
		log:       logrus.WithField("component", "payment_consumer"),
		done:      make(chan struct{}),
	}
}

// Start launches the consume loop. It returns immediately; the loop
// runs until ctx is cancelled. A second Start is a no-op.
func (c *Consumer) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.run(ctx)
}

// Stop blocks until the consume loop has exited. Safe to call whether
// or not the consumer was started.
func (c *Consumer) Stop() {
	if c.started.Load() {
		<-c.done
	}
}

func (c *Consumer) run(ctx context.Context) {
	defer close(c.done)

	c.log.WithField("stream", c.stream).Info("payment consumer started")
	for {
		if ctx.Err() != nil {
			return
		}

		values, err := c.client.BLPop(ctx, popTimeout, c.stream).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			c.log.WithError(err).Warn("failed to pop payment event")
			continue
		}
		// BLPop returns [key, value].
		if len(values) != 2 {
			continue
		}

		if err := c.handle(ctx, []byte(values[1])); err != nil {
			c.log.WithError(err).Error("failed to process payment event")
		}
	}
}

// handle decodes one event payload and dispatches it.
func (c *Consumer) handle(ctx context.Context, payload []byte) error {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to decode payment event: %w", err)
	}

	switch msg.Type {
	case MessageCompleted:
		var overrides *commission.Overrides
		if msg.CustomRate != nil {
			overrides = &commission.Overrides{CustomRate: msg.CustomRate, OwnerRole: msg.PayeeRole}
		}
		_, err := c.processor.HandleCompleted(ctx, CompletedPayment{
			CorrelationID: msg.CorrelationID,
			PayeeID:       msg.PayeeID,
			PayeeRole:     msg.PayeeRole,
			GrossAmount:   msg.Amount,
			Category:      msg.Category,
			Currency:      msg.Currency,
			Gateway:       msg.Gateway,
			Overrides:     overrides,
			Metadata:      msg.Metadata,
		})
		return err
	case MessageFailed:
		c.processor.HandleFailed(ctx, msg.CorrelationID, msg.Amount, msg.Currency, msg.Gateway, msg.Reason)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}
}
