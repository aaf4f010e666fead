package payment

import (
	"context"
	"testing"

	"ledgerd/internal/models"
	"ledgerd/internal/services/settlement"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConsumer(t *testing.T) (*Consumer, *fakeLedger, *fakeCommission, *fakeNotifier) {
	t.Helper()
	proc, l, c, n := newTestProcessor("0.10", true)
	// handle() never touches Redis, so the client can stay nil here.
	return &Consumer{processor: proc}, l, c, n
}

func TestHandleCompletedMessage(t *testing.T) {
	consumer, l, c, _ := newTestConsumer(t)

	payload := []byte(`{
		"type": "completed",
		"correlationId": "pay-10",
		"payeeId": 42,
		"payeeRole": "designer",
		"amount": "200.00",
		"category": "template_sale",
		"currency": "EUR",
		"gateway": "stripe"
	}`)
	require.NoError(t, consumer.handle(context.Background(), payload))

	require.Len(t, l.credits, 2)
	assert.True(t, l.credits[0].req.Amount.Equal(dec("180.00")))
	assert.True(t, l.credits[1].req.Amount.Equal(dec("20.00")))
	require.Len(t, c.created, 1)
	assert.Equal(t, "pay-10", c.created[0].TransactionID)
}

func TestHandleCompletedMessageWithCustomRate(t *testing.T) {
	consumer, l, _, _ := newTestConsumer(t)

	payload := []byte(`{
		"type": "completed",
		"correlationId": "pay-11",
		"payeeId": 7,
		"payeeRole": "organizer",
		"amount": "100.00",
		"customRate": "0.25",
		"category": "custom_design",
		"currency": "EUR"
	}`)
	require.NoError(t, consumer.handle(context.Background(), payload))

	// The fake commission engine ignores overrides, but the request
	// must carry them through to the payee role and rate lookup.
	require.Len(t, l.credits, 2)
	assert.Equal(t, models.RoleOrganizer, l.credits[0].owner.Role)
}

func TestHandleFailedMessage(t *testing.T) {
	consumer, l, _, n := newTestConsumer(t)

	payload := []byte(`{
		"type": "failed",
		"correlationId": "pay-12",
		"amount": "50.00",
		"currency": "EUR",
		"gateway": "paypal",
		"reason": "card declined"
	}`)
	require.NoError(t, consumer.handle(context.Background(), payload))

	assert.Empty(t, l.credits)
	require.Len(t, n.events, 1)
	assert.Equal(t, settlement.EventPaymentFailed, n.events[0].EventType)
	assert.Equal(t, "card declined", n.events[0].Data.ErrorMessage)
}

func TestConsumerStopWithoutStart(t *testing.T) {
	proc, _, _, _ := newTestProcessor("0.10", true)
	consumer := NewConsumer(redis.NewClient(&redis.Options{}), proc, "")

	// Must return instead of waiting on a loop that never ran.
	consumer.Stop()
	consumer.Stop()
}

func TestHandleRejectsMalformedMessages(t *testing.T) {
	consumer, _, _, _ := newTestConsumer(t)
	ctx := context.Background()

	assert.Error(t, consumer.handle(ctx, []byte(`not json`)))
	assert.ErrorIs(t, consumer.handle(ctx, []byte(`{"type":"refunded"}`)), ErrUnknownMessageType)
}
