package settlement

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ledgerd/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enqueued struct {
	correlationID string
	status        string
	payload       []byte
}

type fakeQueue struct {
	entries []enqueued
	err     error
}

func (f *fakeQueue) Enqueue(_ context.Context, correlationID, status string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, enqueued{correlationID, status, payload})
	return nil
}

func testEvent() Event {
	return NewCompletedEvent("pay-123", decimal.RequireFromString("150.00"), "EUR", "stripe", time.Now().UTC())
}

func newTestNotifier(url string, queue Queue) *Notifier {
	return NewNotifier(config.SettlementConfig{
		ReceiverURL: url,
		Secret:      "test-secret",
		ServiceID:   "ledgerd-test",
		Timeout:     time.Second,
	}, queue)
}

func TestNotifyDelivers(t *testing.T) {
	var gotBody []byte
	var gotHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	queue := &fakeQueue{}
	notifier := newTestNotifier(server.URL, queue)
	event := testEvent()

	result := notifier.Notify(context.Background(), event)
	require.True(t, result.Delivered)
	require.NoError(t, result.Err)
	assert.Empty(t, queue.entries, "delivered events must not be enqueued")

	// The receiver sees the exact serialized event.
	var received Event
	require.NoError(t, json.Unmarshal(gotBody, &received))
	assert.Equal(t, event.CorrelationID, received.CorrelationID)
	assert.Equal(t, EventPaymentCompleted, received.EventType)
	assert.True(t, received.Data.Amount.Equal(decimal.RequireFromString("150.00")))

	// Required headers.
	assert.Equal(t, "ledgerd-test", gotHeaders.Get(HeaderServiceID))
	assert.NotEmpty(t, gotHeaders.Get(HeaderRequestID))
	assert.NotEmpty(t, gotHeaders.Get(HeaderTimestamp))

	// Signature is the HMAC-SHA256 over the exact body bytes.
	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotHeaders.Get(HeaderSignature))
}

func TestNotifyEnqueuesOnReceiverError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	queue := &fakeQueue{}
	notifier := newTestNotifier(server.URL, queue)

	result := notifier.Notify(context.Background(), testEvent())
	assert.False(t, result.Delivered)
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, ErrDeliveryFailed)

	var delivery *DeliveryError
	require.ErrorAs(t, result.Err, &delivery)
	assert.Equal(t, http.StatusBadGateway, delivery.StatusCode)

	require.Len(t, queue.entries, 1)
	assert.Equal(t, "pay-123", queue.entries[0].correlationID)
	assert.Equal(t, StatusCompleted, queue.entries[0].status)
	assert.NotEmpty(t, queue.entries[0].payload)
}

func TestNotifyEnqueuesOnTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	queue := &fakeQueue{}
	notifier := newTestNotifier(server.URL, queue)

	result := notifier.Notify(context.Background(), testEvent())
	assert.False(t, result.Delivered)
	assert.ErrorIs(t, result.Err, ErrDeliveryFailed)

	var delivery *DeliveryError
	require.ErrorAs(t, result.Err, &delivery)
	assert.Zero(t, delivery.StatusCode)
	require.Len(t, queue.entries, 1)
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"eventType":"payment.completed"}`)
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.NoError(t, VerifySignature("s3cret", payload, signature))
	assert.Error(t, VerifySignature("other", payload, signature))
	assert.Error(t, VerifySignature("s3cret", []byte(`{"tampered":true}`), signature))
}
