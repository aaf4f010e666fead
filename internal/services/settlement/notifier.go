// Package settlement constructs outbound settlement events and delivers
// them to the downstream system of record. Delivery is best-effort:
// a failed attempt is handed to the retry queue instead of surfacing an
// error to the money-mutating caller.
package settlement

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ledgerd/internal/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Queue captures undelivered events for scheduled redelivery.
type Queue interface {
	Enqueue(ctx context.Context, correlationID, status string, payload []byte) error
}

// Notifier delivers settlement events over HTTP with an HMAC-SHA256
// signature over the exact serialized payload.
type Notifier struct {
	cfg    config.SettlementConfig
	client *http.Client
	queue  Queue
	log    *logrus.Entry
}

// NewNotifier creates a notifier. queue receives events whose
// synchronous delivery attempt failed.
func NewNotifier(cfg config.SettlementConfig, queue Queue) *Notifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		queue:  queue,
		log:    logrus.WithField("component", "settlement"),
	}
}

// Notify serializes, signs and attempts one synchronous delivery of the
// event. On failure the payload snapshot is enqueued for retry; the
// returned Result never represents an error the ledger caller must act on.
func (n *Notifier) Notify(ctx context.Context, event Event) Result {
	payload, err := json.Marshal(event)
	if err != nil {
		// No payload means nothing to retry either; log and give up.
		n.log.WithError(err).WithField("correlation_id", event.CorrelationID).
			Error("failed to serialize settlement event")
		return Result{Delivered: false, Err: err}
	}

	if err := n.Send(ctx, payload); err != nil {
		n.log.WithError(err).WithField("correlation_id", event.CorrelationID).
			Warn("settlement delivery failed, enqueueing for retry")
		if qErr := n.queue.Enqueue(ctx, event.CorrelationID, event.Status, payload); qErr != nil {
			n.log.WithError(qErr).WithField("correlation_id", event.CorrelationID).
				Error("failed to enqueue settlement retry, notification may be lost")
		}
		return Result{Delivered: false, Err: err}
	}

	n.log.WithFields(logrus.Fields{
		"correlation_id": event.CorrelationID,
		"event_type":     event.EventType,
	}).Info("settlement event delivered")
	return Result{Delivered: true}
}

// Send performs a single delivery attempt of an already-serialized
// payload. The retry worker drains queued payloads through this same path.
func (n *Notifier) Send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.ReceiverURL, bytes.NewReader(payload))
	if err != nil {
		return &DeliveryError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderServiceID, n.cfg.ServiceID)
	req.Header.Set(HeaderRequestID, uuid.NewString())
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set(HeaderSignature, n.sign(payload))

	resp, err := n.client.Do(req)
	if err != nil {
		return &DeliveryError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{StatusCode: resp.StatusCode}
	}
	return nil
}

// sign computes the hex HMAC-SHA256 of the payload with the shared
// secret. Any mutation of the payload between signing and verification
// invalidates delivery.
func (n *Notifier) sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(n.cfg.Secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature against the payload, for
// receivers sharing the secret.
func VerifySignature(secret string, payload []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
