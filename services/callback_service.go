package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"order-hub/models"
)

const (
	callbackMaxAttempts = 3
	callbackTimeout     = 30 * time.Second
	callbackMaxBackoff  = 10 * time.Second
	signatureHeader     = "X-Order-Hub-Signature"
	callbackUserAgent   = "OrderHub/1.0"
)

// CallbackPayload is the JSON body POSTed to a channel on status change.
type CallbackPayload struct {
	OrderID       string                  `json:"order_id"`
	Source        string                  `json:"source"`
	SourceOrderID string                  `json:"source_order_id"`
	Status        string                  `json:"status"`
	Payment       *CallbackPaymentPayload `json:"payment,omitempty"`
	Timestamp     string                  `json:"timestamp"`
}

type CallbackPaymentPayload struct {
	PaymentID string `json:"payment_id"`
	Provider  string `json:"provider"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

// URLResolver maps a channel name to its configured callback URL, or ""
// when the channel has none.
type URLResolver func(channel string) string

// CallbackDispatcher delivers signed status-change callbacks to channels.
// Delivery is best effort: retries are bounded and an exhausted callback is
// only logged, never surfaced to the triggering caller.
type CallbackDispatcher struct {
	policy     *ChannelPolicyService
	resolveURL URLResolver
	secret     string
	sandbox    bool
	client     *http.Client
	logger     *zap.Logger

	// sleep is swapped in tests to observe the backoff schedule.
	sleep func(time.Duration)
}

func NewCallbackDispatcher(policy *ChannelPolicyService, resolveURL URLResolver, secret string, sandbox bool, logger *zap.Logger) *CallbackDispatcher {
	return &CallbackDispatcher{
		policy:     policy,
		resolveURL: resolveURL,
		secret:     secret,
		sandbox:    sandbox,
		client:     &http.Client{Timeout: callbackTimeout},
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// SendOrderCallback notifies the originating channel of an order status
// change, optionally attaching the payment that triggered it. The channel
// policy gate runs here so callers never have to check it.
func (d *CallbackDispatcher) SendOrderCallback(ctx context.Context, order *models.Order, payment *models.Payment) {
	if !d.policy.ShouldSendCallbacks(ctx, order.Source) {
		d.logger.Info("Callbacks disabled for channel, skipping",
			zap.String("channel", order.Source),
			zap.String("order_id", order.ID.String()),
		)
		return
	}

	url := d.resolveURL(order.Source)
	if url == "" {
		d.logger.Info("No callback URL configured for channel",
			zap.String("channel", order.Source),
		)
		return
	}

	payload := CallbackPayload{
		OrderID:       order.ID.String(),
		Source:        order.Source,
		SourceOrderID: order.SourceOrderID,
		Status:        string(order.Status),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if payment != nil {
		payload.Payment = &CallbackPaymentPayload{
			PaymentID: payment.ID.String(),
			Provider:  string(payment.Provider),
			Status:    string(payment.Status),
			Amount:    payment.Amount,
		}
	}

	d.deliver(ctx, url, order.Source, payload)
}

// deliver POSTs the signed payload with bounded retries. In sandbox mode
// nothing leaves the process.
func (d *CallbackDispatcher) deliver(ctx context.Context, url, channel string, payload CallbackPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("Callback payload marshal failed",
			zap.String("channel", channel),
			zap.Error(err),
		)
		return
	}

	if d.sandbox {
		d.logger.Info("[SANDBOX] Callback suppressed",
			zap.String("channel", channel),
			zap.String("url", url),
			zap.ByteString("payload", body),
		)
		return
	}

	signature := d.sign(body)
	var lastErr error

	for attempt := 1; attempt <= callbackMaxAttempts; attempt++ {
		if err := d.post(ctx, url, body, signature); err == nil {
			d.logger.Info("Callback delivered",
				zap.String("channel", channel),
				zap.Int("attempt", attempt),
			)
			return
		} else {
			lastErr = err
			d.logger.Warn("Callback attempt failed",
				zap.String("channel", channel),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}

		if attempt < callbackMaxAttempts {
			d.sleep(backoffDelay(attempt))
		}
	}

	d.logger.Error("Callback delivery failed after all attempts",
		zap.String("channel", channel),
		zap.String("url", url),
		zap.Int("attempts", callbackMaxAttempts),
		zap.Error(lastErr),
	)
}

func (d *CallbackDispatcher) post(ctx context.Context, url string, body []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", callbackUserAgent)
	req.Header.Set(signatureHeader, signature)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

// sign computes the hex HMAC-SHA256 of the serialized payload.
func (d *CallbackDispatcher) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(d.secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// backoffDelay is the wait before retry n: min(1s * 2^(n-1), 10s).
func backoffDelay(attempt int) time.Duration {
	delay := time.Second << (attempt - 1)
	if delay > callbackMaxBackoff {
		return callbackMaxBackoff
	}
	return delay
}
