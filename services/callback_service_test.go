package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"order-hub/models"
)

func activePolicyService(channel string) *ChannelPolicyService {
	repo := new(MockChannelConfigRepository)
	repo.On("Find", mock.Anything, channel).Return(&models.ChannelConfig{
		Channel:         channel,
		UsePaymentHub:   true,
		ShadowMode:      false,
		CallbackEnabled: true,
	}, nil)
	return NewChannelPolicyService(repo, nil, zap.NewNop())
}

func shadowPolicyService(channel string) *ChannelPolicyService {
	repo := new(MockChannelConfigRepository)
	repo.On("Find", mock.Anything, channel).Return(nil, nil)
	return NewChannelPolicyService(repo, nil, zap.NewNop())
}

func testOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		Source:        "shopify",
		SourceOrderID: "SH-1001",
		Status:        models.OrderStatusPaid,
	}
}

func TestSendOrderCallback_Delivers(t *testing.T) {
	var received atomic.Int32
	var gotSignature string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		gotSignature = r.Header.Get("X-Order-Hub-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, "OrderHub/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewCallbackDispatcher(
		activePolicyService("shopify"),
		func(string) string { return server.URL },
		"callback-secret",
		false,
		zap.NewNop(),
	)
	d.sleep = func(time.Duration) { t.Fatal("no retry expected on success") }

	order := testOrder()
	payment := &models.Payment{
		ID:       uuid.New(),
		Provider: models.ProviderStripe,
		Status:   models.PaymentStatusSucceeded,
		Amount:   12400,
	}
	d.SendOrderCallback(context.Background(), order, payment)

	require.Equal(t, int32(1), received.Load())

	mac := hmac.New(sha256.New, []byte("callback-secret"))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSignature)

	var payload CallbackPayload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, order.ID.String(), payload.OrderID)
	assert.Equal(t, "paid", payload.Status)
	require.NotNil(t, payload.Payment)
	assert.Equal(t, int64(12400), payload.Payment.Amount)
}

func TestSendOrderCallback_RetriesWithBackoff(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var delays []time.Duration
	d := NewCallbackDispatcher(
		activePolicyService("shopify"),
		func(string) string { return server.URL },
		"callback-secret",
		false,
		zap.NewNop(),
	)
	d.sleep = func(delay time.Duration) { delays = append(delays, delay) }

	d.SendOrderCallback(context.Background(), testOrder(), nil)

	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays)
}

func TestSendOrderCallback_RecoversMidRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewCallbackDispatcher(
		activePolicyService("shopify"),
		func(string) string { return server.URL },
		"callback-secret",
		false,
		zap.NewNop(),
	)
	d.sleep = func(time.Duration) {}

	d.SendOrderCallback(context.Background(), testOrder(), nil)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestSendOrderCallback_ShadowModeSkips(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no delivery expected in shadow mode")
	}))
	defer server.Close()

	d := NewCallbackDispatcher(
		shadowPolicyService("shopify"),
		func(string) string { return server.URL },
		"callback-secret",
		false,
		zap.NewNop(),
	)

	d.SendOrderCallback(context.Background(), testOrder(), nil)
}

func TestSendOrderCallback_SandboxSuppressesDelivery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no delivery expected in sandbox mode")
	}))
	defer server.Close()

	d := NewCallbackDispatcher(
		activePolicyService("shopify"),
		func(string) string { return server.URL },
		"callback-secret",
		true,
		zap.NewNop(),
	)

	d.SendOrderCallback(context.Background(), testOrder(), nil)
}

func TestSendOrderCallback_NoURLConfigured(t *testing.T) {
	d := NewCallbackDispatcher(
		activePolicyService("shopify"),
		func(string) string { return "" },
		"callback-secret",
		false,
		zap.NewNop(),
	)

	// Must return without panicking or retrying.
	d.SendOrderCallback(context.Background(), testOrder(), nil)
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, 1*time.Second, backoffDelay(1))
	assert.Equal(t, 2*time.Second, backoffDelay(2))
	assert.Equal(t, 4*time.Second, backoffDelay(3))
	assert.Equal(t, 8*time.Second, backoffDelay(4))
	assert.Equal(t, 10*time.Second, backoffDelay(5))
	assert.Equal(t, 10*time.Second, backoffDelay(10))
}
