package services

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/account"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeService wraps the pieces of the Stripe SDK the hub needs: webhook
// signature verification for the ingestion endpoint and an account fetch
// for credential connectivity tests.
type StripeService struct {
	WebhookKey string
}

func NewStripeService(webhookKey string) *StripeService {
	return &StripeService{WebhookKey: webhookKey}
}

// ParseWebhook verifies the Stripe-Signature header and returns the event.
func (s *StripeService) ParseWebhook(r *http.Request) (stripe.Event, error) {
	var event stripe.Event
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return event, err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(payload))
	sigHeader := r.Header.Get("Stripe-Signature")
	return webhook.ConstructEvent(payload, sigHeader, s.WebhookKey)
}

// TestConnection fetches the account for the given API key.
func (s *StripeService) TestConnection(apiKey string) (accountID, mode string, err error) {
	ac := &account.Client{B: stripe.GetBackend(stripe.APIBackend), Key: apiKey}
	acct, err := ac.Get()
	if err != nil {
		return "", "", err
	}

	mode = "test"
	if strings.HasPrefix(apiKey, "sk_live") {
		mode = "live"
	}
	return acct.ID, mode, nil
}
