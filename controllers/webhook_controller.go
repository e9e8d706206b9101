package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"

	"order-hub/apperrors"
	"order-hub/services"
)

type WebhookController struct {
	webhookService   *services.WebhookService
	simulatorService *services.WebhookSimulatorService
	stripeService    *services.StripeService
}

func NewWebhookController(webhookService *services.WebhookService, simulatorService *services.WebhookSimulatorService, stripeService *services.StripeService) *WebhookController {
	return &WebhookController{
		webhookService:   webhookService,
		simulatorService: simulatorService,
		stripeService:    stripeService,
	}
}

// HandleProviderEvent ingests a normalized provider event. Authenticity of
// the upstream notification is the caller's responsibility.
func (wc *WebhookController) HandleProviderEvent(ctx *gin.Context) {
	var event services.ProviderEvent
	if err := ctx.ShouldBindJSON(&event); err != nil {
		ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return
	}

	if err := wc.webhookService.ProcessProviderEvent(ctx.Request.Context(), &event, ""); err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"processed": true}})
}

// HandleStripeWebhook verifies the Stripe signature and translates
// payment_intent events into the normalized form.
func (wc *WebhookController) HandleStripeWebhook(ctx *gin.Context) {
	event, err := wc.stripeService.ParseWebhook(ctx.Request)
	if err != nil {
		ctx.Error(apperrors.Validation("Webhook signature verification failed: %v", err))
		return
	}

	providerEvent, ok := translateStripeEvent(event)
	if !ok {
		// Unhandled event types are acknowledged so Stripe stops retrying.
		ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"ignored": string(event.Type)}})
		return
	}

	if err := wc.webhookService.ProcessProviderEvent(ctx.Request.Context(), providerEvent, "webhook:stripe"); err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"processed": true}})
}

// HandleSimulateWebhook replays a synthetic provider event through the same
// pipeline as real webhooks. Only available in sandbox mode.
func (wc *WebhookController) HandleSimulateWebhook(ctx *gin.Context) {
	var req services.SimulateWebhookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return
	}

	if err := wc.simulatorService.SimulateProviderWebhook(ctx.Request.Context(), &req); err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"simulated": true}})
}

func translateStripeEvent(event stripe.Event) (*services.ProviderEvent, bool) {
	var eventType string
	switch event.Type {
	case "payment_intent.succeeded":
		eventType = services.EventSucceeded
	case "payment_intent.payment_failed":
		eventType = services.EventFailed
	case "payment_intent.canceled":
		eventType = services.EventCanceled
	default:
		return nil, false
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, false
	}

	return &services.ProviderEvent{
		EventType:         eventType,
		ProviderReference: intent.ID,
		Amount:            intent.Amount,
		Currency:          string(intent.Currency),
	}, true
}
