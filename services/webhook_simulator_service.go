package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"order-hub/apperrors"
)

// SimulateWebhookRequest synthesizes a provider event for an existing
// payment. Only available in sandbox mode.
type SimulateWebhookRequest struct {
	PaymentID uuid.UUID `json:"payment_id" binding:"required"`
	EventType string    `json:"event_type" binding:"required"`
	DelayMs   int       `json:"delay_ms"`
}

// WebhookSimulatorService drives the payment flow end to end without a real
// provider connection.
type WebhookSimulatorService struct {
	webhookSvc *WebhookService
	paymentSvc *PaymentService
	sandbox    bool
	logger     *zap.Logger
}

func NewWebhookSimulatorService(webhookSvc *WebhookService, paymentSvc *PaymentService, sandbox bool, logger *zap.Logger) *WebhookSimulatorService {
	return &WebhookSimulatorService{
		webhookSvc: webhookSvc,
		paymentSvc: paymentSvc,
		sandbox:    sandbox,
		logger:     logger,
	}
}

// SimulateProviderWebhook replays the given event type through the normal
// webhook processing path. Rejected outside sandbox mode.
func (s *WebhookSimulatorService) SimulateProviderWebhook(ctx context.Context, req *SimulateWebhookRequest) error {
	if !s.sandbox {
		return apperrors.Validation("Webhook simulation is only available in sandbox mode")
	}

	switch req.EventType {
	case EventSucceeded, EventFailed, EventCanceled:
	default:
		return apperrors.Validation("Unsupported event type: %s", req.EventType)
	}

	payment, err := s.paymentSvc.GetPaymentByID(ctx, req.PaymentID)
	if err != nil {
		return err
	}
	if payment.ProviderReference == nil || *payment.ProviderReference == "" {
		return apperrors.Validation("Payment %s has no provider_reference", req.PaymentID)
	}

	if req.DelayMs > 0 {
		time.Sleep(time.Duration(req.DelayMs) * time.Millisecond)
	}

	s.logger.Info("[SANDBOX] Simulating provider webhook",
		zap.String("event_type", req.EventType),
		zap.String("payment_id", req.PaymentID.String()),
	)

	return s.webhookSvc.ProcessProviderEvent(ctx, &ProviderEvent{
		EventType:         req.EventType,
		ProviderReference: *payment.ProviderReference,
		Amount:            payment.Amount,
		Currency:          payment.Currency,
		OrderID:           &payment.OrderID,
	}, "simulator")
}
