package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"order-hub/apperrors"
	"order-hub/models"
)

// ProviderEvent is a verified payment-provider event. Signature
// verification is the collaborator's responsibility; the hub only requires
// the provider-assigned reference.
type ProviderEvent struct {
	EventType         string     `json:"event_type" binding:"required"`
	ProviderReference string     `json:"provider_reference" binding:"required"`
	Amount            int64      `json:"amount"`
	Currency          string     `json:"currency"`
	OrderID           *uuid.UUID `json:"order_id"`
}

const (
	EventSucceeded = "succeeded"
	EventFailed    = "failed"
	EventCanceled  = "canceled"
)

// WebhookService turns provider events into payment and order state
// changes: it updates the payment, recomputes the reconciliation summary,
// auto-transitions fully-paid orders, and hands approved status changes to
// the callback dispatcher.
type WebhookService struct {
	orderSvc   *OrderService
	paymentSvc *PaymentService
	policy     *ChannelPolicyService
	dispatcher *CallbackDispatcher
	logger     *zap.Logger
}

func NewWebhookService(orderSvc *OrderService, paymentSvc *PaymentService, policy *ChannelPolicyService, dispatcher *CallbackDispatcher, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		orderSvc:   orderSvc,
		paymentSvc: paymentSvc,
		policy:     policy,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ProcessProviderEvent applies one verified provider event. Shadow-mode
// channels still get their hub-internal state updated; only callbacks are
// suppressed (by the dispatcher's policy gate).
func (s *WebhookService) ProcessProviderEvent(ctx context.Context, event *ProviderEvent, changedBy string) error {
	if changedBy == "" {
		changedBy = "webhook:" + event.EventType
	}

	payment, err := s.findPayment(ctx, event)
	if err != nil {
		return err
	}

	order, err := s.orderSvc.GetOrderByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}

	s.logger.Info("Processing provider event",
		zap.String("event_type", event.EventType),
		zap.String("provider_reference", event.ProviderReference),
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_id", order.ID.String()),
		zap.Bool("shadow_mode", s.policy.IsShadowMode(ctx, order.Source)),
	)

	switch event.EventType {
	case EventSucceeded:
		return s.handleSucceeded(ctx, payment, order, changedBy)
	case EventFailed:
		return s.handleFailed(ctx, payment, changedBy)
	case EventCanceled:
		return s.handleCanceled(ctx, payment, order, changedBy)
	default:
		return apperrors.Validation("Unsupported event type: %s", event.EventType)
	}
}

func (s *WebhookService) findPayment(ctx context.Context, event *ProviderEvent) (*models.Payment, error) {
	if event.OrderID != nil {
		payments, err := s.paymentSvc.GetPaymentsByOrderID(ctx, *event.OrderID)
		if err != nil {
			return nil, err
		}
		for i := range payments {
			ref := payments[i].ProviderReference
			if ref != nil && *ref == event.ProviderReference {
				return &payments[i], nil
			}
		}
		return nil, apperrors.NotFound("Payment with provider reference %s not found for order %s", event.ProviderReference, event.OrderID)
	}
	return s.paymentSvc.paymentRepo.FindByProviderReference(ctx, event.ProviderReference)
}

func (s *WebhookService) handleSucceeded(ctx context.Context, payment *models.Payment, order *models.Order, changedBy string) error {
	if err := s.paymentSvc.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusSucceeded, changedBy, "Payment succeeded via provider event"); err != nil {
		return err
	}

	updated, err := s.paymentSvc.GetPaymentByID(ctx, payment.ID)
	if err != nil {
		return err
	}

	if err := s.reconcileOrder(ctx, order, changedBy); err != nil {
		return err
	}

	// Reload for the callback so it carries the post-transition status.
	order, err = s.orderSvc.GetOrderByID(ctx, order.ID)
	if err != nil {
		return err
	}

	// Fire and forget: delivery failure must never affect the state change.
	go s.dispatcher.SendOrderCallback(context.WithoutCancel(ctx), order, updated)
	return nil
}

func (s *WebhookService) handleFailed(ctx context.Context, payment *models.Payment, changedBy string) error {
	if err := s.paymentSvc.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusFailed, changedBy, "Payment failed via provider event"); err != nil {
		return err
	}

	code := "payment_failed"
	message := "Payment failed"
	_, err := s.paymentSvc.UpdatePayment(ctx, payment.ID, &UpdatePaymentRequest{
		FailureCode:    &code,
		FailureMessage: &message,
	})
	return err
}

func (s *WebhookService) handleCanceled(ctx context.Context, payment *models.Payment, order *models.Order, changedBy string) error {
	if err := s.paymentSvc.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusCancelled, changedBy, "Payment canceled via provider event"); err != nil {
		return err
	}

	updated, err := s.paymentSvc.GetPaymentByID(ctx, payment.ID)
	if err != nil {
		return err
	}

	go s.dispatcher.SendOrderCallback(context.WithoutCancel(ctx), order, updated)
	return nil
}

// reconcileOrder recomputes the payment summary and auto-transitions the
// order to paid when total_paid covers grand_total. A still-pending order is
// confirmed first so the transition table is honored step by step.
func (s *WebhookService) reconcileOrder(ctx context.Context, order *models.Order, changedBy string) error {
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusConfirmed {
		return nil
	}

	summary, _, err := s.paymentSvc.GetPaymentSummaryForOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if summary.TotalPaid < order.GrandTotal {
		return nil
	}

	if order.Status == models.OrderStatusPending {
		if err := s.orderSvc.UpdateOrderStatus(ctx, order.ID, models.OrderStatusConfirmed, changedBy, "Auto-confirm on successful payment"); err != nil {
			return err
		}
	}
	return s.orderSvc.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPaid, changedBy, "Order fully paid")
}
