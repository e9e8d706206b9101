package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"order-hub/apperrors"
	"order-hub/models"
	"order-hub/repository"
)

type webhookFixture struct {
	orderRepo   *MockOrderRepository
	paymentRepo *MockPaymentRepository
	svc         *WebhookService
}

// The policy defaults every channel to shadow mode, so the fire-and-forget
// callback goroutine exits at the policy gate.
func newWebhookFixture() *webhookFixture {
	orderRepo := new(MockOrderRepository)
	paymentRepo := new(MockPaymentRepository)

	channelRepo := new(MockChannelConfigRepository)
	channelRepo.On("Find", mock.Anything, mock.Anything).Return(nil, nil)
	policy := NewChannelPolicyService(channelRepo, nil, zap.NewNop())

	orderSvc := NewOrderService(orderRepo, paymentRepo, zap.NewNop())
	paymentSvc := NewPaymentService(paymentRepo, orderRepo, nil, zap.NewNop())
	dispatcher := NewCallbackDispatcher(policy, func(string) string { return "" }, "secret", false, zap.NewNop())

	return &webhookFixture{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		svc:         NewWebhookService(orderSvc, paymentSvc, policy, dispatcher, zap.NewNop()),
	}
}

func TestProcessProviderEvent_SucceededFullyPaysOrder(t *testing.T) {
	f := newWebhookFixture()

	orderID := uuid.New()
	paymentID := uuid.New()
	ref := "pi_123"

	pending := &models.Order{ID: orderID, Source: "shopify", Status: models.OrderStatusPending, GrandTotal: 12400, Currency: "EUR"}
	payment := &models.Payment{ID: paymentID, OrderID: orderID, ProviderReference: &ref, Amount: 12400, Status: models.PaymentStatusProcessing}
	succeeded := &models.Payment{ID: paymentID, OrderID: orderID, ProviderReference: &ref, Amount: 12400, Status: models.PaymentStatusSucceeded}

	f.paymentRepo.On("FindByProviderReference", mock.Anything, "pi_123").Return(payment, nil).Once()
	f.orderRepo.On("FindByID", mock.Anything, orderID).Return(pending, nil)

	f.paymentRepo.On("TransitionStatus", mock.Anything, paymentID, models.PaymentStatusSucceeded, "webhook:succeeded", "Payment succeeded via provider event").
		Return(models.PaymentStatusProcessing, nil).Once()
	f.paymentRepo.On("FindByID", mock.Anything, paymentID).Return(succeeded, nil)
	f.paymentRepo.On("FindByOrderID", mock.Anything, orderID).Return([]models.Payment{*succeeded}, nil).Once()

	// Fully paid while still pending: confirm first, then mark paid.
	f.orderRepo.On("TransitionStatus", mock.Anything, orderID, models.OrderStatusConfirmed, "webhook:succeeded", "Auto-confirm on successful payment").
		Return(models.OrderStatusPending, nil).Once()
	f.orderRepo.On("TransitionStatus", mock.Anything, orderID, models.OrderStatusPaid, "webhook:succeeded", "Order fully paid").
		Return(models.OrderStatusConfirmed, nil).Once()

	err := f.svc.ProcessProviderEvent(context.Background(), &ProviderEvent{
		EventType:         EventSucceeded,
		ProviderReference: "pi_123",
	}, "")
	require.NoError(t, err)
	f.orderRepo.AssertExpectations(t)
	f.paymentRepo.AssertExpectations(t)
}

func TestProcessProviderEvent_PartialPaymentLeavesOrderPending(t *testing.T) {
	f := newWebhookFixture()

	orderID := uuid.New()
	paymentID := uuid.New()
	ref := "pi_partial"

	pending := &models.Order{ID: orderID, Source: "shopify", Status: models.OrderStatusPending, GrandTotal: 12400}
	payment := &models.Payment{ID: paymentID, OrderID: orderID, ProviderReference: &ref, Amount: 6000, Status: models.PaymentStatusPending}
	succeeded := &models.Payment{ID: paymentID, OrderID: orderID, ProviderReference: &ref, Amount: 6000, Status: models.PaymentStatusSucceeded}

	f.paymentRepo.On("FindByProviderReference", mock.Anything, "pi_partial").Return(payment, nil).Once()
	f.orderRepo.On("FindByID", mock.Anything, orderID).Return(pending, nil)
	f.paymentRepo.On("TransitionStatus", mock.Anything, paymentID, models.PaymentStatusSucceeded, mock.Anything, mock.Anything).
		Return(models.PaymentStatusPending, nil).Once()
	f.paymentRepo.On("FindByID", mock.Anything, paymentID).Return(succeeded, nil)
	f.paymentRepo.On("FindByOrderID", mock.Anything, orderID).Return([]models.Payment{*succeeded}, nil).Once()

	err := f.svc.ProcessProviderEvent(context.Background(), &ProviderEvent{
		EventType:         EventSucceeded,
		ProviderReference: "pi_partial",
	}, "")
	require.NoError(t, err)

	// 6000 of 12400 paid: no order transition may fire.
	f.orderRepo.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessProviderEvent_FailedRecordsFailure(t *testing.T) {
	f := newWebhookFixture()

	orderID := uuid.New()
	paymentID := uuid.New()
	ref := "pi_fail"

	order := &models.Order{ID: orderID, Source: "shopify", Status: models.OrderStatusPending, GrandTotal: 12400}
	payment := &models.Payment{ID: paymentID, OrderID: orderID, ProviderReference: &ref, Amount: 12400, Status: models.PaymentStatusProcessing}

	f.paymentRepo.On("FindByProviderReference", mock.Anything, "pi_fail").Return(payment, nil).Once()
	f.orderRepo.On("FindByID", mock.Anything, orderID).Return(order, nil)
	f.paymentRepo.On("TransitionStatus", mock.Anything, paymentID, models.PaymentStatusFailed, "webhook:failed", "Payment failed via provider event").
		Return(models.PaymentStatusProcessing, nil).Once()
	f.paymentRepo.On("FindByID", mock.Anything, paymentID).Return(payment, nil)
	f.paymentRepo.On("Update", mock.Anything, paymentID, mock.MatchedBy(func(u repository.PaymentUpdate) bool {
		return u.FailureCode != nil && *u.FailureCode == "payment_failed" &&
			u.FailureMessage != nil && *u.FailureMessage == "Payment failed"
	})).Return(nil).Once()

	err := f.svc.ProcessProviderEvent(context.Background(), &ProviderEvent{
		EventType:         EventFailed,
		ProviderReference: "pi_fail",
	}, "")
	require.NoError(t, err)
	f.orderRepo.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessProviderEvent_UnknownReference(t *testing.T) {
	f := newWebhookFixture()

	f.paymentRepo.On("FindByProviderReference", mock.Anything, "pi_missing").
		Return(nil, apperrors.NotFound("Payment with provider reference pi_missing not found")).Once()

	err := f.svc.ProcessProviderEvent(context.Background(), &ProviderEvent{
		EventType:         EventSucceeded,
		ProviderReference: "pi_missing",
	}, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProcessProviderEvent_ScopedToOrder(t *testing.T) {
	f := newWebhookFixture()

	orderID := uuid.New()
	ref := "pi_scoped"
	otherRef := "pi_other"
	payments := []models.Payment{
		{ID: uuid.New(), OrderID: orderID, ProviderReference: &otherRef, Status: models.PaymentStatusPending},
	}

	f.paymentRepo.On("FindByOrderID", mock.Anything, orderID).Return(payments, nil).Once()

	err := f.svc.ProcessProviderEvent(context.Background(), &ProviderEvent{
		EventType:         EventSucceeded,
		ProviderReference: ref,
		OrderID:           &orderID,
	}, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProcessProviderEvent_UnsupportedEventType(t *testing.T) {
	f := newWebhookFixture()

	orderID := uuid.New()
	paymentID := uuid.New()
	ref := "pi_evt"
	payment := &models.Payment{ID: paymentID, OrderID: orderID, ProviderReference: &ref}

	f.paymentRepo.On("FindByProviderReference", mock.Anything, "pi_evt").Return(payment, nil).Once()
	f.orderRepo.On("FindByID", mock.Anything, orderID).
		Return(&models.Order{ID: orderID, Source: "shopify"}, nil)

	err := f.svc.ProcessProviderEvent(context.Background(), &ProviderEvent{
		EventType:         "chargeback",
		ProviderReference: "pi_evt",
	}, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
