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

func TestCreatePayment(t *testing.T) {
	orderID := uuid.New()
	order := &models.Order{ID: orderID, GrandTotal: 12400, Currency: "EUR"}

	t.Run("defaults amount and currency from the order", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		paymentRepo := new(MockPaymentRepository)
		svc := NewPaymentService(paymentRepo, orderRepo, nil, zap.NewNop())

		orderRepo.On("FindByID", mock.Anything, orderID).Return(order, nil).Once()
		paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Payment")).Return(nil).Once()

		payment, err := svc.CreatePayment(context.Background(), &CreatePaymentRequest{
			OrderID:  orderID,
			Provider: models.ProviderStripe,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(12400), payment.Amount)
		assert.Equal(t, "EUR", payment.Currency)
		assert.Equal(t, models.PaymentStatusPending, payment.Status)
	})

	t.Run("unknown order is rejected", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		paymentRepo := new(MockPaymentRepository)
		svc := NewPaymentService(paymentRepo, orderRepo, nil, zap.NewNop())

		orderRepo.On("FindByID", mock.Anything, orderID).
			Return(nil, apperrors.NotFound("Order %s not found", orderID)).Once()

		_, err := svc.CreatePayment(context.Background(), &CreatePaymentRequest{
			OrderID:  orderID,
			Provider: models.ProviderStripe,
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		svc := NewPaymentService(new(MockPaymentRepository), new(MockOrderRepository), nil, zap.NewNop())

		_, err := svc.CreatePayment(context.Background(), &CreatePaymentRequest{
			OrderID:  orderID,
			Provider: models.ProviderStripe,
			Amount:   -100,
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestUpdatePaymentStatus(t *testing.T) {
	id := uuid.New()
	orderID := uuid.New()

	t.Run("publishes an event after the transition", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		producer := new(MockPaymentEventProducer)
		svc := NewPaymentService(paymentRepo, new(MockOrderRepository), producer, zap.NewNop())

		paymentRepo.On("TransitionStatus", mock.Anything, id, models.PaymentStatusSucceeded, "webhook:succeeded", "confirmed").
			Return(models.PaymentStatusPending, nil).Once()
		paymentRepo.On("FindByID", mock.Anything, id).
			Return(&models.Payment{ID: id, OrderID: orderID, Amount: 5000, Currency: "EUR"}, nil).Once()
		producer.On("SendPaymentEvent", mock.Anything, mock.MatchedBy(func(e models.PaymentEvent) bool {
			return e.Type == "payment_succeeded" && e.OrderID == orderID.String()
		})).Return(nil).Once()

		err := svc.UpdatePaymentStatus(context.Background(), id, models.PaymentStatusSucceeded, "webhook:succeeded", "confirmed")
		assert.NoError(t, err)
		producer.AssertExpectations(t)
	})

	t.Run("publish failure does not fail the update", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		producer := new(MockPaymentEventProducer)
		svc := NewPaymentService(paymentRepo, new(MockOrderRepository), producer, zap.NewNop())

		paymentRepo.On("TransitionStatus", mock.Anything, id, models.PaymentStatusFailed, "system", "").
			Return(models.PaymentStatusPending, nil).Once()
		paymentRepo.On("FindByID", mock.Anything, id).
			Return(&models.Payment{ID: id, OrderID: orderID}, nil).Once()
		producer.On("SendPaymentEvent", mock.Anything, mock.Anything).
			Return(assert.AnError).Once()

		err := svc.UpdatePaymentStatus(context.Background(), id, models.PaymentStatusFailed, "", "")
		assert.NoError(t, err)
	})

	t.Run("invalid transition skips publishing", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		producer := new(MockPaymentEventProducer)
		svc := NewPaymentService(paymentRepo, new(MockOrderRepository), producer, zap.NewNop())

		paymentRepo.On("TransitionStatus", mock.Anything, id, models.PaymentStatusPending, "system", "").
			Return(models.PaymentStatus(""), apperrors.InvalidTransition("succeeded", "pending")).Once()

		err := svc.UpdatePaymentStatus(context.Background(), id, models.PaymentStatusPending, "", "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		producer.AssertNotCalled(t, "SendPaymentEvent", mock.Anything, mock.Anything)
	})
}

func TestUpdatePayment(t *testing.T) {
	id := uuid.New()

	t.Run("refund bounded by payment amount", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		svc := NewPaymentService(paymentRepo, new(MockOrderRepository), nil, zap.NewNop())

		paymentRepo.On("FindByID", mock.Anything, id).
			Return(&models.Payment{ID: id, Amount: 5000}, nil).Once()

		tooMuch := int64(6000)
		_, err := svc.UpdatePayment(context.Background(), id, &UpdatePaymentRequest{RefundedAmount: &tooMuch})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		paymentRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("valid partial update", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		svc := NewPaymentService(paymentRepo, new(MockOrderRepository), nil, zap.NewNop())

		refund := int64(2000)
		updated := &models.Payment{ID: id, Amount: 5000, RefundedAmount: 2000}

		paymentRepo.On("FindByID", mock.Anything, id).
			Return(&models.Payment{ID: id, Amount: 5000}, nil).Once()
		paymentRepo.On("Update", mock.Anything, id, mock.MatchedBy(func(u repository.PaymentUpdate) bool {
			return u.RefundedAmount != nil && *u.RefundedAmount == 2000
		})).Return(nil).Once()
		paymentRepo.On("FindByID", mock.Anything, id).Return(updated, nil).Once()

		payment, err := svc.UpdatePayment(context.Background(), id, &UpdatePaymentRequest{RefundedAmount: &refund})
		require.NoError(t, err)
		assert.Equal(t, int64(2000), payment.RefundedAmount)
	})
}

func TestGetPaymentSummaryForOrder(t *testing.T) {
	orderID := uuid.New()
	orderRepo := new(MockOrderRepository)
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(paymentRepo, orderRepo, nil, zap.NewNop())

	orderRepo.On("FindByID", mock.Anything, orderID).
		Return(&models.Order{ID: orderID, GrandTotal: 12400}, nil).Once()
	paymentRepo.On("FindByOrderID", mock.Anything, orderID).
		Return([]models.Payment{
			{Status: models.PaymentStatusSucceeded, Amount: 6000},
			{Status: models.PaymentStatusSucceeded, Amount: 6400},
		}, nil).Once()

	summary, payments, err := svc.GetPaymentSummaryForOrder(context.Background(), orderID)
	require.NoError(t, err)

	assert.Len(t, payments, 2)
	assert.Equal(t, int64(12400), summary.TotalPaid)
	assert.Equal(t, int64(0), summary.RemainingAmount)
}
