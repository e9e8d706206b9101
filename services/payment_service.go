package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"order-hub/apperrors"
	"order-hub/kafka"
	"order-hub/models"
	"order-hub/repository"
)

// CreatePaymentRequest registers a channel's intent to pay an order.
// Amount and currency default to the order's grand total and currency.
type CreatePaymentRequest struct {
	OrderID           uuid.UUID              `json:"order_id" binding:"required"`
	Provider          models.PaymentProvider `json:"provider" binding:"required"`
	ProviderReference *string                `json:"provider_reference"`
	PaymentMethod     string                 `json:"payment_method"`
	Amount            int64                  `json:"amount"`
	Currency          string                 `json:"currency"`
	Metadata          models.JSONMap         `json:"metadata"`
}

// UpdatePaymentRequest carries partial payment updates.
type UpdatePaymentRequest struct {
	ProviderReference *string `json:"provider_reference"`
	PaymentMethod     *string `json:"payment_method"`
	RefundedAmount    *int64  `json:"refunded_amount"`
	FailureCode       *string `json:"failure_code"`
	FailureMessage    *string `json:"failure_message"`
}

type PaymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	producer    kafka.ProducerAPI
	logger      *zap.Logger
}

func NewPaymentService(paymentRepo repository.PaymentRepository, orderRepo repository.OrderRepository, producer kafka.ProducerAPI, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		producer:    producer,
		logger:      logger,
	}
}

// CreatePayment validates the request against the referenced order and
// inserts the payment. Multiple payments per order are permitted.
func (s *PaymentService) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*models.Payment, error) {
	if req.Provider == "" {
		return nil, apperrors.Validation("provider is required")
	}
	if req.Amount < 0 {
		return nil, apperrors.Validation("amount must be greater than 0")
	}

	order, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount == 0 {
		amount = order.GrandTotal
	}
	currency := req.Currency
	if currency == "" {
		currency = order.Currency
	}

	payment := &models.Payment{
		OrderID:           order.ID,
		Provider:          req.Provider,
		ProviderReference: req.ProviderReference,
		PaymentMethod:     req.PaymentMethod,
		Status:            models.PaymentStatusPending,
		Amount:            amount,
		Currency:          currency,
		Metadata:          req.Metadata,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("Payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("provider", string(payment.Provider)),
		zap.Int64("amount", payment.Amount),
	)
	return payment, nil
}

func (s *PaymentService) GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return s.paymentRepo.FindByID(ctx, id)
}

func (s *PaymentService) GetPaymentsByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	return s.paymentRepo.FindByOrderID(ctx, orderID)
}

func (s *PaymentService) GetPaymentsByStatus(ctx context.Context, status models.PaymentStatus, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.paymentRepo.FindByStatus(ctx, status, limit)
}

func (s *PaymentService) GetPaymentHistory(ctx context.Context, id uuid.UUID) ([]models.PaymentStatusHistory, error) {
	return s.paymentRepo.History(ctx, id)
}

// UpdatePaymentStatus applies a status transition under the repository's
// row lock. A transition to succeeded stamps completed_at. The resulting
// event is published best-effort; publish failures never undo the change.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, newStatus models.PaymentStatus, changedBy, reason string) error {
	if changedBy == "" {
		changedBy = "system"
	}
	old, err := s.paymentRepo.TransitionStatus(ctx, id, newStatus, changedBy, reason)
	if err != nil {
		return err
	}

	s.logger.Info("Payment status updated",
		zap.String("payment_id", id.String()),
		zap.String("old_status", string(old)),
		zap.String("new_status", string(newStatus)),
		zap.String("changed_by", changedBy),
	)

	s.publishPaymentEvent(ctx, id, newStatus)
	return nil
}

// UpdatePayment applies partial field updates. Refund amounts are bounded
// by the payment amount.
func (s *PaymentService) UpdatePayment(ctx context.Context, id uuid.UUID, req *UpdatePaymentRequest) (*models.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RefundedAmount != nil {
		if *req.RefundedAmount < 0 {
			return nil, apperrors.Validation("refunded_amount cannot be negative")
		}
		if *req.RefundedAmount > payment.Amount {
			return nil, apperrors.Validation("refunded_amount cannot exceed payment amount")
		}
	}

	update := repository.PaymentUpdate{
		ProviderReference: req.ProviderReference,
		PaymentMethod:     req.PaymentMethod,
		RefundedAmount:    req.RefundedAmount,
		FailureCode:       req.FailureCode,
		FailureMessage:    req.FailureMessage,
	}
	if err := s.paymentRepo.Update(ctx, id, update); err != nil {
		return nil, err
	}

	return s.paymentRepo.FindByID(ctx, id)
}

// GetPaymentSummaryForOrder recomputes the reconciliation summary for an
// order from its full payment set.
func (s *PaymentService) GetPaymentSummaryForOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentSummary, []models.Payment, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.paymentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	summary := models.ComputePaymentSummary(order, payments)
	return &summary, payments, nil
}

func (s *PaymentService) publishPaymentEvent(ctx context.Context, id uuid.UUID, status models.PaymentStatus) {
	if s.producer == nil {
		return
	}
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("Skipping payment event publish, payment reload failed",
			zap.String("payment_id", id.String()),
			zap.Error(err),
		)
		return
	}
	event := models.PaymentEvent{
		Type:      "payment_" + string(status),
		OrderID:   payment.OrderID.String(),
		PaymentID: payment.ID.String(),
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Timestamp: time.Now().UTC(),
	}
	// Best effort: a publish failure is logged by the producer and must
	// never roll back the status change.
	_ = s.producer.SendPaymentEvent(ctx, event)
}
