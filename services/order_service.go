package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"order-hub/apperrors"
	"order-hub/models"
	"order-hub/repository"
)

// CreateOrderItemInput is one line item of an order creation request.
type CreateOrderItemInput struct {
	Name        string         `json:"name" binding:"required"`
	SKU         string         `json:"sku"`
	Description string         `json:"description"`
	Quantity    int            `json:"quantity" binding:"required"`
	UnitPrice   int64          `json:"unit_price"`
	TaxRate     float64        `json:"tax_rate"`
	Metadata    models.JSONMap `json:"metadata"`
}

// CreateOrderRequest is the order creation input from any channel.
type CreateOrderRequest struct {
	CustomerID    *uuid.UUID             `json:"customer_id"`
	Source        string                 `json:"source" binding:"required"`
	SourceOrderID string                 `json:"source_order_id" binding:"required"`
	Currency      string                 `json:"currency"`
	Items         []CreateOrderItemInput `json:"items" binding:"required"`
	ShippingTotal int64                  `json:"shipping_total"`
	DiscountTotal int64                  `json:"discount_total"`
	Metadata      models.JSONMap         `json:"metadata"`
}

// OrderWithPayments is the reconciliation view of one order.
type OrderWithPayments struct {
	models.Order
	Payments       []models.Payment      `json:"payments"`
	PaymentSummary models.PaymentSummary `json:"payment_summary"`
}

type OrderService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	logger      *zap.Logger
}

func NewOrderService(orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// CreateOrder validates the request, computes totals and inserts the order
// with its items atomically. Creation is idempotent on
// (source, source_order_id): a second request for the same key returns the
// existing order unchanged, whatever its payload.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	existing, err := s.orderRepo.FindBySourceWithItems(ctx, req.Source, req.SourceOrderID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("Order already exists, returning existing",
			zap.String("source", req.Source),
			zap.String("source_order_id", req.SourceOrderID),
			zap.String("order_id", existing.ID.String()),
		)
		return existing, nil
	}

	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, in := range req.Items {
		totalPrice, taxAmount := models.ItemTotals(in.Quantity, in.UnitPrice, in.TaxRate)
		items = append(items, models.OrderItem{
			Name:        in.Name,
			SKU:         in.SKU,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
			TotalPrice:  totalPrice,
			TaxAmount:   taxAmount,
			Metadata:    in.Metadata,
		})
	}

	totals := models.CalculateOrderTotals(items, req.ShippingTotal, req.DiscountTotal)

	order := &models.Order{
		CustomerID:    req.CustomerID,
		Source:        req.Source,
		SourceOrderID: req.SourceOrderID,
		Status:        models.OrderStatusPending,
		Currency:      currency,
		Subtotal:      totals.Subtotal,
		TaxTotal:      totals.TaxTotal,
		ShippingTotal: totals.ShippingTotal,
		DiscountTotal: totals.DiscountTotal,
		GrandTotal:    totals.GrandTotal,
		Metadata:      req.Metadata,
	}

	if err := s.orderRepo.CreateWithItems(ctx, order, items); err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("source", order.Source),
		zap.Int64("grand_total", order.GrandTotal),
	)
	return order, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

func (s *OrderService) GetOrderByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.orderRepo.FindByIDWithItems(ctx, id)
}

func (s *OrderService) GetOrderBySource(ctx context.Context, source, sourceOrderID string) (*models.Order, error) {
	return s.orderRepo.FindBySourceWithItems(ctx, source, sourceOrderID)
}

// GetOrderWithPayments returns the order, its items, its full payment set
// and a freshly computed payment summary.
func (s *OrderService) GetOrderWithPayments(ctx context.Context, id uuid.UUID) (*OrderWithPayments, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.FindByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &OrderWithPayments{
		Order:          *order,
		Payments:       payments,
		PaymentSummary: models.ComputePaymentSummary(order, payments),
	}, nil
}

// UpdateOrderStatus applies a status transition. The transition check runs
// against the latest persisted state inside the repository transaction;
// history is recorded only when a reason is supplied.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, newStatus models.OrderStatus, changedBy, reason string) error {
	if changedBy == "" {
		changedBy = "system"
	}
	old, err := s.orderRepo.TransitionStatus(ctx, id, newStatus, changedBy, reason)
	if err != nil {
		return err
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", id.String()),
		zap.String("old_status", string(old)),
		zap.String("new_status", string(newStatus)),
		zap.String("changed_by", changedBy),
	)
	return nil
}

func (s *OrderService) UpdateOrderMetadata(ctx context.Context, id uuid.UUID, metadata models.JSONMap) error {
	return s.orderRepo.UpdateMetadata(ctx, id, metadata)
}

func (s *OrderService) GetOrdersByStatus(ctx context.Context, status models.OrderStatus, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.orderRepo.FindByStatus(ctx, status, limit)
}

func (s *OrderService) GetOrderHistory(ctx context.Context, id uuid.UUID) ([]models.OrderStatusHistory, error) {
	return s.orderRepo.History(ctx, id)
}

func validateCreateOrder(req *CreateOrderRequest) error {
	if req.Source == "" {
		return apperrors.Validation("Order source is required")
	}
	if req.SourceOrderID == "" {
		return apperrors.Validation("Source order ID is required")
	}
	if len(req.Items) == 0 {
		return apperrors.Validation("Order must have at least one item")
	}
	for _, item := range req.Items {
		if item.Name == "" {
			return apperrors.Validation("Item name is required")
		}
		if item.Quantity <= 0 {
			return apperrors.Validation("Item quantity must be greater than 0")
		}
		if item.UnitPrice < 0 {
			return apperrors.Validation("Item unit price cannot be negative")
		}
	}
	if req.ShippingTotal < 0 {
		return apperrors.Validation("Shipping total cannot be negative")
	}
	if req.DiscountTotal < 0 {
		return apperrors.Validation("Discount total cannot be negative")
	}
	return nil
}
