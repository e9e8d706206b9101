package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"order-hub/apperrors"
	"order-hub/models"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindBySource(ctx context.Context, source, sourceOrderID string) (*models.Order, error)
	FindBySourceWithItems(ctx context.Context, source, sourceOrderID string) (*models.Order, error)
	FindByStatus(ctx context.Context, status models.OrderStatus, limit int) ([]models.Order, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, next models.OrderStatus, changedBy, reason string) (models.OrderStatus, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata models.JSONMap) error
	History(ctx context.Context, id uuid.UUID) ([]models.OrderStatusHistory, error)
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// CreateWithItems inserts the order row and its item rows in one
// transaction; either everything lands or nothing does.
func (r *GormOrderRepository) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.Items = items
		return nil
	})
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translateNotFound(err, "Order %s not found", id)
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, translateNotFound(err, "Order %s not found", id)
	}
	return &order, nil
}

func (r *GormOrderRepository) FindBySource(ctx context.Context, source, sourceOrderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("source = ? AND source_order_id = ?", source, sourceOrderID).
		First(&order).Error; err != nil {
		return nil, translateNotFound(err, "Order %s/%s not found", source, sourceOrderID)
	}
	return &order, nil
}

func (r *GormOrderRepository) FindBySourceWithItems(ctx context.Context, source, sourceOrderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("source = ? AND source_order_id = ?", source, sourceOrderID).
		First(&order).Error; err != nil {
		return nil, translateNotFound(err, "Order %s/%s not found", source, sourceOrderID)
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByStatus(ctx context.Context, status models.OrderStatus, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// TransitionStatus applies a status change under a row lock so the
// transition check always runs against the latest persisted state. History
// is written in the same transaction, and only when a reason is supplied.
func (r *GormOrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, next models.OrderStatus, changedBy, reason string) (models.OrderStatus, error) {
	var old models.OrderStatus

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&order).Error; err != nil {
			return translateNotFound(err, "Order %s not found", id)
		}

		if !models.CanTransitionOrderStatus(order.Status, next) {
			return apperrors.InvalidTransition(string(order.Status), string(next))
		}
		old = order.Status

		if err := tx.Model(&models.Order{}).
			Where("id = ?", id).
			Update("status", next).Error; err != nil {
			return err
		}

		if reason == "" {
			return nil
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:      id,
			OldStatus:    old,
			NewStatus:    next,
			ChangedBy:    changedBy,
			ChangeReason: reason,
		}).Error
	})
	if err != nil {
		return "", err
	}
	return old, nil
}

func (r *GormOrderRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata models.JSONMap) error {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("metadata", metadata)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("Order %s not found", id)
	}
	return nil
}

func (r *GormOrderRepository) History(ctx context.Context, id uuid.UUID) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("created_at ASC").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

func translateNotFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(format, args...)
	}
	return err
}
