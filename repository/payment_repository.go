package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"order-hub/apperrors"
	"order-hub/models"
)

// PaymentUpdate carries the mutable payment fields for partial updates.
// Nil fields are left untouched.
type PaymentUpdate struct {
	ProviderReference *string
	PaymentMethod     *string
	RefundedAmount    *int64
	FailureCode       *string
	FailureMessage    *string
	CompletedAt       *time.Time
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
	FindByProviderReference(ctx context.Context, ref string) (*models.Payment, error)
	FindByStatus(ctx context.Context, status models.PaymentStatus, limit int) ([]models.Payment, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, next models.PaymentStatus, changedBy, reason string) (models.PaymentStatus, error)
	Update(ctx context.Context, id uuid.UUID, update PaymentUpdate) error
	History(ctx context.Context, id uuid.UUID) ([]models.PaymentStatusHistory, error)
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepo(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

func (r *gormPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *gormPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, translateNotFound(err, "Payment %s not found", id)
	}
	return &payment, nil
}

func (r *gormPaymentRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *gormPaymentRepo) FindByProviderReference(ctx context.Context, ref string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("provider_reference = ?", ref).
		First(&payment).Error; err != nil {
		return nil, translateNotFound(err, "Payment with provider reference %s not found", ref)
	}
	return &payment, nil
}

func (r *gormPaymentRepo) FindByStatus(ctx context.Context, status models.PaymentStatus, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// TransitionStatus applies a payment status change under a row lock,
// re-validating against the latest persisted state. A move to succeeded
// stamps completed_at. History is written in the same transaction when a
// reason is supplied.
func (r *gormPaymentRepo) TransitionStatus(ctx context.Context, id uuid.UUID, next models.PaymentStatus, changedBy, reason string) (models.PaymentStatus, error) {
	var old models.PaymentStatus

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&payment).Error; err != nil {
			return translateNotFound(err, "Payment %s not found", id)
		}

		if !models.CanTransitionPaymentStatus(payment.Status, next) {
			return apperrors.InvalidTransition(string(payment.Status), string(next))
		}
		old = payment.Status

		updates := map[string]any{"status": next}
		if next == models.PaymentStatusSucceeded {
			now := time.Now().UTC()
			updates["completed_at"] = &now
		}
		if err := tx.Model(&models.Payment{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return err
		}

		if reason == "" {
			return nil
		}
		return tx.Create(&models.PaymentStatusHistory{
			PaymentID:         id,
			OldStatus:         old,
			NewStatus:         next,
			ChangedBy:         changedBy,
			ChangeReason:      reason,
			Provider:          payment.Provider,
			ProviderReference: payment.ProviderReference,
		}).Error
	})
	if err != nil {
		return "", err
	}
	return old, nil
}

func (r *gormPaymentRepo) Update(ctx context.Context, id uuid.UUID, update PaymentUpdate) error {
	updates := map[string]any{}
	if update.ProviderReference != nil {
		updates["provider_reference"] = update.ProviderReference
	}
	if update.PaymentMethod != nil {
		updates["payment_method"] = *update.PaymentMethod
	}
	if update.RefundedAmount != nil {
		updates["refunded_amount"] = *update.RefundedAmount
	}
	if update.FailureCode != nil {
		updates["failure_code"] = update.FailureCode
	}
	if update.FailureMessage != nil {
		updates["failure_message"] = update.FailureMessage
	}
	if update.CompletedAt != nil {
		updates["completed_at"] = update.CompletedAt
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("Payment %s not found", id)
	}
	return nil
}

func (r *gormPaymentRepo) History(ctx context.Context, id uuid.UUID) ([]models.PaymentStatusHistory, error) {
	var history []models.PaymentStatusHistory
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", id).
		Order("created_at ASC").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}
