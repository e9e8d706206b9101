package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending        PaymentStatus = "pending"
	PaymentStatusProcessing     PaymentStatus = "processing"
	PaymentStatusRequiresAction PaymentStatus = "requires_action"
	PaymentStatusSucceeded      PaymentStatus = "succeeded"
	PaymentStatusFailed         PaymentStatus = "failed"
	PaymentStatusCancelled      PaymentStatus = "cancelled"
	PaymentStatusRefunded       PaymentStatus = "refunded"
)

type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderBTCPay PaymentProvider = "btcpay"
	ProviderPayPal PaymentProvider = "paypal"
	ProviderSEPA   PaymentProvider = "sepa"
	ProviderManual PaymentProvider = "manual"
)

// paymentStatusTransitions is the single source of truth for allowed payment
// status changes. Failed, cancelled and refunded are terminal.
var paymentStatusTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {
		PaymentStatusProcessing, PaymentStatusRequiresAction,
		PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled,
	},
	PaymentStatusProcessing: {
		PaymentStatusRequiresAction, PaymentStatusSucceeded,
		PaymentStatusFailed, PaymentStatusCancelled,
	},
	PaymentStatusRequiresAction: {
		PaymentStatusProcessing, PaymentStatusSucceeded,
		PaymentStatusFailed, PaymentStatusCancelled,
	},
	PaymentStatusSucceeded: {PaymentStatusRefunded},
	PaymentStatusFailed:    {},
	PaymentStatusCancelled: {},
	PaymentStatusRefunded:  {},
}

// CanTransitionPaymentStatus reports whether current→next is an allowed
// payment status change.
func CanTransitionPaymentStatus(current, next PaymentStatus) bool {
	for _, s := range paymentStatusTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// PaymentStatuses lists every known payment status.
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		PaymentStatusPending, PaymentStatusProcessing, PaymentStatusRequiresAction,
		PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled,
		PaymentStatusRefunded,
	}
}

// Payment records one payment attempt against an order. Many payments may
// reference the same order (partial payments, retries), so there is no
// uniqueness constraint on order_id.
type Payment struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Provider          PaymentProvider `gorm:"type:varchar(20);not null" json:"provider"`
	ProviderReference *string         `gorm:"type:varchar(255);index" json:"provider_reference,omitempty"`
	PaymentMethod     string          `gorm:"type:varchar(64)" json:"payment_method,omitempty"`
	Status            PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Amount            int64           `gorm:"not null" json:"amount"`
	Currency          string          `gorm:"type:varchar(3);not null" json:"currency"`
	RefundedAmount    int64           `gorm:"not null;default:0" json:"refunded_amount"`
	FailureCode       *string         `gorm:"type:varchar(64)" json:"failure_code,omitempty"`
	FailureMessage    *string         `gorm:"type:text" json:"failure_message,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	Metadata          JSONMap         `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// PaymentStatusHistory is the append-only audit record of a payment status
// change.
type PaymentStatusHistory struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PaymentID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	OldStatus         PaymentStatus   `gorm:"type:varchar(20);not null" json:"old_status"`
	NewStatus         PaymentStatus   `gorm:"type:varchar(20);not null" json:"new_status"`
	ChangedBy         string          `gorm:"type:varchar(128);not null;default:'system'" json:"changed_by"`
	ChangeReason      string          `gorm:"type:text" json:"change_reason"`
	Provider          PaymentProvider `gorm:"type:varchar(20)" json:"provider"`
	ProviderReference *string         `gorm:"type:varchar(255)" json:"provider_reference,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// PaymentSummary is the reconciliation view of an order's payments.
type PaymentSummary struct {
	TotalPaid            int64 `json:"total_paid"`
	TotalRefunded        int64 `json:"total_refunded"`
	RemainingAmount      int64 `json:"remaining_amount"`
	PaymentCount         int   `json:"payment_count"`
	HasSuccessfulPayment bool  `json:"has_successful_payment"`
}

// ComputePaymentSummary derives the payment summary for an order from its
// full payment set. Pure; recomputed on demand, never cached.
func ComputePaymentSummary(order *Order, payments []Payment) PaymentSummary {
	var totalPaid, totalRefunded int64
	hasSuccess := false

	for _, p := range payments {
		if p.Status == PaymentStatusSucceeded {
			totalPaid += p.Amount
			hasSuccess = true
		}
		if p.Status == PaymentStatusRefunded || p.RefundedAmount > 0 {
			totalRefunded += p.RefundedAmount
		}
	}

	remaining := order.GrandTotal - totalPaid + totalRefunded
	if remaining < 0 {
		remaining = 0
	}

	return PaymentSummary{
		TotalPaid:            totalPaid,
		TotalRefunded:        totalRefunded,
		RemainingAmount:      remaining,
		PaymentCount:         len(payments),
		HasSuccessfulPayment: hasSuccess,
	}
}
