package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// orderStatusTransitions is the single source of truth for allowed order
// status changes. Cancelled and refunded are terminal.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusRefunded, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// CanTransitionOrderStatus reports whether current→next is an allowed order
// status change. Unknown statuses never transition.
func CanTransitionOrderStatus(current, next OrderStatus) bool {
	for _, s := range orderStatusTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// OrderStatuses lists every known order status.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusPaid,
		OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusRefunded,
	}
}

// Order is the order aggregate root. All monetary amounts are integer minor
// units (cents). Uniquely keyed by (source, source_order_id) besides the id.
type Order struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID    *uuid.UUID     `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Source        string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_source_key" json:"source"`
	SourceOrderID string         `gorm:"type:varchar(128);not null;uniqueIndex:idx_orders_source_key" json:"source_order_id"`
	Status        OrderStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Currency      string         `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	Subtotal      int64          `gorm:"not null" json:"subtotal"`
	TaxTotal      int64          `gorm:"not null" json:"tax_total"`
	ShippingTotal int64          `gorm:"not null" json:"shipping_total"`
	DiscountTotal int64          `gorm:"not null" json:"discount_total"`
	GrandTotal    int64          `gorm:"not null" json:"grand_total"`
	Metadata      JSONMap        `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Items         []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OrderItem is owned by exactly one order and immutable after creation.
type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	SKU         string    `gorm:"type:varchar(128)" json:"sku,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   int64     `gorm:"not null" json:"unit_price"`
	TaxRate     float64   `gorm:"not null;default:0" json:"tax_rate"`
	TotalPrice  int64     `gorm:"not null" json:"total_price"`
	TaxAmount   int64     `gorm:"not null" json:"tax_amount"`
	Metadata    JSONMap   `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// OrderTotals holds the derived monetary breakdown of an order.
type OrderTotals struct {
	Subtotal      int64 `json:"subtotal"`
	TaxTotal      int64 `json:"tax_total"`
	ShippingTotal int64 `json:"shipping_total"`
	DiscountTotal int64 `json:"discount_total"`
	GrandTotal    int64 `json:"grand_total"`
}

// ItemTotals derives total_price and tax_amount for one line item. Tax is
// quantity × unit_price × (tax_rate/100), rounded to the nearest cent.
func ItemTotals(quantity int, unitPrice int64, taxRate float64) (totalPrice, taxAmount int64) {
	totalPrice = int64(quantity) * unitPrice
	taxAmount = int64(math.Round(float64(totalPrice) * taxRate / 100))
	return totalPrice, taxAmount
}

// CalculateOrderTotals sums item totals into the order breakdown.
// grand_total = subtotal + tax_total + shipping_total - discount_total.
func CalculateOrderTotals(items []OrderItem, shippingTotal, discountTotal int64) OrderTotals {
	var subtotal, taxTotal int64
	for _, item := range items {
		totalPrice, taxAmount := ItemTotals(item.Quantity, item.UnitPrice, item.TaxRate)
		subtotal += totalPrice
		taxTotal += taxAmount
	}
	return OrderTotals{
		Subtotal:      subtotal,
		TaxTotal:      taxTotal,
		ShippingTotal: shippingTotal,
		DiscountTotal: discountTotal,
		GrandTotal:    subtotal + taxTotal + shippingTotal - discountTotal,
	}
}

// OrderStatusHistory is an append-only audit record of an order status
// change. Entries are never mutated or removed.
type OrderStatusHistory struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"order_id"`
	OldStatus    OrderStatus `gorm:"type:varchar(20);not null" json:"old_status"`
	NewStatus    OrderStatus `gorm:"type:varchar(20);not null" json:"new_status"`
	ChangedBy    string      `gorm:"type:varchar(128);not null;default:'system'" json:"changed_by"`
	ChangeReason string      `gorm:"type:text" json:"change_reason"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
}
