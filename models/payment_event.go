package models

import "time"

// PaymentEvent is the payload published to the payment-events topic on
// every payment status change. Best effort; consumers must tolerate gaps.
type PaymentEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}
