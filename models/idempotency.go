package models

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey stores the first response for a given client-supplied key.
// A row with StatusCode 0 is an in-flight reservation: the key is claimed
// but its handler has not completed yet. The composite unique index makes
// the insert the atomic reservation step.
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Key          string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_idempotency_scope" json:"key"`
	Endpoint     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_idempotency_scope" json:"endpoint"`
	Method       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_idempotency_scope" json:"method"`
	StatusCode   int       `gorm:"not null;default:0" json:"status_code"`
	ResponseBody []byte    `gorm:"type:bytea" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
}

// Completed reports whether the original request finished and its response
// was captured.
func (k *IdempotencyKey) Completed() bool {
	return k.StatusCode != 0
}

// Expired reports whether the record is past its TTL and eligible for
// garbage collection.
func (k *IdempotencyKey) Expired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}
