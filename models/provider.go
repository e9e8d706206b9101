package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProviderTestStatus string

const (
	ProviderTestSuccess ProviderTestStatus = "success"
	ProviderTestFailed  ProviderTestStatus = "failed"
)

// Provider is a configured payment provider account. The three secret
// fields are independently nullable and stored encrypted as colon-delimited
// hex (see the vault package); they are never returned in plaintext.
type Provider struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(128);not null;uniqueIndex:idx_providers_type_name" json:"name"`
	Provider        PaymentProvider `gorm:"type:varchar(20);not null;uniqueIndex:idx_providers_type_name" json:"provider"`
	Enabled         bool            `gorm:"not null;default:true" json:"enabled"`
	APIKey          *string         `gorm:"type:text" json:"api_key,omitempty"`
	APISecret       *string         `gorm:"type:text" json:"api_secret,omitempty"`
	WebhookSecret   *string         `gorm:"type:text" json:"webhook_secret,omitempty"`
	Config          JSONMap         `gorm:"type:jsonb;default:'{}'" json:"config"`
	LastTestStatus  *string         `gorm:"type:varchar(20)" json:"last_test_status,omitempty"`
	LastTestMessage *string         `gorm:"type:text" json:"last_test_message,omitempty"`
	LastTestedAt    *time.Time      `json:"last_tested_at,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// ProviderTestResult is the outcome of a connectivity test.
type ProviderTestResult struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	ProviderInfo map[string]any `json:"provider_info,omitempty"`
	TestedAt     time.Time      `json:"tested_at"`
}
