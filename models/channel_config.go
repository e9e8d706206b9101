package models

import (
	"time"

	"github.com/google/uuid"
)

// ChannelConfig controls how the hub treats a channel's traffic. A channel
// with no stored row gets the safe observe-only default.
type ChannelConfig struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	Channel         string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"channel"`
	UsePaymentHub   bool      `gorm:"not null;default:false" json:"use_payment_hub"`
	ShadowMode      bool      `gorm:"not null;default:true" json:"shadow_mode"`
	CallbackEnabled bool      `gorm:"not null;default:false" json:"callback_enabled"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DefaultChannelConfig is the fallback for channels with no stored row:
// shadow mode on, hub processing and callbacks off.
func DefaultChannelConfig(channel string) ChannelConfig {
	return ChannelConfig{
		Channel:         channel,
		UsePaymentHub:   false,
		ShadowMode:      true,
		CallbackEnabled: false,
	}
}

// ShouldUsePaymentHub reports whether the hub actively processes this
// channel's traffic. Shadow mode overrides the flag unconditionally.
func (c ChannelConfig) ShouldUsePaymentHub() bool {
	return c.UsePaymentHub && !c.ShadowMode
}

// ShouldSendCallbacks reports whether status-change callbacks fire for this
// channel. Shadow mode overrides the flag unconditionally.
func (c ChannelConfig) ShouldSendCallbacks() bool {
	return c.CallbackEnabled && !c.ShadowMode
}
