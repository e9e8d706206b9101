package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultChannelConfig(t *testing.T) {
	cfg := DefaultChannelConfig("shopify")

	assert.Equal(t, "shopify", cfg.Channel)
	assert.False(t, cfg.UsePaymentHub)
	assert.True(t, cfg.ShadowMode)
	assert.False(t, cfg.CallbackEnabled)
}

func TestChannelConfigGating(t *testing.T) {
	t.Run("shadow mode overrides enabled flags", func(t *testing.T) {
		cfg := ChannelConfig{UsePaymentHub: true, CallbackEnabled: true, ShadowMode: true}

		assert.False(t, cfg.ShouldUsePaymentHub())
		assert.False(t, cfg.ShouldSendCallbacks())
	})

	t.Run("active channel", func(t *testing.T) {
		cfg := ChannelConfig{UsePaymentHub: true, CallbackEnabled: true, ShadowMode: false}

		assert.True(t, cfg.ShouldUsePaymentHub())
		assert.True(t, cfg.ShouldSendCallbacks())
	})

	t.Run("flags off stay off outside shadow mode", func(t *testing.T) {
		cfg := ChannelConfig{ShadowMode: false}

		assert.False(t, cfg.ShouldUsePaymentHub())
		assert.False(t, cfg.ShouldSendCallbacks())
	})
}
