package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"order-hub/models"
)

// ChannelConfigUpdate carries partial flag updates; nil fields are left
// untouched.
type ChannelConfigUpdate struct {
	UsePaymentHub   *bool
	ShadowMode      *bool
	CallbackEnabled *bool
}

type ChannelConfigRepository interface {
	// Find returns the stored config for a channel, or nil when no row
	// exists (callers apply the safe default).
	Find(ctx context.Context, channel string) (*models.ChannelConfig, error)
	Upsert(ctx context.Context, channel string, update ChannelConfigUpdate) (*models.ChannelConfig, error)
}

type gormChannelConfigRepo struct {
	db *gorm.DB
}

func NewGormChannelConfigRepo(db *gorm.DB) ChannelConfigRepository {
	return &gormChannelConfigRepo{db: db}
}

func (r *gormChannelConfigRepo) Find(ctx context.Context, channel string) (*models.ChannelConfig, error) {
	var cfg models.ChannelConfig
	err := r.db.WithContext(ctx).
		Where("channel = ?", strings.ToLower(channel)).
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Upsert applies a partial update, creating the row from the safe default
// when none exists yet.
func (r *gormChannelConfigRepo) Upsert(ctx context.Context, channel string, update ChannelConfigUpdate) (*models.ChannelConfig, error) {
	name := strings.ToLower(channel)
	var result *models.ChannelConfig

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg models.ChannelConfig
		err := tx.Where("channel = ?", name).First(&cfg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cfg = models.DefaultChannelConfig(name)
		} else if err != nil {
			return err
		}

		if update.UsePaymentHub != nil {
			cfg.UsePaymentHub = *update.UsePaymentHub
		}
		if update.ShadowMode != nil {
			cfg.ShadowMode = *update.ShadowMode
		}
		if update.CallbackEnabled != nil {
			cfg.CallbackEnabled = *update.CallbackEnabled
		}

		if err := tx.Save(&cfg).Error; err != nil {
			return err
		}
		result = &cfg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
