package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"order-hub/models"
)

type ProviderRepository interface {
	FindAll(ctx context.Context, includeDisabled bool) ([]models.Provider, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	FindByTypeAndName(ctx context.Context, providerType models.PaymentProvider, name string) (*models.Provider, error)
	Create(ctx context.Context, provider *models.Provider) error
	Update(ctx context.Context, provider *models.Provider) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	UpdateTestStatus(ctx context.Context, id uuid.UUID, status models.ProviderTestStatus, message string) error
}

type gormProviderRepo struct {
	db *gorm.DB
}

func NewGormProviderRepo(db *gorm.DB) ProviderRepository {
	return &gormProviderRepo{db: db}
}

func (r *gormProviderRepo) FindAll(ctx context.Context, includeDisabled bool) ([]models.Provider, error) {
	query := r.db.WithContext(ctx).Model(&models.Provider{})
	if !includeDisabled {
		query = query.Where("enabled = ?", true)
	}

	var providers []models.Provider
	if err := query.Order("created_at ASC").Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *gormProviderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	var provider models.Provider
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&provider).Error; err != nil {
		return nil, translateNotFound(err, "Provider %s not found", id)
	}
	return &provider, nil
}

func (r *gormProviderRepo) FindByTypeAndName(ctx context.Context, providerType models.PaymentProvider, name string) (*models.Provider, error) {
	var provider models.Provider
	err := r.db.WithContext(ctx).
		Where("provider = ? AND name = ?", providerType, name).
		First(&provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *gormProviderRepo) Create(ctx context.Context, provider *models.Provider) error {
	return r.db.WithContext(ctx).Create(provider).Error
}

func (r *gormProviderRepo) Update(ctx context.Context, provider *models.Provider) error {
	return r.db.WithContext(ctx).Save(provider).Error
}

func (r *gormProviderRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Provider{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateNotFound(gorm.ErrRecordNotFound, "Provider %s not found", id)
	}
	return nil
}

func (r *gormProviderRepo) UpdateTestStatus(ctx context.Context, id uuid.UUID, status models.ProviderTestStatus, message string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Provider{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_test_status":  string(status),
			"last_test_message": message,
			"last_tested_at":    &now,
		}).Error
}
