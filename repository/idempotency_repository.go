package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"order-hub/models"
)

// IdempotencyRepository backs the idempotency guard. Reserve is the atomic
// check-and-claim step: the unique index on (key, endpoint, method) makes a
// concurrent duplicate lose the insert and observe the winner's row instead.
type IdempotencyRepository interface {
	// Reserve attempts to claim the key. When the claim succeeds it returns
	// (nil, true). When another request already holds the key it returns the
	// existing record and false.
	Reserve(ctx context.Context, key, endpoint, method string, ttl time.Duration) (*models.IdempotencyKey, bool, error)
	// Complete stores the captured response on the reserved row.
	Complete(ctx context.Context, key, endpoint, method string, statusCode int, body []byte) error
	// Release drops an uncompleted reservation so a later retry can claim
	// the key again (used when the guarded handler fails).
	Release(ctx context.Context, key, endpoint, method string) error
	// Reset reclaims an expired record for a fresh execution.
	Reset(ctx context.Context, key, endpoint, method string, ttl time.Duration) error
	// DeleteExpired garbage-collects records past their TTL.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type gormIdempotencyRepo struct {
	db *gorm.DB
}

func NewGormIdempotencyRepo(db *gorm.DB) IdempotencyRepository {
	return &gormIdempotencyRepo{db: db}
}

func (r *gormIdempotencyRepo) Reserve(ctx context.Context, key, endpoint, method string, ttl time.Duration) (*models.IdempotencyKey, bool, error) {
	record := models.IdempotencyKey{
		Key:       key,
		Endpoint:  endpoint,
		Method:    method,
		ExpiresAt: time.Now().Add(ttl),
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}, {Name: "endpoint"}, {Name: "method"}},
			DoNothing: true,
		}).
		Create(&record)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected > 0 {
		return nil, true, nil
	}

	// Lost the race or the key was already processed earlier; fetch the
	// winning row.
	var existing models.IdempotencyKey
	if err := r.db.WithContext(ctx).
		Where("key = ? AND endpoint = ? AND method = ?", key, endpoint, method).
		First(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (r *gormIdempotencyRepo) Complete(ctx context.Context, key, endpoint, method string, statusCode int, body []byte) error {
	return r.db.WithContext(ctx).
		Model(&models.IdempotencyKey{}).
		Where("key = ? AND endpoint = ? AND method = ?", key, endpoint, method).
		Updates(map[string]any{
			"status_code":   statusCode,
			"response_body": body,
		}).Error
}

func (r *gormIdempotencyRepo) Release(ctx context.Context, key, endpoint, method string) error {
	return r.db.WithContext(ctx).
		Where("key = ? AND endpoint = ? AND method = ? AND status_code = 0", key, endpoint, method).
		Delete(&models.IdempotencyKey{}).Error
}

func (r *gormIdempotencyRepo) Reset(ctx context.Context, key, endpoint, method string, ttl time.Duration) error {
	return r.db.WithContext(ctx).
		Model(&models.IdempotencyKey{}).
		Where("key = ? AND endpoint = ? AND method = ?", key, endpoint, method).
		Updates(map[string]any{
			"status_code":   0,
			"response_body": nil,
			"expires_at":    time.Now().Add(ttl),
		}).Error
}

func (r *gormIdempotencyRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.IdempotencyKey{})
	return result.RowsAffected, result.Error
}
