package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/internal/entitlement/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, ent *domain.Entitlement) error {
	return db.WithContext(ctx).Create(ent).Error
}

func (r *repo) FindForUpdate(ctx context.Context, db *gorm.DB, userID snowflake.ID, feature domain.Feature) (*domain.Entitlement, error) {
	var ent domain.Entitlement
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND feature = ?", userID, feature).
		First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ent, nil
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID snowflake.ID, feature domain.Feature) (*domain.Entitlement, error) {
	var ent domain.Entitlement
	err := db.WithContext(ctx).
		Where("user_id = ? AND feature = ?", userID, feature).
		First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ent, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, ent *domain.Entitlement) error {
	return db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("id = ?", ent.ID).
		Updates(map[string]any{
			"start_at":   ent.StartAt,
			"end_at":     ent.EndAt,
			"updated_at": ent.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID snowflake.ID, feature domain.Feature) (int64, error) {
	result := db.WithContext(ctx).
		Where("user_id = ? AND feature = ?", userID, feature).
		Delete(&domain.Entitlement{})
	return result.RowsAffected, result.Error
}

func (r *repo) CountActive(ctx context.Context, db *gorm.DB, userID snowflake.ID, feature domain.Feature, now time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("user_id = ? AND feature = ? AND end_at > ?", userID, feature, now).
		Count(&count).Error
	return count, err
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.Entitlement, error) {
	var items []domain.Entitlement
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("feature ASC").
		Find(&items).Error
	return items, err
}

func (r *repo) ListEndingBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]domain.Entitlement, error) {
	var items []domain.Entitlement
	err := db.WithContext(ctx).
		Where("end_at > ? AND end_at <= ?", from, to).
		Order("end_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repo) DeleteEndedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Where("end_at < ?", cutoff).
		Delete(&domain.Entitlement{})
	return result.RowsAffected, result.Error
}
