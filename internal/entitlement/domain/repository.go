package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, ent *Entitlement) error
	// FindForUpdate locks the (user, feature) row inside the caller's
	// transaction so concurrent grants serialize on it.
	FindForUpdate(ctx context.Context, db *gorm.DB, userID snowflake.ID, feature Feature) (*Entitlement, error)
	Find(ctx context.Context, db *gorm.DB, userID snowflake.ID, feature Feature) (*Entitlement, error)
	Update(ctx context.Context, db *gorm.DB, ent *Entitlement) error
	Delete(ctx context.Context, db *gorm.DB, userID snowflake.ID, feature Feature) (int64, error)
	CountActive(ctx context.Context, db *gorm.DB, userID snowflake.ID, feature Feature, now time.Time) (int64, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Entitlement, error)
	ListEndingBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]Entitlement, error)
	DeleteEndedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}
