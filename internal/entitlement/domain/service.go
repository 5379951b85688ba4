package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// HasActiveFeature reports whether the user holds an unexpired grant
	// of feature. A storage error never reads as entitled.
	HasActiveFeature(ctx context.Context, userID snowflake.ID, feature Feature) (bool, error)
	// Grant extends an active entitlement by duration from its current
	// end, renews an expired one from now, or creates a fresh one.
	Grant(ctx context.Context, userID snowflake.ID, feature Feature, duration time.Duration) (*Entitlement, error)
	// Revoke removes the entitlement row. Returns false when none existed.
	Revoke(ctx context.Context, userID snowflake.ID, feature Feature) (bool, error)
	ListForUser(ctx context.Context, userID snowflake.ID) ([]Entitlement, error)
	ListExpiringWithin(ctx context.Context, window time.Duration) ([]Entitlement, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidFeature  = errors.New("invalid_feature")
	ErrInvalidDuration = errors.New("invalid_duration")
)
