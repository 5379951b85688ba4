// Package domain contains persistence models for feature entitlements.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Feature is a closed set of named capability tags. Values are opaque
// strings, not bit flags: tags do not combine.
type Feature string

const (
	FeatureNone         Feature = "none"
	FeatureVoiceMessage Feature = "voice_message"
	FeatureFileSharing  Feature = "file_sharing"
	FeatureGroupChat    Feature = "group_chat"
	FeatureEmailAlerts  Feature = "email_alerts"
)

// Valid reports whether f is one of the grantable features.
func (f Feature) Valid() bool {
	switch f {
	case FeatureVoiceMessage, FeatureFileSharing, FeatureGroupChat, FeatureEmailAlerts:
		return true
	default:
		return false
	}
}

// Entitlement is a time-bounded grant of one feature to one user.
// At most one row exists per (user_id, feature); re-grants extend or
// renew that row in place.
type Entitlement struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_entitlements_user_feature,priority:1" json:"user_id"`
	Feature   Feature      `gorm:"type:text;not null;uniqueIndex:ux_entitlements_user_feature,priority:2" json:"feature"`
	StartAt   time.Time    `gorm:"not null" json:"start_at"`
	EndAt     time.Time    `gorm:"not null;index" json:"end_at"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Entitlement) TableName() string { return "entitlements" }

// ActiveAt reports whether the entitlement covers the given instant.
func (e Entitlement) ActiveAt(now time.Time) bool {
	return now.Before(e.EndAt)
}
