// Package domain contains persistence models for user accounts.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is owned by the identity collaborator. The messaging core only
// reads it: recipients must exist and email alerts need an address.
type User struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Email       string       `gorm:"type:text;not null;uniqueIndex:ux_users_email" json:"email"`
	DisplayName string       `gorm:"type:text;not null" json:"display_name"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

var ErrNotFound = errors.New("user_not_found")
