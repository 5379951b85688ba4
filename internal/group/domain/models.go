// Package domain contains persistence models for group chats and membership.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Role orders group privileges. Only admins and owners manage membership.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// CanManage reports whether the role may add or remove members, or
// delete the group.
func (r Role) CanManage() bool {
	return r == RoleAdmin || r == RoleOwner
}

// Group is a chat room owned by its creator.
type Group struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"type:text;not null" json:"name"`
	Slug        string            `gorm:"type:text;not null" json:"slug"`
	Description *string           `gorm:"type:text" json:"description,omitempty"`
	CreatedBy   snowflake.ID      `gorm:"not null;index" json:"created_by"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Group) TableName() string { return "groups" }

// GroupMember represents membership of a user in a group.
type GroupMember struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	GroupID  snowflake.ID `gorm:"not null;index;uniqueIndex:ux_group_members_group_user,priority:1" json:"group_id"`
	UserID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_group_members_group_user,priority:2" json:"user_id"`
	Role     Role         `gorm:"type:text;not null" json:"role"`
	JoinedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"joined_at"`
}

// TableName sets the database table name.
func (GroupMember) TableName() string { return "group_members" }

// GroupSummary is a group with its member count, for listings.
type GroupSummary struct {
	Group
	MemberCount int64 `json:"member_count"`
}

// GroupDetail is a group with its full membership.
type GroupDetail struct {
	Group
	Members []GroupMember `json:"members"`
}
