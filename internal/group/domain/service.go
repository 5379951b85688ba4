package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateGroupRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type Service interface {
	// CreateGroup requires the creator to hold the group_chat feature and
	// inserts the group together with its owner membership atomically.
	CreateGroup(ctx context.Context, creatorID snowflake.ID, req CreateGroupRequest) (*Group, error)
	AddMember(ctx context.Context, groupID, newUserID, actingUserID snowflake.ID) error
	RemoveMember(ctx context.Context, groupID, targetUserID, actingUserID snowflake.ID) error
	// DeleteGroup cascades removal of memberships and group messages.
	DeleteGroup(ctx context.Context, groupID, actingUserID snowflake.ID) error
	IsMember(ctx context.Context, userID, groupID snowflake.ID) (bool, error)
	ListGroupsForUser(ctx context.Context, userID snowflake.ID) ([]GroupSummary, error)
	GetGroup(ctx context.Context, groupID snowflake.ID) (*GroupDetail, error)
	// MemberIDs returns the user ids of every member, for fan-out.
	MemberIDs(ctx context.Context, groupID snowflake.ID) ([]snowflake.ID, error)
}

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidName     = errors.New("invalid_name")
	ErrFeatureRequired = errors.New("group_feature_required")
	ErrForbidden       = errors.New("group_role_forbidden")
	ErrNotFound        = errors.New("group_not_found")
	ErrMemberNotFound  = errors.New("group_member_not_found")
	ErrAlreadyMember   = errors.New("group_member_exists")
	ErrUserNotFound    = errors.New("group_user_not_found")
)
