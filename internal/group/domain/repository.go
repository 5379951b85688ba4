package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreateGroup(ctx context.Context, db *gorm.DB, group *Group) error
	FindGroupByID(ctx context.Context, db *gorm.DB, groupID snowflake.ID) (*Group, error)
	DeleteGroup(ctx context.Context, db *gorm.DB, groupID snowflake.ID) error
	ListGroupsByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]GroupSummary, error)

	AddMember(ctx context.Context, db *gorm.DB, member *GroupMember) error
	FindMember(ctx context.Context, db *gorm.DB, groupID, userID snowflake.ID) (*GroupMember, error)
	RemoveMember(ctx context.Context, db *gorm.DB, groupID, userID snowflake.ID) (int64, error)
	RemoveMembers(ctx context.Context, db *gorm.DB, groupID snowflake.ID) error
	DeleteGroupMessages(ctx context.Context, db *gorm.DB, groupID snowflake.ID) error
	ListMembers(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]GroupMember, error)
	ListMemberIDs(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]snowflake.ID, error)
}
