package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/internal/group/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateGroup(ctx context.Context, db *gorm.DB, group *domain.Group) error {
	return db.WithContext(ctx).Create(group).Error
}

func (r *repo) FindGroupByID(ctx context.Context, db *gorm.DB, groupID snowflake.ID) (*domain.Group, error) {
	var g domain.Group
	err := db.WithContext(ctx).
		Where("id = ?", groupID).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *repo) DeleteGroup(ctx context.Context, db *gorm.DB, groupID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", groupID).
		Delete(&domain.Group{}).Error
}

func (r *repo) ListGroupsByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.GroupSummary, error) {
	var items []domain.GroupSummary
	err := db.WithContext(ctx).Raw(
		`SELECT g.id, g.name, g.slug, g.description, g.created_by, g.metadata, g.created_at, g.updated_at,
		        (SELECT COUNT(*) FROM group_members gm2 WHERE gm2.group_id = g.id) AS member_count
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = ?
		 ORDER BY g.created_at DESC`,
		userID,
	).Scan(&items).Error
	return items, err
}

func (r *repo) AddMember(ctx context.Context, db *gorm.DB, member *domain.GroupMember) error {
	return db.WithContext(ctx).Create(member).Error
}

func (r *repo) FindMember(ctx context.Context, db *gorm.DB, groupID, userID snowflake.ID) (*domain.GroupMember, error) {
	var m domain.GroupMember
	err := db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *repo) RemoveMember(ctx context.Context, db *gorm.DB, groupID, userID snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&domain.GroupMember{})
	return result.RowsAffected, result.Error
}

func (r *repo) RemoveMembers(ctx context.Context, db *gorm.DB, groupID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Delete(&domain.GroupMember{}).Error
}

func (r *repo) DeleteGroupMessages(ctx context.Context, db *gorm.DB, groupID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM messages WHERE group_id = ?`,
		groupID,
	).Error
}

func (r *repo) ListMembers(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]domain.GroupMember, error) {
	var members []domain.GroupMember
	err := db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *repo) ListMemberIDs(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}
