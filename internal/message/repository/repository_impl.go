package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/internal/message/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, msg *domain.Message) error {
	return db.WithContext(ctx).Create(msg).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *repo) Inbox(ctx context.Context, db *gorm.DB, userID snowflake.ID, offset, limit int) ([]domain.Message, error) {
	var items []domain.Message
	err := db.WithContext(ctx).Raw(
		`SELECT id, sender_id, receiver_id, group_id, content, file_url, voice_url,
		        sent_at, is_read, last_notified_at, created_at
		 FROM messages
		 WHERE receiver_id = ?
		    OR (group_id IS NOT NULL AND group_id IN (
		        SELECT group_id FROM group_members WHERE user_id = ?))
		 ORDER BY sent_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID,
		userID,
		limit,
		offset,
	).Scan(&items).Error
	return items, err
}

func (r *repo) InboxCount(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*)
		 FROM messages
		 WHERE receiver_id = ?
		    OR (group_id IS NOT NULL AND group_id IN (
		        SELECT group_id FROM group_members WHERE user_id = ?))`,
		userID,
		userID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) ListByGroup(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]domain.Message, error) {
	var items []domain.Message
	err := db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("sent_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_read":          true,
			"last_notified_at": nil,
		}).Error
}

func (r *repo) ListStaleUnreadDirect(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]domain.Message, error) {
	var items []domain.Message
	err := db.WithContext(ctx).Raw(
		`SELECT id, sender_id, receiver_id, group_id, content, file_url, voice_url,
		        sent_at, is_read, last_notified_at, created_at
		 FROM messages
		 WHERE receiver_id IS NOT NULL
		   AND is_read = ?
		   AND sent_at <= ?
		   AND (last_notified_at IS NULL OR last_notified_at < ?)
		 ORDER BY sent_at ASC, id ASC
		 LIMIT ?`,
		false,
		cutoff,
		cutoff,
		limit,
	).Scan(&items).Error
	return items, err
}

func (r *repo) MarkNotified(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("last_notified_at", at)
	return result.RowsAffected, result.Error
}
