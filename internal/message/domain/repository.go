package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, msg *Message) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Message, error)

	// Inbox returns messages addressed to the user directly or through
	// any of their groups, newest first.
	Inbox(ctx context.Context, db *gorm.DB, userID snowflake.ID, offset, limit int) ([]Message, error)
	InboxCount(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
	ListByGroup(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]Message, error)

	// MarkRead flips is_read and clears last_notified_at in one write.
	MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	// ListStaleUnreadDirect selects direct messages eligible for an
	// unread reminder: unread, older than cutoff, and not already
	// notified within the current window.
	ListStaleUnreadDirect(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]Message, error)
	// MarkNotified records the reminder timestamp. The write is
	// conditional on the row still being unread, so a concurrent
	// mark-read wins; it returns the number of rows updated.
	MarkNotified(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (int64, error)
}
