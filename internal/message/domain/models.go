// Package domain contains persistence models for messages.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Message is a direct or group message. Exactly one of ReceiverID and
// GroupID is set. LastNotifiedAt is the idempotency marker for the
// unread-reminder worker; marking a message read clears it.
type Message struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	SenderID       snowflake.ID  `gorm:"not null;index" json:"sender_id"`
	ReceiverID     *snowflake.ID `gorm:"index" json:"receiver_id,omitempty"`
	GroupID        *snowflake.ID `gorm:"index" json:"group_id,omitempty"`
	Content        string        `gorm:"type:text;not null" json:"content"`
	FileURL        string        `gorm:"type:text" json:"file_url,omitempty"`
	VoiceURL       string        `gorm:"type:text" json:"voice_url,omitempty"`
	SentAt         time.Time     `gorm:"not null;index" json:"sent_at"`
	IsRead         bool          `gorm:"not null;default:false" json:"is_read"`
	LastNotifiedAt *time.Time    `gorm:"" json:"last_notified_at,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Message) TableName() string { return "messages" }

// IsDirect reports whether the message targets a single receiver.
func (m Message) IsDirect() bool { return m.ReceiverID != nil }

// Summary is a short line for notification payloads.
func (m Message) Summary() string {
	const max = 80
	if len(m.Content) <= max {
		return m.Content
	}
	return m.Content[:max] + "…"
}
