package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/pkg/db/pagination"
)

// MaxContentLength bounds message bodies, matching the HTTP surface's
// request limit.
const MaxContentLength = 2000

type SendRequest struct {
	ReceiverID *snowflake.ID `json:"receiver_id,omitempty"`
	GroupID    *snowflake.ID `json:"group_id,omitempty"`
	Content    string        `json:"content"`
	FileURL    string        `json:"file_url,omitempty"`
	VoiceURL   string        `json:"voice_url,omitempty"`
}

type Service interface {
	// Send validates shape, entitlements and membership, persists the
	// message, and triggers best-effort notification fan-out.
	Send(ctx context.Context, senderID snowflake.ID, req SendRequest) (*Message, error)
	GetInbox(ctx context.Context, userID snowflake.ID, page pagination.Pagination) (pagination.PagedResult[Message], error)
	GetGroupMessages(ctx context.Context, groupID, userID snowflake.ID) ([]Message, error)
	// MarkRead is a silent no-op when the message does not exist or the
	// caller may not read it, so existence is never leaked.
	MarkRead(ctx context.Context, userID, messageID snowflake.ID) error
}

// Notifier delivers "new message" signals. Implementations must never
// block the send path on delivery failures.
type Notifier interface {
	NotifyMessage(ctx context.Context, msg Message, recipientIDs []snowflake.ID)
}

var (
	ErrInvalidUser          = errors.New("invalid_user")
	ErrInvalidRecipient     = errors.New("invalid_recipient")
	ErrSelfSend             = errors.New("self_send")
	ErrEmptyContent         = errors.New("empty_content")
	ErrContentTooLong       = errors.New("content_too_long")
	ErrReceiverNotFound     = errors.New("receiver_not_found")
	ErrNotGroupMember       = errors.New("not_group_member")
	ErrVoiceNotEntitled     = errors.New("voice_feature_required")
	ErrFileNotEntitled      = errors.New("file_feature_required")
	ErrGroupChatNotEntitled = errors.New("group_chat_feature_required")
)
