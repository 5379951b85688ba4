// Package notification fans "new message" signals out over the
// realtime channel and the deferred email channel. Every delivery is
// best effort: failures are logged and counted, never propagated to
// the sending path.
package notification

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/internal/clock"
	messagedomain "github.com/smallbiznis/courier/internal/message/domain"
	"github.com/smallbiznis/courier/internal/observability/metrics"
	"github.com/smallbiznis/courier/internal/presence"
	"github.com/smallbiznis/courier/internal/providers/email"
	userdomain "github.com/smallbiznis/courier/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const EventNewMessage = "message.new"

type NewMessageEvent struct {
	MessageID snowflake.ID  `json:"message_id"`
	SenderID  snowflake.ID  `json:"sender_id"`
	GroupID   *snowflake.ID `json:"group_id,omitempty"`
	Summary   string        `json:"summary"`
	SentAt    string        `json:"sent_at"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	registry *presence.Registry
	email    email.Provider
	userRepo userdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Registry *presence.Registry
	Email    email.Provider
	UserRepo userdomain.Repository
}

func New(p ServiceParam) *Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("notification"),
		clock:    p.Clock,
		registry: p.Registry,
		email:    p.Email,
		userRepo: p.UserRepo,
	}
}

// NotifyMessage pushes a realtime event to every present recipient and
// dispatches the deferred email signal. The sender is excluded.
func (s *Service) NotifyMessage(ctx context.Context, msg messagedomain.Message, recipientIDs []snowflake.ID) {
	event := NewMessageEvent{
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		GroupID:   msg.GroupID,
		Summary:   msg.Summary(),
		SentAt:    msg.SentAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	for _, recipientID := range recipientIDs {
		if recipientID == msg.SenderID {
			continue
		}

		if ch, ok := s.registry.Lookup(recipientID); ok {
			if err := ch.Push(EventNewMessage, event); err != nil {
				metrics.Notifications().IncFailed("realtime")
				s.log.Warn("realtime push failed",
					zap.Int64("user_id", int64(recipientID)),
					zap.Error(err),
				)
			} else {
				metrics.Notifications().IncDelivered("realtime")
			}
		}

		s.sendEmail(ctx, recipientID, "New message", "You have received a new message.")
	}
}

// NotifyUser delivers an out-of-band signal (realtime nudge plus email)
// to a single user. Used by the unread-reminder worker.
func (s *Service) NotifyUser(ctx context.Context, userID snowflake.ID, subject, body string) error {
	if ch, ok := s.registry.Lookup(userID); ok {
		if err := ch.Push(EventNewMessage, map[string]string{"summary": body}); err != nil {
			metrics.Notifications().IncFailed("realtime")
			s.log.Warn("realtime push failed",
				zap.Int64("user_id", int64(userID)),
				zap.Error(err),
			)
		} else {
			metrics.Notifications().IncDelivered("realtime")
		}
	}

	return s.sendEmailErr(ctx, userID, subject, body)
}

func (s *Service) sendEmail(ctx context.Context, userID snowflake.ID, subject, body string) {
	if err := s.sendEmailErr(ctx, userID, subject, body); err != nil {
		s.log.Warn("email dispatch failed",
			zap.Int64("user_id", int64(userID)),
			zap.Error(err),
		)
	}
}

func (s *Service) sendEmailErr(ctx context.Context, userID snowflake.ID, subject, body string) error {
	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		metrics.Notifications().IncFailed("email")
		return err
	}
	if user == nil {
		return nil
	}

	if err := s.email.Send(ctx, []string{user.Email}, subject, body); err != nil {
		metrics.Notifications().IncFailed("email")
		return err
	}
	metrics.Notifications().IncDelivered("email")
	return nil
}

var Module = fx.Module("notification",
	fx.Provide(New),
	fx.Provide(func(s *Service) messagedomain.Notifier { return s }),
)
