package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/internal/clock"
	entitlementdomain "github.com/smallbiznis/courier/internal/entitlement/domain"
	groupdomain "github.com/smallbiznis/courier/internal/group/domain"
	"github.com/smallbiznis/courier/internal/message/domain"
	userdomain "github.com/smallbiznis/courier/internal/user/domain"
	"github.com/smallbiznis/courier/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	userRepo userdomain.Repository
	entSvc   entitlementdomain.Service
	groupSvc groupdomain.Service
	notifier domain.Notifier
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	UserRepo userdomain.Repository
	EntSvc   entitlementdomain.Service
	GroupSvc groupdomain.Service
	Notifier domain.Notifier
}

func New(p ServiceParam) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("message.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		userRepo: p.UserRepo,
		entSvc:   p.EntSvc,
		groupSvc: p.GroupSvc,
		notifier: p.Notifier,
	}
}

func (s *Service) Send(ctx context.Context, senderID snowflake.ID, req domain.SendRequest) (*domain.Message, error) {
	if senderID == 0 {
		return nil, domain.ErrInvalidUser
	}

	// Exactly one of receiver and group.
	hasReceiver := req.ReceiverID != nil && *req.ReceiverID != 0
	hasGroup := req.GroupID != nil && *req.GroupID != 0
	if hasReceiver == hasGroup {
		return nil, domain.ErrInvalidRecipient
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}
	if len(content) > domain.MaxContentLength {
		return nil, domain.ErrContentTooLong
	}

	var recipients []snowflake.ID
	if hasGroup {
		ok, err := s.entSvc.HasActiveFeature(ctx, senderID, entitlementdomain.FeatureGroupChat)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrGroupChatNotEntitled
		}

		isMember, err := s.groupSvc.IsMember(ctx, senderID, *req.GroupID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, domain.ErrNotGroupMember
		}

		recipients, err = s.groupSvc.MemberIDs(ctx, *req.GroupID)
		if err != nil {
			return nil, err
		}
	} else {
		if *req.ReceiverID == senderID {
			return nil, domain.ErrSelfSend
		}

		exists, err := s.userRepo.Exists(ctx, s.db, *req.ReceiverID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrReceiverNotFound
		}
		recipients = []snowflake.ID{*req.ReceiverID}
	}

	if req.FileURL != "" {
		ok, err := s.entSvc.HasActiveFeature(ctx, senderID, entitlementdomain.FeatureFileSharing)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrFileNotEntitled
		}
	}

	if req.VoiceURL != "" {
		ok, err := s.entSvc.HasActiveFeature(ctx, senderID, entitlementdomain.FeatureVoiceMessage)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrVoiceNotEntitled
		}
	}

	now := s.clock.Now()
	msg := &domain.Message{
		ID:        s.genID.Generate(),
		SenderID:  senderID,
		Content:   content,
		FileURL:   req.FileURL,
		VoiceURL:  req.VoiceURL,
		SentAt:    now,
		IsRead:    false,
		CreatedAt: now,
	}
	if hasGroup {
		msg.GroupID = req.GroupID
	} else {
		msg.ReceiverID = req.ReceiverID
	}

	if err := s.repo.Create(ctx, s.db, msg); err != nil {
		return nil, err
	}

	// Fan-out is best effort and must never fail the send.
	s.notifier.NotifyMessage(ctx, *msg, recipients)

	return msg, nil
}

func (s *Service) GetInbox(ctx context.Context, userID snowflake.ID, page pagination.Pagination) (pagination.PagedResult[domain.Message], error) {
	var empty pagination.PagedResult[domain.Message]
	if userID == 0 {
		return empty, domain.ErrInvalidUser
	}

	page = page.Normalize()

	total, err := s.repo.InboxCount(ctx, s.db, userID)
	if err != nil {
		return empty, err
	}

	items, err := s.repo.Inbox(ctx, s.db, userID, page.Offset(), page.PageSize)
	if err != nil {
		return empty, err
	}

	return pagination.NewPagedResult(items, total, page), nil
}

func (s *Service) GetGroupMessages(ctx context.Context, groupID, userID snowflake.ID) ([]domain.Message, error) {
	if userID == 0 || groupID == 0 {
		return nil, domain.ErrInvalidUser
	}

	isMember, err := s.groupSvc.IsMember(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, domain.ErrNotGroupMember
	}

	return s.repo.ListByGroup(ctx, s.db, groupID)
}

func (s *Service) MarkRead(ctx context.Context, userID, messageID snowflake.ID) error {
	if userID == 0 || messageID == 0 {
		return nil
	}

	msg, err := s.repo.FindByID(ctx, s.db, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}

	authorized := false
	switch {
	case msg.ReceiverID != nil:
		authorized = *msg.ReceiverID == userID
	case msg.GroupID != nil && msg.SenderID != userID:
		authorized, err = s.groupSvc.IsMember(ctx, userID, *msg.GroupID)
		if err != nil {
			return err
		}
	}
	if !authorized {
		return nil
	}

	return s.repo.MarkRead(ctx, s.db, messageID)
}
