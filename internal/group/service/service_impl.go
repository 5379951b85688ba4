package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/courier/internal/clock"
	entitlementdomain "github.com/smallbiznis/courier/internal/entitlement/domain"
	"github.com/smallbiznis/courier/internal/group/domain"
	userdomain "github.com/smallbiznis/courier/internal/user/domain"
	"github.com/smallbiznis/courier/pkg/db"
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
}

func New(p ServiceParam) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("group.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		userRepo: p.UserRepo,
		entSvc:   p.EntSvc,
	}
}

func (s *Service) CreateGroup(ctx context.Context, creatorID snowflake.ID, req domain.CreateGroupRequest) (*domain.Group, error) {
	if creatorID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		return nil, domain.ErrInvalidName
	}

	ok, err := s.entSvc.HasActiveFeature(ctx, creatorID, entitlementdomain.FeatureGroupChat)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrFeatureRequired
	}

	now := s.clock.Now()
	group := &domain.Group{
		ID:          s.genID.Generate(),
		Name:        name,
		Slug:        slug.Make(name),
		Description: req.Description,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.CreateGroup(ctx, tx, group); err != nil {
			return err
		}

		owner := &domain.GroupMember{
			ID:       s.genID.Generate(),
			GroupID:  group.ID,
			UserID:   creatorID,
			Role:     domain.RoleOwner,
			JoinedAt: now,
		}
		return s.repo.AddMember(ctx, tx, owner)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("group created",
		zap.Int64("group_id", int64(group.ID)),
		zap.Int64("created_by", int64(creatorID)),
	)
	return group, nil
}

func (s *Service) AddMember(ctx context.Context, groupID, newUserID, actingUserID snowflake.ID) error {
	if groupID == 0 || newUserID == 0 || actingUserID == 0 {
		return domain.ErrInvalidUser
	}

	if err := s.requireManager(ctx, groupID, actingUserID); err != nil {
		return err
	}

	exists, err := s.userRepo.Exists(ctx, s.db, newUserID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrUserNotFound
	}

	member := &domain.GroupMember{
		ID:       s.genID.Generate(),
		GroupID:  groupID,
		UserID:   newUserID,
		Role:     domain.RoleMember,
		JoinedAt: s.clock.Now(),
	}
	if err := s.repo.AddMember(ctx, s.db, member); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrAlreadyMember
		}
		return err
	}

	s.log.Info("member added",
		zap.Int64("group_id", int64(groupID)),
		zap.Int64("user_id", int64(newUserID)),
		zap.Int64("acting_user_id", int64(actingUserID)),
	)
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, groupID, targetUserID, actingUserID snowflake.ID) error {
	if groupID == 0 || targetUserID == 0 || actingUserID == 0 {
		return domain.ErrInvalidUser
	}

	if err := s.requireManager(ctx, groupID, actingUserID); err != nil {
		return err
	}

	affected, err := s.repo.RemoveMember(ctx, s.db, groupID, targetUserID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrMemberNotFound
	}

	s.log.Info("member removed",
		zap.Int64("group_id", int64(groupID)),
		zap.Int64("user_id", int64(targetUserID)),
		zap.Int64("acting_user_id", int64(actingUserID)),
	)
	return nil
}

func (s *Service) DeleteGroup(ctx context.Context, groupID, actingUserID snowflake.ID) error {
	if groupID == 0 || actingUserID == 0 {
		return domain.ErrInvalidUser
	}

	group, err := s.repo.FindGroupByID(ctx, s.db, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return domain.ErrNotFound
	}

	if err := s.requireManager(ctx, groupID, actingUserID); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteGroupMessages(ctx, tx, groupID); err != nil {
			return err
		}
		if err := s.repo.RemoveMembers(ctx, tx, groupID); err != nil {
			return err
		}
		return s.repo.DeleteGroup(ctx, tx, groupID)
	})
	if err != nil {
		return err
	}

	s.log.Info("group deleted",
		zap.Int64("group_id", int64(groupID)),
		zap.Int64("acting_user_id", int64(actingUserID)),
	)
	return nil
}

func (s *Service) IsMember(ctx context.Context, userID, groupID snowflake.ID) (bool, error) {
	member, err := s.repo.FindMember(ctx, s.db, groupID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

func (s *Service) ListGroupsForUser(ctx context.Context, userID snowflake.ID) ([]domain.GroupSummary, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	return s.repo.ListGroupsByUser(ctx, s.db, userID)
}

func (s *Service) GetGroup(ctx context.Context, groupID snowflake.ID) (*domain.GroupDetail, error) {
	group, err := s.repo.FindGroupByID(ctx, s.db, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, domain.ErrNotFound
	}

	members, err := s.repo.ListMembers(ctx, s.db, groupID)
	if err != nil {
		return nil, err
	}
	return &domain.GroupDetail{Group: *group, Members: members}, nil
}

func (s *Service) MemberIDs(ctx context.Context, groupID snowflake.ID) ([]snowflake.ID, error) {
	return s.repo.ListMemberIDs(ctx, s.db, groupID)
}

// requireManager resolves the acting user's membership and rejects
// anything below admin.
func (s *Service) requireManager(ctx context.Context, groupID, actingUserID snowflake.ID) error {
	member, err := s.repo.FindMember(ctx, s.db, groupID, actingUserID)
	if err != nil {
		return err
	}
	if member == nil || !member.Role.CanManage() {
		return domain.ErrForbidden
	}
	return nil
}
