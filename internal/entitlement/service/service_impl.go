package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/internal/clock"
	"github.com/smallbiznis/courier/internal/entitlement/domain"
	"github.com/smallbiznis/courier/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

func New(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("entitlement.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) HasActiveFeature(ctx context.Context, userID snowflake.ID, feature domain.Feature) (bool, error) {
	if userID == 0 {
		return false, domain.ErrInvalidUser
	}
	if !feature.Valid() {
		return false, domain.ErrInvalidFeature
	}

	count, err := s.repo.CountActive(ctx, s.db, userID, feature, s.clock.Now())
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) Grant(ctx context.Context, userID snowflake.ID, feature domain.Feature, duration time.Duration) (*domain.Entitlement, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	if !feature.Valid() {
		return nil, domain.ErrInvalidFeature
	}
	if duration <= 0 {
		return nil, domain.ErrInvalidDuration
	}

	ent, err := s.grant(ctx, userID, feature, duration)
	if db.IsDuplicateKeyErr(err) {
		// Lost the insert race against a concurrent first grant for the
		// same pair. The row exists now, so the retry takes the extend path.
		ent, err = s.grant(ctx, userID, feature, duration)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("feature granted",
		zap.Int64("user_id", int64(userID)),
		zap.String("feature", string(feature)),
		zap.Time("end_at", ent.EndAt),
	)
	return ent, nil
}

func (s *Service) grant(ctx context.Context, userID snowflake.ID, feature domain.Feature, duration time.Duration) (*domain.Entitlement, error) {
	now := s.clock.Now()

	var ent *domain.Entitlement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindForUpdate(ctx, tx, userID, feature)
		if err != nil {
			return err
		}

		if existing == nil {
			ent = &domain.Entitlement{
				ID:        s.genID.Generate(),
				UserID:    userID,
				Feature:   feature,
				StartAt:   now,
				EndAt:     now.Add(duration),
				CreatedAt: now,
				UpdatedAt: now,
			}
			return s.repo.Create(ctx, tx, ent)
		}

		if existing.ActiveAt(now) {
			// Extension stacks on the remaining time.
			existing.EndAt = existing.EndAt.Add(duration)
		} else {
			// Renewal of an expired grant restarts the window from now.
			existing.StartAt = now
			existing.EndAt = now.Add(duration)
		}
		existing.UpdatedAt = now
		ent = existing
		return s.repo.Update(ctx, tx, existing)
	})
	if err != nil {
		return nil, err
	}
	return ent, nil
}

func (s *Service) Revoke(ctx context.Context, userID snowflake.ID, feature domain.Feature) (bool, error) {
	if userID == 0 {
		return false, domain.ErrInvalidUser
	}
	if !feature.Valid() {
		return false, domain.ErrInvalidFeature
	}

	affected, err := s.repo.Delete(ctx, s.db, userID, feature)
	if err != nil {
		return false, err
	}
	if affected > 0 {
		s.log.Info("feature revoked",
			zap.Int64("user_id", int64(userID)),
			zap.String("feature", string(feature)),
		)
	}
	return affected > 0, nil
}

func (s *Service) ListForUser(ctx context.Context, userID snowflake.ID) ([]domain.Entitlement, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *Service) ListExpiringWithin(ctx context.Context, window time.Duration) ([]domain.Entitlement, error) {
	if window <= 0 {
		return nil, domain.ErrInvalidDuration
	}
	now := s.clock.Now()
	return s.repo.ListEndingBetween(ctx, s.db, now, now.Add(window))
}

func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.repo.DeleteEndedBefore(ctx, s.db, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.log.Info("expired entitlements purged", zap.Int64("count", purged))
	}
	return purged, nil
}
