// Package billing records entitlements sold through the external
// payment collaborator. Payment processing itself happens elsewhere;
// this service only charges the black-box gateway and grants on success.
package billing

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	entitlementdomain "github.com/smallbiznis/courier/internal/entitlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Simplified: 30 days per purchased month.
const daysPerMonth = 30

var (
	ErrInvalidMonths  = errors.New("invalid_months")
	ErrPaymentFailed  = errors.New("payment_failed")
	ErrInvalidFeature = errors.New("invalid_feature")
)

// Gateway is the external payment collaborator. Only success or
// failure is observable.
type Gateway interface {
	Charge(ctx context.Context, userID snowflake.ID, feature entitlementdomain.Feature, months int) error
}

type Service struct {
	log     *zap.Logger
	gateway Gateway
	entSvc  entitlementdomain.Service
}

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	Gateway Gateway
	EntSvc  entitlementdomain.Service
}

func New(p ServiceParam) *Service {
	return &Service{
		log:     p.Log.Named("billing"),
		gateway: p.Gateway,
		entSvc:  p.EntSvc,
	}
}

// PurchaseFeature charges the gateway and, on success, grants the
// feature for months * 30 days. A gateway failure grants nothing.
func (s *Service) PurchaseFeature(ctx context.Context, userID snowflake.ID, feature entitlementdomain.Feature, months int) (*entitlementdomain.Entitlement, error) {
	if months < 1 {
		return nil, ErrInvalidMonths
	}
	if !feature.Valid() {
		return nil, ErrInvalidFeature
	}

	if err := s.gateway.Charge(ctx, userID, feature, months); err != nil {
		s.log.Warn("charge declined",
			zap.Int64("user_id", int64(userID)),
			zap.String("feature", string(feature)),
			zap.Error(err),
		)
		return nil, ErrPaymentFailed
	}

	duration := time.Duration(months) * daysPerMonth * 24 * time.Hour
	ent, err := s.entSvc.Grant(ctx, userID, feature, duration)
	if err != nil {
		return nil, err
	}

	s.log.Info("feature purchased",
		zap.Int64("user_id", int64(userID)),
		zap.String("feature", string(feature)),
		zap.Int("months", months),
	)
	return ent, nil
}
