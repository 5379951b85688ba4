package billing

import (
	"context"

	"github.com/bwmarrin/snowflake"
	entitlementdomain "github.com/smallbiznis/courier/internal/entitlement/domain"
)

// AcceptAllGateway approves every charge. Default for development and
// self-hosted deployments without a payment provider.
type AcceptAllGateway struct{}

func (AcceptAllGateway) Charge(ctx context.Context, userID snowflake.ID, feature entitlementdomain.Feature, months int) error {
	return nil
}
