package billing

import (
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(func() Gateway { return AcceptAllGateway{} }),
	fx.Provide(New),
)
