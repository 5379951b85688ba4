package alertworker

import (
	"context"

	"github.com/smallbiznis/courier/internal/notification"
	"go.uber.org/fx"
)

var Module = fx.Module("alertworker",
	fx.Provide(func(s *notification.Service) Notifier { return s }),
	fx.Provide(New),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, w *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go w.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
