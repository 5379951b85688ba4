package message

import (
	"github.com/smallbiznis/courier/internal/message/repository"
	"github.com/smallbiznis/courier/internal/message/service"
	"go.uber.org/fx"
)

var Module = fx.Module("message.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
