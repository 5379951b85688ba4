package group

import (
	"github.com/smallbiznis/courier/internal/group/repository"
	"github.com/smallbiznis/courier/internal/group/service"
	"go.uber.org/fx"
)

var Module = fx.Module("group.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
