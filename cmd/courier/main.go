package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/internal/alertworker"
	"github.com/smallbiznis/courier/internal/clock"
	"github.com/smallbiznis/courier/internal/config"
	"github.com/smallbiznis/courier/internal/logger"
	"github.com/smallbiznis/courier/internal/migration"
	"github.com/smallbiznis/courier/internal/server"
	"github.com/smallbiznis/courier/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		server.Module,
		alertworker.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
