package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/glanzwerk/beleg/internal/cache"
	"github.com/glanzwerk/beleg/internal/clock"
	"github.com/glanzwerk/beleg/internal/config"
	"github.com/glanzwerk/beleg/internal/customer"
	"github.com/glanzwerk/beleg/internal/document"
	"github.com/glanzwerk/beleg/internal/events"
	"github.com/glanzwerk/beleg/internal/logger"
	"github.com/glanzwerk/beleg/internal/migration"
	"github.com/glanzwerk/beleg/internal/server"
	"github.com/glanzwerk/beleg/internal/settings"
	"github.com/glanzwerk/beleg/internal/vehicle"
	"github.com/glanzwerk/beleg/internal/workrecord"
	"github.com/glanzwerk/beleg/pkg/db"
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

		events.Module,
		cache.Module,
		customer.Module,
		vehicle.Module,
		settings.Module,
		workrecord.Module,
		document.Module,

		server.Module,
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
