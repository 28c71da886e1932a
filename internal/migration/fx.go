package migration

import (
	"github.com/glanzwerk/beleg/internal/config"
	"github.com/glanzwerk/beleg/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, holder *config.PricingConfigHolder) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		return seed.EnsureSettings(conn, holder.Current())
	}),
)
