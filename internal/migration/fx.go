package migration

import (
	"github.com/smallbiznis/courier/internal/config"
	entitlementdomain "github.com/smallbiznis/courier/internal/entitlement/domain"
	groupdomain "github.com/smallbiznis/courier/internal/group/domain"
	messagedomain "github.com/smallbiznis/courier/internal/message/domain"
	"github.com/smallbiznis/courier/internal/seed"
	userdomain "github.com/smallbiznis/courier/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The versioned SQL migrations are written for Postgres. Other
		// dialects (sqlite in development) fall back to AutoMigrate.
		if cfg.DBType != "postgres" {
			err := conn.AutoMigrate(
				&userdomain.User{},
				&entitlementdomain.Entitlement{},
				&groupdomain.Group{},
				&groupdomain.GroupMember{},
				&messagedomain.Message{},
			)
			if err != nil {
				return err
			}
		} else {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if cfg.Environment == "development" {
			return seed.EnsureDemoUsers(conn)
		}
		return nil
	}),
)
