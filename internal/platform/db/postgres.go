package db

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mozilla-services/cjms-sub000/internal/models"
	cfgpkg "github.com/mozilla-services/cjms-sub000/pkg/config"
	gormzap "github.com/mozilla-services/cjms-sub000/pkg/gormlog"
)

// Open connects to postgres with error translation enabled so unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(l *zap.SugaredLogger, databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		l.Error("database URL is empty")
		return nil, gorm.ErrInvalidDB
	}
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         gormzap.New(l),
		TranslateError: true,
	})
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	l.Infow("connected to postgres")
	return db, nil
}

func NewDB(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	return Open(l, cfg.DatabaseURL)
}

var Module = fx.Options(
	fx.Provide(NewDB),
	fx.Invoke(AutoMigrate),
	fx.Invoke(registerDBClose),
)

// AutoMigrate creates the four pipeline tables.
func AutoMigrate(l *zap.SugaredLogger, db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.AttributionCookie{},
		&models.ArchivedAttributionCookie{},
		&models.Subscription{},
		&models.Refund{},
	); err != nil {
		l.Errorf("automigrate failed: %v", err)
		return err
	}
	l.Infow("automigrate completed")
	return nil
}

// registerDBClose ensures the underlying *sql.DB is closed on shutdown.
func registerDBClose(lc fx.Lifecycle, l *zap.SugaredLogger, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				l.Warnw("gorm: get sql.DB failed", "err", err)
				return nil
			}
			l.Infow("closing postgres connection pool")
			return sqlDB.Close()
		},
	})
}
