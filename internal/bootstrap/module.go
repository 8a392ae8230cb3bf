package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"edupoints/internal/bootstrap/config"
	"edupoints/internal/bootstrap/database"
	"edupoints/internal/bootstrap/logging"
	cacheinfra "edupoints/internal/infrastructure/cache"
	sqliterepo "edupoints/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "edupoints/internal/infrastructure/persistence/sqlite/uow"
	"edupoints/internal/ports"
	"edupoints/internal/usecase/points"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewPointsRepository,
			fx.As(new(ports.PointsRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(providePointsConfig),
	fx.Provide(points.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func providePointsConfig(cfg config.Config) points.Config {
	return points.Config{
		EligibleTags:        cfg.Points.EligibleTags,
		ExcludedAccountType: cfg.Points.ExcludedAccountType,
		FreshnessWindow:     cfg.Webhook.FreshnessWindow,
		CompletionPoints:    cfg.Points.CompletionPoints,
	}
}
