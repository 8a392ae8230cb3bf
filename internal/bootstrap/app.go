package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"edupoints/internal/bootstrap/config"
	"edupoints/internal/bootstrap/database"
	"edupoints/internal/bootstrap/logging"
	"edupoints/internal/errs"
	"edupoints/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "edupoints/internal/infrastructure/persistence/sqlite/repository"
	"edupoints/internal/ports"
)

type App struct {
	Config config.Config
	DB     *gorm.DB
}

func New(ctx context.Context, configFile string) (*App, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "loading application config", slog.String("config_file", configFile))

	cfg, err := config.Load(logCtx, configFile)
	if err != nil {
		return nil, errs.Wrap(err, "load config")
	}

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, errs.Wrap(err, "open database")
	}

	logging.Info(logCtx, "application bootstrap completed", slog.String("database_driver", cfg.Database.Driver))

	return &App{
		Config: cfg,
		DB:     db,
	}, nil
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := a.DB.WithContext(ctx).AutoMigrate(
		&model.User{},
		&model.ExternalEvent{},
		&model.Grant{},
		&model.LedgerEntry{},
		&model.Submission{},
		&model.Badge{},
		&model.EarnedBadge{},
		&model.PointsKV{},
	); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	if err := a.seedBadges(ctx); err != nil {
		return errs.Wrap(err, "seed badge catalog")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}

// seedBadges installs the default badge catalog. Upsert keeps re-running
// init-db safe and lets threshold changes in a new release take effect.
func (a *App) seedBadges(ctx context.Context) error {
	repo := sqliterepo.NewPointsRepository(a.DB)
	for _, badge := range defaultBadges() {
		if err := repo.UpsertBadge(ctx, badge); err != nil {
			return err
		}
	}
	return nil
}

func defaultBadges() []ports.Badge {
	return []ports.Badge{
		{BadgeCode: "first_points", Name: "First Points", Description: "Earned any points at all", MinTotalPoints: 1},
		{BadgeCode: "bronze_educator", Name: "Bronze Educator", Description: "Reached 50 total points", MinTotalPoints: 50},
		{BadgeCode: "silver_educator", Name: "Silver Educator", Description: "Reached 150 total points", MinTotalPoints: 150},
		{BadgeCode: "gold_educator", Name: "Gold Educator", Description: "Reached 300 total points", MinTotalPoints: 300},
		{BadgeCode: "active_contributor", Name: "Active Contributor", Description: "Three approved submissions", MinTotalPoints: 1, MinApprovedSubmissions: 3},
	}
}

func (a *App) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	sqlDB, err := a.DB.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}

	if err := sqlDB.Close(); err != nil {
		return errs.Wrap(err, "close sql db")
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.app")), "database connection closed")
	return nil
}
