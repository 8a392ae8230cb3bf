package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"edupoints/internal/bootstrap/logging"
	"edupoints/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Points   PointsConfig   `mapstructure:"points"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type WebhookConfig struct {
	// Secret is the shared secret for the learning-platform signature.
	Secret string `mapstructure:"secret"`
	// AllowUnsigned lets unsigned payloads through. Honored only outside
	// production; see Config.PermissiveSignature.
	AllowUnsigned   bool          `mapstructure:"allow_unsigned"`
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
}

type PointsConfig struct {
	// EligibleTags overrides the built-in completion-tag allowlist when set.
	EligibleTags []string `mapstructure:"eligible_tags"`
	// CompletionPoints is the fixed ledger delta per completion tag.
	CompletionPoints    int    `mapstructure:"completion_points"`
	ExcludedAccountType string `mapstructure:"excluded_account_type"`
}

// PermissiveSignature reports whether unsigned webhook deliveries may pass.
// Production deployments always verify, regardless of allow_unsigned.
func (c Config) PermissiveSignature() bool {
	return c.Webhook.AllowUnsigned && !strings.EqualFold(strings.TrimSpace(c.App.Env), "production")
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("EP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Webhook.FreshnessWindow <= 0 {
		return Config{}, errors.New("webhook.freshness_window must be positive")
	}
	if cfg.Points.CompletionPoints <= 0 {
		return Config{}, errors.New("points.completion_points must be positive")
	}

	if cfg.PermissiveSignature() {
		logging.Warn(logCtx, "webhook signature verification is permissive", slog.String("env", cfg.App.Env))
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "edupoints")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/edupoints.sqlite")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.allow_unsigned", false)
	v.SetDefault("webhook.freshness_window", 5*time.Minute)
	v.SetDefault("points.eligible_tags", []string{})
	v.SetDefault("points.completion_points", 10)
	v.SetDefault("points.excluded_account_type", "student")
}
