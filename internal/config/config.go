// Package config provides configuration for the barcircle front-end shell and CLI.
//
// Overview:
//   - Responsibility: Application configuration loaded through configx
//   - Key Types: AppConfig embedding configx.BaseConfig
//   - Concurrency Model: Bound once at start-up, read-only afterwards
//   - Error Semantics: Binding and validation errors are returned from Load
//   - Performance Notes: None
//
// Usage:
//
//	cfg, err := config.Load(ctx, logger, "barcircle.yaml")
//	gw, err := clientx.New(cfg.BackendURL, cfg.GatewayOptions()...)
package config

import (
	"context"
	"fmt"
	"time"

	"go.barcircle.dev/web/clientx"
	"go.barcircle.dev/web/configx"
	"go.barcircle.dev/web/core/log"
	"go.barcircle.dev/web/core/utils"
)

// EnvPrefix namespaces every variable the application reads.
const EnvPrefix = "BARCIRCLE_"

// AppConfig extends BaseConfig with gateway, guard and shell settings.
type AppConfig struct {
	configx.BaseConfig

	BackendURL      string        `env:"BACKEND_URL" default:"http://localhost:8088" validate:"required,url"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" default:"30s" validate:"gt=0"`
	RetryMax        int           `env:"RETRY_MAX" default:"3" validate:"gte=0,lte=10"`
	RetryBaseDelay  time.Duration `env:"RETRY_BASE_DELAY" default:"1s" validate:"gte=0"`
	RetryMultiplier float64       `env:"RETRY_MULTIPLIER" default:"2" validate:"gte=1"`

	GuardMaxWait time.Duration `env:"GUARD_MAX_WAIT" default:"2s" validate:"gt=0"`

	BreakerEnabled   bool   `env:"BREAKER_ENABLED" default:"false"`
	BreakerThreshold uint32 `env:"BREAKER_THRESHOLD" default:"5" validate:"gte=1"`

	NoticeCapacity int      `env:"NOTICE_CAPACITY" default:"32" validate:"gte=1"`
	CORSOrigins    []string `env:"CORS_ORIGINS"`
}

// Validate checks relations between fields that tags cannot express.
func (c *AppConfig) Validate() error {
	if c.RetryMax > 0 && c.RetryBaseDelay == 0 {
		return fmt.Errorf("retry base delay must be positive when retries are enabled")
	}
	if c.HTTPPort == c.HealthPort || c.HTTPPort == c.MetricsPort {
		return fmt.Errorf("http port %s collides with the health or metrics port", c.HTTPPort)
	}
	return nil
}

// Backoff returns the retry schedule for connection failures.
func (c *AppConfig) Backoff() utils.Backoff {
	return utils.Backoff{
		MaxRetries: c.RetryMax,
		BaseDelay:  c.RetryBaseDelay,
		Multiplier: c.RetryMultiplier,
	}
}

// GatewayOptions translates the settings into clientx options.
func (c *AppConfig) GatewayOptions() []clientx.Option {
	opts := []clientx.Option{
		clientx.WithTimeout(c.RequestTimeout),
		clientx.WithBackoff(c.Backoff()),
	}
	if c.BreakerEnabled {
		opts = append(opts, clientx.WithCircuitBreaker(c.BreakerThreshold))
	}
	return opts
}

// Sources returns the configuration layers: YAML file < .env < environment.
func Sources(file string) []configx.Source {
	return configx.DefaultSources(EnvPrefix, file, ".env")
}

// Load reads and validates the configuration. file may be empty.
func Load(ctx context.Context, logger log.Logger, file string) (*AppConfig, error) {
	cfg, _, err := Open(ctx, logger, file)
	return cfg, err
}

// Open is Load that also returns the manager, which keeps watching the
// sources until ctx is done.
func Open(ctx context.Context, logger log.Logger, file string) (*AppConfig, configx.Manager, error) {
	mgr, err := configx.NewManager(ctx, configx.Options{
		Logger:  logger,
		Sources: Sources(file),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("config manager: %w", err)
	}

	var cfg AppConfig
	if err := mgr.Bind(&cfg); err != nil {
		return nil, nil, fmt.Errorf("bind config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, mgr, nil
}
