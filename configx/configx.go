// Package configx provides layered configuration with struct binding and validation.
//
// Overview:
//   - Responsibility: Merge env, dotenv and YAML file sources; bind into tagged structs
//   - Key Types: Source interface, Manager interface, Options for configuration
//   - Concurrency Model: Manager is safe for concurrent use, sources must be thread-safe
//   - Error Semantics: Initialization, binding and validation failures are returned
//   - Performance Notes: File updates are debounced; reads copy the merged snapshot
//
// Usage:
//
//	mgr, err := configx.NewManager(ctx, configx.Options{
//	  Logger:  logger,
//	  Sources: configx.DefaultSources("BARCIRCLE_", "barcircle.yaml", ".env"),
//	})
//	var cfg AppConfig
//	err = mgr.Bind(&cfg)
package configx

import (
	"context"
	"fmt"
	"time"

	"go.barcircle.dev/web/configx/internal"
	"go.barcircle.dev/web/core/log"
)

// Source describes a configuration source that can load and watch for updates.
type Source = internal.Source

// Manager manages multiple configuration sources and provides unified access.
// Later sources take precedence; empty values never override.
type Manager interface {
	// Snapshot returns a copy of the current merged configuration.
	Snapshot() map[string]string

	// Value returns the value for a key and whether it exists.
	Value(key string) (string, bool)

	// Bind decodes the configuration into a struct with env/default tags,
	// then validates it with `validate` tags.
	Bind(target any) error

	// OnUpdate subscribes to configuration update events.
	// Returns an unsubscribe function.
	OnUpdate(fn func(snapshot map[string]string)) (unsubscribe func())
}

// Options holds configuration for the manager.
type Options struct {
	Logger   log.Logger    // Logger for configuration operations
	Sources  []Source      // Configuration sources (later sources override earlier ones)
	Debounce time.Duration // Debounce duration for file updates (default: 200ms)
}

// BaseConfig holds the fields every barcircle process reads.
type BaseConfig struct {
	ServiceName    string `env:"SERVICE_NAME" default:"barcircle-web"`
	ServiceVersion string `env:"SERVICE_VERSION" default:"0.0.0"`
	Env            string `env:"ENV" default:"dev" validate:"oneof=dev test staging prod"`
	LogLevel       string `env:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	LogFormat      string `env:"LOG_FORMAT" default:"logfmt" validate:"oneof=logfmt json"`
	LogColor       bool   `env:"LOG_COLOR" default:"false"`

	HTTPPort    string `env:"HTTP_PORT" default:":8080"`
	HealthPort  string `env:"HEALTH_PORT" default:":8081"`
	MetricsPort string `env:"METRICS_PORT" default:":9091"`
}

type manager struct {
	impl *internal.ManagerImpl
}

// NewManager loads every source and keeps watching until ctx is done.
func NewManager(ctx context.Context, opts Options) (Manager, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if len(opts.Sources) == 0 {
		return nil, fmt.Errorf("at least one source is required")
	}

	impl, err := internal.NewManager(opts.Logger, opts.Sources, opts.Debounce)
	if err != nil {
		return nil, err
	}
	if err := impl.Initialize(ctx); err != nil {
		return nil, err
	}
	return &manager{impl: impl}, nil
}

func (m *manager) Snapshot() map[string]string {
	return m.impl.Snapshot()
}

func (m *manager) Value(key string) (string, bool) {
	return m.impl.Value(key)
}

func (m *manager) Bind(target any) error {
	if target == nil {
		return fmt.Errorf("target cannot be nil")
	}
	if err := m.impl.Bind(target); err != nil {
		return err
	}
	return ValidateStruct(nil, target)
}

func (m *manager) OnUpdate(fn func(snapshot map[string]string)) func() {
	return m.impl.OnUpdate(fn)
}

// EnvOptions configures environment variable source behavior.
type EnvOptions = internal.EnvOptions

// FileOptions configures file source behavior.
type FileOptions = internal.FileOptions

// NewEnvSource creates an environment variable configuration source.
func NewEnvSource(opts EnvOptions) Source {
	return internal.NewEnvSource(opts)
}

// NewDotenvSource creates a source reading KEY=VALUE files; later files win.
func NewDotenvSource(prefix string, files ...string) Source {
	return internal.NewDotenvSource(prefix, files...)
}

// NewFileSource creates a YAML file configuration source.
func NewFileSource(path string, opts FileOptions) Source {
	return internal.NewFileSource(path, opts)
}

// DefaultSources returns file < dotenv < environment, skipping empty paths.
func DefaultSources(prefix, file string, dotenvFiles ...string) []Source {
	var sources []Source
	if file != "" {
		sources = append(sources, NewFileSource(file, FileOptions{}))
	}
	if len(dotenvFiles) > 0 {
		sources = append(sources, NewDotenvSource(prefix, dotenvFiles...))
	}
	return append(sources, NewEnvSource(EnvOptions{Prefix: prefix}))
}
