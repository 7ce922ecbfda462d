// Package internal provides internal implementation details for configx.
//
// Overview:
//   - Responsibility: Implement the configuration sources (Env, Dotenv, File)
//   - Key Types: EnvSource, DotenvSource, FileSource
//   - Concurrency Model: All sources are safe for concurrent use
//   - Error Semantics: Missing files load as empty snapshots; parse errors are returned
//   - Performance Notes: File watching polls the modification time
package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go.barcircle.dev/web/core/log"
)

// EnvOptions configures environment variable source behavior.
type EnvOptions struct {
	Prefix string // Only keys with this prefix are loaded; the prefix is stripped
}

// EnvSource loads configuration from environment variables.
type EnvSource struct {
	prefix  string
	environ func() []string
}

// NewEnvSource creates a new environment variable source.
func NewEnvSource(opts EnvOptions) *EnvSource {
	return &EnvSource{prefix: opts.Prefix, environ: os.Environ}
}

// Load reads configuration from environment variables.
func (s *EnvSource) Load(ctx context.Context) (map[string]string, error) {
	pairs := make(map[string]string)
	for _, env := range s.environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		pairs[key] = value
	}
	return withPrefix(pairs, s.prefix), nil
}

// Watch never publishes; the environment is static for the process lifetime.
func (s *EnvSource) Watch(ctx context.Context) (<-chan map[string]string, error) {
	return idle(ctx), nil
}

// DotenvSource loads KEY=VALUE files through godotenv without touching the process environment.
type DotenvSource struct {
	files  []string
	prefix string
}

// NewDotenvSource creates a source reading files in order; later files win.
func NewDotenvSource(prefix string, files ...string) *DotenvSource {
	return &DotenvSource{files: files, prefix: prefix}
}

// Load reads every existing file. Missing files are skipped.
func (s *DotenvSource) Load(ctx context.Context) (map[string]string, error) {
	merged := make(map[string]string)
	for _, file := range s.files {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read dotenv %s: %w", file, err)
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	return withPrefix(merged, s.prefix), nil
}

// Watch never publishes.
func (s *DotenvSource) Watch(ctx context.Context) (<-chan map[string]string, error) {
	return idle(ctx), nil
}

// FileOptions configures file source behavior.
type FileOptions struct {
	Watch    bool          // Poll the file for changes
	Interval time.Duration // Polling interval (default: 1s)
	Logger   log.Logger
}

// FileSource loads a YAML (or JSON) document and flattens nested keys to UPPER_SNAKE.
//
//	backend:
//	  url: http://localhost:8080   ->  BACKEND_URL=http://localhost:8080
type FileSource struct {
	path     string
	watch    bool
	interval time.Duration
	logger   log.Logger
}

// NewFileSource creates a new file source.
func NewFileSource(path string, opts FileOptions) *FileSource {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &FileSource{path: path, watch: opts.Watch, interval: interval, logger: logger}
}

// Load reads configuration from the file. A missing file yields an empty snapshot.
func (s *FileSource) Load(ctx context.Context) (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", s.path, err)
	}
	return ParseYAML(data)
}

// Watch polls the file modification time and publishes a snapshot on change.
func (s *FileSource) Watch(ctx context.Context) (<-chan map[string]string, error) {
	if !s.watch {
		return idle(ctx), nil
	}

	var lastModTime time.Time
	if info, err := os.Stat(s.path); err == nil {
		lastModTime = info.ModTime()
	}

	ch := make(chan map[string]string)
	go func() {
		defer close(ch)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(s.path)
				if err != nil {
					if !errors.Is(err, fs.ErrNotExist) {
						s.logger.Error(err, "failed to stat config file", log.Str("path", s.path))
					}
					continue
				}
				if !info.ModTime().After(lastModTime) {
					continue
				}
				lastModTime = info.ModTime()

				snapshot, err := s.Load(ctx)
				if err != nil {
					s.logger.Error(err, "failed to reload config file", log.Str("path", s.path))
					continue
				}

				select {
				case ch <- snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// ParseYAML decodes a YAML document into a flat key space.
// Sequences are joined with commas; null values become empty strings.
func ParseYAML(data []byte) (map[string]string, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	out := make(map[string]string)
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, node any, out map[string]string) {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flatten(joinKey(prefix, k), v[k], out)
		}
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		out[prefix] = strings.Join(parts, ",")
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(v)
	}
}

func joinKey(prefix, key string) string {
	key = strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(key))
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

func withPrefix(pairs map[string]string, prefix string) map[string]string {
	if prefix == "" {
		return pairs
	}
	out := make(map[string]string, len(pairs))
	for k, v := range pairs {
		if trimmed, ok := strings.CutPrefix(k, prefix); ok && trimmed != "" {
			out[trimmed] = v
		}
	}
	return out
}
