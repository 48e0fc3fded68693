package sizecache

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the cache options.
//
//	capacity_bytes: 1048576
//	eviction_policy: lfu
//	compression:
//	  enabled: true
//	  algorithm: zstd
//	oversize: reject
//	enforce_ttl: true
//	cleanup_interval: 30s
//	log:
//	  level: debug
//	  format: json
type Config struct {
	CapacityBytes  int64  `yaml:"capacity_bytes"`
	EvictionPolicy string `yaml:"eviction_policy"`

	Compression struct {
		Enabled   bool   `yaml:"enabled"`
		Algorithm string `yaml:"algorithm"`
	} `yaml:"compression"`

	Oversize        string        `yaml:"oversize"`
	EnforceTTL      bool          `yaml:"enforce_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig mirrors the defaults of New.
func DefaultConfig() Config {
	var cfg Config
	cfg.CapacityBytes = DefaultCapacity
	cfg.EvictionPolicy = string(LRU)
	cfg.Compression.Algorithm = CodecZstd
	cfg.Oversize = string(AdmitOversize)
	cfg.EnforceTTL = true
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// LoadConfig reads a YAML file. Fields missing from the file keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.CapacityBytes <= 0 {
		return fmt.Errorf("%w: capacity_bytes must be positive, got %d", ErrInvalidConfig, c.CapacityBytes)
	}
	if _, err := ParsePolicy(c.EvictionPolicy); err != nil {
		return err
	}
	if _, err := parseOversize(c.Oversize); err != nil {
		return err
	}
	if c.Compression.Enabled {
		switch strings.ToLower(c.Compression.Algorithm) {
		case CodecZstd, CodecS2, CodecGzip, CodecLZ4, "":
		default:
			return fmt.Errorf("%w: unknown codec %q", ErrInvalidConfig, c.Compression.Algorithm)
		}
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("%w: cleanup_interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Options converts the config into constructor options. The logger is
// not included; build it with Log.NewLogger and pass WithLogger.
func (c Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	policy, _ := ParsePolicy(c.EvictionPolicy)
	oversize, _ := parseOversize(c.Oversize)

	opts := []Option{
		WithCapacity(c.CapacityBytes),
		WithEvictionPolicy(policy),
		WithOversizePolicy(oversize),
		WithTTLEnforcement(c.EnforceTTL),
		WithCleanupInterval(c.CleanupInterval),
	}
	if c.Compression.Enabled {
		codec, err := CodecByName(c.Compression.Algorithm)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCompression(codec))
	}
	return opts, nil
}

// NewLogger builds a text or JSON slog logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(l.Level)}
	if strings.ToLower(l.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseOversize(s string) (OversizePolicy, error) {
	switch p := OversizePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case AdmitOversize, RejectOversize:
		return p, nil
	case "":
		return AdmitOversize, nil
	default:
		return "", fmt.Errorf("%w: unknown oversize policy %q", ErrInvalidConfig, s)
	}
}
