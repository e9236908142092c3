package config

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"
)

// Config holds clementine configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
	Presets    PresetsCfg    `mapstructure:"presets" yaml:"presets"`
	Cache      CacheCfg      `mapstructure:"cache" yaml:"cache"`
	Logging    LoggingCfg    `mapstructure:"logging" yaml:"logging"`
	Validation ValidationCfg `mapstructure:"validation" yaml:"validation"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// PresetsCfg configures where preset documents live.
type PresetsCfg struct {
	Dir   string `mapstructure:"dir" yaml:"dir"`     // Empty means {home}/presets; supports ${ENV_VAR}
	Watch bool   `mapstructure:"watch" yaml:"watch"` // Reload files edited outside the server
}

// CacheCfg configures the preview cache.
type CacheCfg struct {
	TTL             time.Duration `mapstructure:"ttl" yaml:"ttl"`                           // 0 keeps entries until invalidated
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"` // 0 disables purging
}

// LoggingCfg configures the server logger.
type LoggingCfg struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// ValidationCfg configures batch validation.
type ValidationCfg struct {
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Presets: PresetsCfg{
			Watch: true,
		},
		Cache: CacheCfg{
			TTL:             10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Logging: LoggingCfg{
			Level:  "info",
			Format: "text",
		},
		Validation: ValidationCfg{
			MaxConcurrency: 4,
		},
	}
}

// Validate checks values viper cannot check while decoding.
func (c *Config) Validate() error {
	if _, err := c.Logging.level(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	if c.Cache.TTL < 0 || c.Cache.CleanupInterval < 0 {
		return fmt.Errorf("cache durations must not be negative")
	}
	if c.Validation.MaxConcurrency < 0 {
		return fmt.Errorf("validation.max_concurrency must not be negative")
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (s ServerCfg) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// ResolveDir returns the presets directory, expanding ${ENV_VAR} references.
// fallback is used when no directory is configured.
func (p PresetsCfg) ResolveDir(fallback string) string {
	if dir := ResolveEnvVars(p.Dir); dir != "" {
		return dir
	}
	return fallback
}

func (l LoggingCfg) level() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown logging.level %q", l.Level)
	}
}

// NewLogger builds a slog logger writing to w.
func (l LoggingCfg) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
