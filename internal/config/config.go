package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v *viper.Viper

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	reloadErr error
}

// NewManager creates a new config manager and loads initial config.
// Without cfgFile, config.yaml is searched for in searchPaths, or in the
// working directory and $HOME/.clementine when none are given.
func NewManager(cfgFile string, searchPaths ...string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile, searchPaths); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string, searchPaths []string) error {
	v := cm.v
	defaults := DefaultConfig()
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("presets.dir", defaults.Presets.Dir)
	v.SetDefault("presets.watch", defaults.Presets.Watch)
	v.SetDefault("cache.ttl", defaults.Cache.TTL)
	v.SetDefault("cache.cleanup_interval", defaults.Cache.CleanupInterval)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("validation.max_concurrency", defaults.Validation.MaxConcurrency)

	// Environment variables with CLEMENTINE_ prefix, e.g. CLEMENTINE_SERVER_PORT
	v.SetEnvPrefix("CLEMENTINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if len(searchPaths) == 0 {
			searchPaths = []string{".", "$HOME/.clementine"}
		}
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// File returns the config file in use, or "" when running on defaults.
func (cm *Manager) File() string {
	return cm.v.ConfigFileUsed()
}

// ReloadErr returns the error of the last failed reload, if any.
// The previous configuration stays active after a failed reload.
func (cm *Manager) ReloadErr() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.reloadErr
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
// It does nothing when no config file was found.
func (cm *Manager) WatchConfig() {
	if cm.File() == "" {
		return
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.mu.Lock()
			cm.reloadErr = err
			cm.mu.Unlock()
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		cm.reloadErr = nil
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// document renders cfg in key order with human-readable durations.
func (c *Config) document() yaml.MapSlice {
	return yaml.MapSlice{
		{Key: "server", Value: yaml.MapSlice{
			{Key: "host", Value: c.Server.Host},
			{Key: "port", Value: c.Server.Port},
		}},
		{Key: "presets", Value: yaml.MapSlice{
			{Key: "dir", Value: c.Presets.Dir},
			{Key: "watch", Value: c.Presets.Watch},
		}},
		{Key: "cache", Value: yaml.MapSlice{
			{Key: "ttl", Value: c.Cache.TTL.String()},
			{Key: "cleanup_interval", Value: c.Cache.CleanupInterval.String()},
		}},
		{Key: "logging", Value: yaml.MapSlice{
			{Key: "level", Value: c.Logging.Level},
			{Key: "format", Value: c.Logging.Format},
		}},
		{Key: "validation", Value: yaml.MapSlice{
			{Key: "max_concurrency", Value: c.Validation.MaxConcurrency},
		}},
	}
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg.document())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Clementine configuration
# Every key can be overridden with a CLEMENTINE_ environment variable,
# e.g. CLEMENTINE_SERVER_PORT=9090 or CLEMENTINE_LOGGING_LEVEL=debug.
# presets.dir supports ${ENV_VAR} syntax; leave it empty to use the home directory.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
