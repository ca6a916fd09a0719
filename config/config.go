// Package config loads bridge configuration from defaults, an optional YAML
// file and NODEBRIDGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// NODEBRIDGE_BRIDGE_FLUSH_TIMEOUT=500ms.
const EnvPrefix = "NODEBRIDGE"

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BridgeConfig configures an execution context.
type BridgeConfig struct {
	// FlushTimeout bounds the wait for the renderer to acknowledge a flush.
	FlushTimeout time.Duration `mapstructure:"flush_timeout" yaml:"flush_timeout"`
	// RootTag is the reserved tag that maps to the fixed root target id.
	RootTag           string  `mapstructure:"root_tag" yaml:"root_tag"`
	DefaultPixelRatio float64 `mapstructure:"default_pixel_ratio" yaml:"default_pixel_ratio"`
}

// RendererConfig configures the headless renderer.
type RendererConfig struct {
	ViewportWidth  int  `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int  `mapstructure:"viewport_height" yaml:"viewport_height"`
	Record         bool `mapstructure:"record" yaml:"record"`
}

// Config is the complete configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Bridge   BridgeConfig   `mapstructure:"bridge" yaml:"bridge"`
	Renderer RendererConfig `mapstructure:"renderer" yaml:"renderer"`
}

// SetDefaults installs default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "nodebridge")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("bridge.flush_timeout", "2s")
	v.SetDefault("bridge.root_tag", "HTML")
	v.SetDefault("bridge.default_pixel_ratio", 1.0)

	v.SetDefault("renderer.viewport_width", 1024)
	v.SetDefault("renderer.viewport_height", 768)
	v.SetDefault("renderer.record", true)
}

// NewDefaultConfig returns the defaults without reading files or the environment.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return cfg
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return NewConfigFromViper(v)
}

// NewConfigFromViper unmarshals and validates v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks for values the bridge cannot run with.
func (c *Config) Validate() error {
	if c.Bridge.FlushTimeout <= 0 {
		return errors.New("bridge.flush_timeout must be positive")
	}
	if c.Bridge.RootTag == "" {
		return errors.New("bridge.root_tag must not be empty")
	}
	if c.Bridge.DefaultPixelRatio <= 0 {
		return errors.New("bridge.default_pixel_ratio must be positive")
	}
	if c.Renderer.ViewportWidth <= 0 || c.Renderer.ViewportHeight <= 0 {
		return errors.New("renderer viewport must be positive")
	}
	return nil
}
