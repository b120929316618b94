package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	instance *Config
	once     sync.Once
)

// Config is the root configuration structure for the reasoning engine.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Registry RegistryConfig `mapstructure:"registry"`
	Resolver ResolverConfig `mapstructure:"resolver"`
}

// ColorConfig defines the color settings for different log levels.
// These are used for console output to make logs more readable.
type ColorConfig struct {
	Debug string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" json:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error string `mapstructure:"error" json:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" json:"fatal" yaml:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// RegistryConfig holds settings for the event template registry.
// TemplatePath, when set, overrides the conventional search paths the same
// way the MATRIX_EVENT_TEMPLATES environment variable does.
type RegistryConfig struct {
	TemplatePath string `mapstructure:"template_path"`
}

// ResolverConfig holds settings for gap execution.
type ResolverConfig struct {
	SearchTimeout  time.Duration `mapstructure:"search_timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
}

// SetDefaults registers sane defaults so the engine can run with an empty
// config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "matrix-engine")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")
	v.SetDefault("resolver.search_timeout", 60*time.Second)
	v.SetDefault("resolver.max_concurrency", 4)
}

// Load initializes the configuration singleton from Viper.
func Load(v *viper.Viper) error {
	var loadErr error
	once.Do(func() {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = fmt.Errorf("error unmarshaling config: %w", err)
			return
		}
		instance = &cfg
	})
	return loadErr
}

// Get returns the loaded configuration instance.
func Get() *Config {
	if instance == nil {
		panic("configuration not initialized: call config.Load first")
	}
	return instance
}

// FromViper builds a standalone Config without touching the singleton.
// Embedding callers that manage their own lifecycle use this instead of
// Load/Get.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}
