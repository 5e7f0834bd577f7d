// Package config loads the engine's process configuration from environment
// variables (and an optional .env file) via viper, using its
// SetDefault/BindEnv/Unmarshal pattern.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config is the engine's process configuration: where mappings live on
// disk, how strictly they're validated, and how the HTTP facade and
// hot-reload watcher behave.
type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	MappingBaseDir    string        `mapstructure:"MAPPING_BASE_DIR"`
	FHIRVersion       string        `mapstructure:"FHIR_VERSION"`
	StrictValidation  bool          `mapstructure:"STRICT_VALIDATION"`
	HotReloadEnabled  bool          `mapstructure:"HOT_RELOAD_ENABLED"`
	HotReloadDebounce time.Duration `mapstructure:"HOT_RELOAD_DEBOUNCE"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from the environment (and ./.env, if present)
// into a Config, applying the engine's defaults first.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("MAPPING_BASE_DIR", "./configs/mappings")
	v.SetDefault("FHIR_VERSION", "R4")
	v.SetDefault("STRICT_VALIDATION", true)
	v.SetDefault("HOT_RELOAD_ENABLED", true)
	v.SetDefault("HOT_RELOAD_DEBOUNCE", "500ms")
	v.SetDefault("LOG_LEVEL", "info")

	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("MAPPING_BASE_DIR")
	v.BindEnv("FHIR_VERSION")
	v.BindEnv("STRICT_VALIDATION")
	v.BindEnv("HOT_RELOAD_ENABLED")
	v.BindEnv("HOT_RELOAD_DEBOUNCE")
	v.BindEnv("LOG_LEVEL")

	// Try reading .env, but don't fail if it's absent.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.MappingBaseDir == "" {
		return nil, fmt.Errorf("config: MAPPING_BASE_DIR is required")
	}

	if cfg.IsDev() {
		log.Println("config: running in development mode (ENV=development)")
	}

	return cfg, nil
}

// IsDev reports whether Env is "development".
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction reports whether Env is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the configuration is safe to run with.
func (c *Config) Validate() error {
	if c.MappingBaseDir == "" {
		return fmt.Errorf("config: MAPPING_BASE_DIR must not be empty")
	}
	if c.HotReloadEnabled && c.HotReloadDebounce <= 0 {
		return fmt.Errorf("config: HOT_RELOAD_DEBOUNCE must be positive when hot reload is enabled")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: LOG_LEVEL must be one of debug/info/warn/error, got %q", c.LogLevel)
	}
	return nil
}
