// Package config handles configuration loading for finboard.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Sources SourcesConfig `mapstructure:"sources" yaml:"sources"`
	Cache   CacheConfig   `mapstructure:"cache"   yaml:"cache"`
	View    ViewConfig    `mapstructure:"view"    yaml:"view"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SourcesConfig holds the upstream endpoints.
type SourcesConfig struct {
	ComponentsURL string `mapstructure:"components_url"  yaml:"components_url"`
	QuotesBaseURL string `mapstructure:"quotes_base_url" yaml:"quotes_base_url"`
}

// CacheConfig holds cache TTLs in seconds. 0 means process-lifetime caching.
type CacheConfig struct {
	ComponentsTTL int `mapstructure:"components_ttl" yaml:"components_ttl"`
	QuotesTTL     int `mapstructure:"quotes_ttl"     yaml:"quotes_ttl"`
}

// ViewConfig holds derived-view defaults.
type ViewConfig struct {
	DefaultWindow int   `mapstructure:"default_window" yaml:"default_window"`
	DefaultSMA    []int `mapstructure:"default_sma"    yaml:"default_sma"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.finboard/config.yaml (home directory)
//  3. /etc/finboard/config.yaml (system)
//
// Environment variables override config file values.
// Format: FINBOARD_<SECTION>_<KEY>, e.g., FINBOARD_API_PORT
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".finboard"))
	v.AddConfigPath("/etc/finboard")

	v.SetEnvPrefix("FINBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// missing config file is fine, defaults and env vars apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("FINBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("sources.components_url", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies")
	v.SetDefault("sources.quotes_base_url", "https://query1.finance.yahoo.com")

	// Cache defaults: components and quotes live for the whole process
	v.SetDefault("cache.components_ttl", 0)
	v.SetDefault("cache.quotes_ttl", 0)

	// View defaults
	v.SetDefault("view.default_window", 500)
	v.SetDefault("view.default_sma", []int{20, 100})

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
