// Package config provides configuration management for vesmapper commands.
package config

import (
	"time"

	"github.com/solatis/vesmapper/internal/types"
)

// Config is the full vesmapper configuration.
type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	Rules   RulesConfig
	Log     LogConfig
}

// ServerConfig holds configuration for the gRPC mapping-rules service.
type ServerConfig struct {
	Host           string
	Port           int
	MetricsPort    int // 0 disables the metrics endpoint
	MaxConnections int
	RequestTimeout time.Duration
}

// CatalogConfig selects the VES catalog source. At most one of File and
// DatabaseURL is set.
type CatalogConfig struct {
	File        string // YAML catalog file
	DatabaseURL string // sqlite://path or postgres://...
}

// RulesConfig bounds rule processing.
type RulesConfig struct {
	MaxConditionDepth int
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           50061,
			MetricsPort:    9090,
			MaxConnections: 1000,
			RequestTimeout: 30 * time.Second,
		},
		Rules: RulesConfig{
			MaxConditionDepth: types.MaxConditionDepth,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// HasCatalog reports whether a catalog source is configured.
func (c *Config) HasCatalog() bool {
	return c.Catalog.File != "" || c.Catalog.DatabaseURL != ""
}
