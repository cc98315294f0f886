package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/solatis/vesmapper/internal/types"
)

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"host":         "server.host",
	"port":         "server.port",
	"metrics-port": "server.metrics_port",
	"catalog":      "catalog.file",
	"db-url":       "catalog.db_url",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"max-depth":    "rules.max_condition_depth",
}

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence. flags may be
// nil; only flags the user actually set override lower layers.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults matching Default
	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.metrics_port", d.Server.MetricsPort)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout.String())
	v.SetDefault("catalog.file", "")
	v.SetDefault("catalog.db_url", "")
	v.SetDefault("rules.max_condition_depth", d.Rules.MaxConditionDepth)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	// Bind environment variables with VESMAPPER_ prefix
	v.SetEnvPrefix("VESMAPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			MetricsPort:    v.GetInt("server.metrics_port"),
			MaxConnections: v.GetInt("server.max_connections"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Catalog: CatalogConfig{
			File:        v.GetString("catalog.file"),
			DatabaseURL: v.GetString("catalog.db_url"),
		},
		Rules: RulesConfig{
			MaxConditionDepth: v.GetInt("rules.max_condition_depth"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port ranges, positive limits, log settings and that
// at most one catalog source is configured.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort < 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port must be between 0 and 65535, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.MetricsPort != 0 && cfg.Server.MetricsPort == cfg.Server.Port {
		return fmt.Errorf("metrics_port must differ from port %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Rules.MaxConditionDepth <= 0 || cfg.Rules.MaxConditionDepth > types.MaxConditionDepth {
		return fmt.Errorf("max_condition_depth must be between 1 and %d, got %d", types.MaxConditionDepth, cfg.Rules.MaxConditionDepth)
	}
	if cfg.Catalog.File != "" && cfg.Catalog.DatabaseURL != "" {
		return fmt.Errorf("catalog.file and catalog.db_url are mutually exclusive")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be json or text, got %q", cfg.Log.Format)
	}
	return nil
}
