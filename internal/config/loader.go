package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime configuration of the transport service. Values
// come from an optional YAML file, overridden by TRANSPORT_* environment
// variables.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	SessionTTL      time.Duration
	RequestCutoff   time.Duration
	MaintenanceSpec string
	LogFormat       string
	LogLevel        string
}

// fileConfig mirrors Config for YAML decoding. Durations are strings in
// time.ParseDuration syntax.
type fileConfig struct {
	HTTPPort        *int    `yaml:"http_port"`
	SQLiteDSN       *string `yaml:"sqlite_dsn"`
	SessionTTL      *string `yaml:"session_ttl"`
	RequestCutoff   *string `yaml:"request_cutoff"`
	MaintenanceSpec *string `yaml:"maintenance_spec"`
	LogFormat       *string `yaml:"log_format"`
	LogLevel        *string `yaml:"log_level"`
}

// Default returns the configuration used when no file or overrides are set.
func Default() Config {
	return Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:transport.db",
		SessionTTL:      24 * time.Hour,
		RequestCutoff:   time.Hour,
		MaintenanceSpec: "@hourly",
		LogFormat:       "json",
		LogLevel:        "info",
	}
}

// Load reads configuration from path, when non-empty, then applies
// environment overrides. A missing file at the default path is not an error;
// an explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("config file %s does not exist", path)
		case err != nil:
			return Config{}, fmt.Errorf("read config file: %w", err)
		default:
			var file fileConfig
			if err := yaml.Unmarshal(data, &file); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
			if err := file.apply(&cfg); err != nil {
				return Config{}, fmt.Errorf("config file %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (f fileConfig) apply(cfg *Config) error {
	if f.HTTPPort != nil {
		cfg.HTTPPort = *f.HTTPPort
	}
	if f.SQLiteDSN != nil {
		cfg.SQLiteDSN = *f.SQLiteDSN
	}
	if f.SessionTTL != nil {
		ttl, err := time.ParseDuration(*f.SessionTTL)
		if err != nil {
			return fmt.Errorf("session_ttl: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	if f.RequestCutoff != nil {
		cutoff, err := time.ParseDuration(*f.RequestCutoff)
		if err != nil {
			return fmt.Errorf("request_cutoff: %w", err)
		}
		cfg.RequestCutoff = cutoff
	}
	if f.MaintenanceSpec != nil {
		cfg.MaintenanceSpec = *f.MaintenanceSpec
	}
	if f.LogFormat != nil {
		cfg.LogFormat = *f.LogFormat
	}
	if f.LogLevel != nil {
		cfg.LogLevel = *f.LogLevel
	}
	return nil
}

func applyEnv(cfg *Config) error {
	invalid := make([]string, 0, 2)

	if value := strings.TrimSpace(os.Getenv("TRANSPORT_HTTP_PORT")); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 {
			invalid = append(invalid, "TRANSPORT_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}
	if value := strings.TrimSpace(os.Getenv("TRANSPORT_SQLITE_DSN")); value != "" {
		cfg.SQLiteDSN = value
	}
	if value := strings.TrimSpace(os.Getenv("TRANSPORT_SESSION_TTL")); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "TRANSPORT_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}
	if value := strings.TrimSpace(os.Getenv("TRANSPORT_REQUEST_CUTOFF")); value != "" {
		cutoff, err := time.ParseDuration(value)
		if err != nil || cutoff <= 0 {
			invalid = append(invalid, "TRANSPORT_REQUEST_CUTOFF")
		} else {
			cfg.RequestCutoff = cutoff
		}
	}
	if value := strings.TrimSpace(os.Getenv("TRANSPORT_MAINTENANCE_SPEC")); value != "" {
		cfg.MaintenanceSpec = value
	}
	if value := strings.TrimSpace(os.Getenv("TRANSPORT_LOG_FORMAT")); value != "" {
		cfg.LogFormat = value
	}
	if value := strings.TrimSpace(os.Getenv("TRANSPORT_LOG_LEVEL")); value != "" {
		cfg.LogLevel = value
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func (c Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http port %d out of range", c.HTTPPort)
	}
	if strings.TrimSpace(c.SQLiteDSN) == "" {
		return fmt.Errorf("sqlite dsn must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if c.RequestCutoff <= 0 {
		return fmt.Errorf("request cutoff must be positive")
	}
	return nil
}
