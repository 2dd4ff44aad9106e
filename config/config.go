package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// CLEANER_REGISTRY__DIALECT=postgres.
const EnvPrefix = "CLEANER_"

type ArtifactsConfig struct {
	Root string `koanf:"root"`
}

type RegistryConfig struct {
	Dialect string `koanf:"dialect"`
	DSN     string `koanf:"dsn"`
}

type TrackingConfig struct {
	Project string `koanf:"project"`
	Group   string `koanf:"group"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
	Color bool   `koanf:"color"`
}

type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url"`
}

// Config holds all application configuration.
type Config struct {
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Registry  RegistryConfig  `koanf:"registry"`
	Tracking  TrackingConfig  `koanf:"tracking"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// Load reads .env into the environment, then merges the optional YAML file at
// path with CLEANER_* environment variables (nesting delimiter "__").
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: file %q does not exist", path)
			}
			return nil, fmt.Errorf("config: load %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps CLEANER_METRICS__PUSHGATEWAY_URL to metrics.pushgateway_url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func applyDefaults(c *Config) {
	if c.Artifacts.Root == "" {
		c.Artifacts.Root = "./artifacts"
	}
	if c.Registry.Dialect == "" {
		c.Registry.Dialect = "sqlite"
	}
	if c.Registry.DSN == "" && c.Registry.Dialect == "sqlite" {
		c.Registry.DSN = filepath.Join(c.Artifacts.Root, "registry.db")
	}
	if c.Tracking.Project == "" {
		c.Tracking.Project = "nyc_airbnb"
	}
	if c.Tracking.Group == "" {
		c.Tracking.Group = "cleaning"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	switch c.Registry.Dialect {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: registry.dialect must be sqlite or postgres, got %q", c.Registry.Dialect)
	}
	if c.Registry.DSN == "" {
		return fmt.Errorf("config: registry.dsn is required for dialect %q", c.Registry.Dialect)
	}
	return nil
}
