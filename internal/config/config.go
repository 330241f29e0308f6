// Package config handles TOML configuration loading with environment
// variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Provider   ProviderConfig   `toml:"provider"`
	RateLimit  RateLimitConfig  `toml:"ratelimit"`
	Enrichment EnrichmentConfig `toml:"enrichment"`
	Cache      CacheConfig      `toml:"cache"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ProviderConfig struct {
	APIKey            string   `toml:"api_key"`
	BaseURL           string   `toml:"base_url"`
	Timeout           Duration `toml:"timeout"`
	DetailRetries     int      `toml:"detail_retries"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

type RateLimitConfig struct {
	Window      Duration `toml:"window"`
	MaxRequests int      `toml:"max_requests"`
}

type EnrichmentConfig struct {
	MaxConcurrency int `toml:"max_concurrency"`
}

type CacheConfig struct {
	// TTL of zero means stored records never expire.
	TTL           Duration `toml:"ttl"`
	PruneInterval Duration `toml:"prune_interval"`
}

// Duration wraps time.Duration for TOML decoding of strings like "60s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/cinego.db"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = Duration(10 * time.Second)
	}
	if cfg.Provider.DetailRetries == 0 {
		cfg.Provider.DetailRetries = 2
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = Duration(time.Minute)
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 5
	}
	if cfg.Enrichment.MaxConcurrency == 0 {
		cfg.Enrichment.MaxConcurrency = 5
	}
	if cfg.Cache.PruneInterval == 0 {
		cfg.Cache.PruneInterval = Duration(time.Hour)
	}

	return &cfg, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}
