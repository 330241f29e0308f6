package config

import (
	"fmt"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Provider.APIKey == "" {
		errs = append(errs, "provider.api_key: required")
	}

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Provider.Timeout < 0 {
		errs = append(errs, "provider.timeout: must not be negative")
	}
	if c.Provider.DetailRetries < 0 {
		errs = append(errs, "provider.detail_retries: must not be negative")
	}
	if c.Provider.RequestsPerSecond < 0 {
		errs = append(errs, "provider.requests_per_second: must not be negative")
	}

	if c.RateLimit.Window.Std() <= 0 {
		errs = append(errs, "ratelimit.window: must be positive")
	}
	if c.RateLimit.MaxRequests < 1 {
		errs = append(errs, "ratelimit.max_requests: must be at least 1")
	}

	if c.Enrichment.MaxConcurrency < 1 {
		errs = append(errs, "enrichment.max_concurrency: must be at least 1")
	}

	if c.Cache.TTL < 0 {
		errs = append(errs, "cache.ttl: must not be negative")
	}

	return errs
}
