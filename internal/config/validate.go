package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if err := c.validateOverseerr(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/scout/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'scout config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateJellyfin() error {
	// Jellyfin is only required for recommendation jobs; discover jobs run
	// without it. Reject half-configured sections either way.
	if c.Jellyfin.URL == "" && c.Jellyfin.APIKey == "" {
		return nil
	}
	if c.Jellyfin.URL == "" {
		return errors.New("jellyfin.url must be set when jellyfin.api_key is configured")
	}
	if c.Jellyfin.APIKey == "" {
		return errors.New("jellyfin.api_key must be set when jellyfin.url is configured")
	}
	if !strings.HasPrefix(c.Jellyfin.URL, "http://") && !strings.HasPrefix(c.Jellyfin.URL, "https://") {
		return fmt.Errorf("jellyfin.url must start with http:// or https://, got %q", c.Jellyfin.URL)
	}
	return nil
}

func (c *Config) validateOverseerr() error {
	if c.Overseerr.URL == "" {
		return errors.New("overseerr.url must be set")
	}
	if !strings.HasPrefix(c.Overseerr.URL, "http://") && !strings.HasPrefix(c.Overseerr.URL, "https://") {
		return fmt.Errorf("overseerr.url must start with http:// or https://, got %q", c.Overseerr.URL)
	}
	if c.Overseerr.APIKey == "" {
		return errors.New("overseerr.api_key must be set")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	return ensurePositiveMap(map[string]int{
		"scheduler.tick_interval":        c.Scheduler.TickInterval,
		"scheduler.error_retry_interval": c.Scheduler.ErrorRetryInterval,
		"scheduler.queue_poll_interval":  c.Scheduler.QueuePollInterval,
		"overseerr.request_timeout":      c.Overseerr.RequestTimeout,
		"overseerr.max_attempts":         c.Overseerr.MaxAttempts,
		"resolver.provider_timeout":      c.Resolver.ProviderTimeout,
		"notifications.request_timeout":  c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
