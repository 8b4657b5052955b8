package testsupport

import (
	"path/filepath"
	"testing"

	"scout/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.TMDB.APIKey = "test"
	cfg.Overseerr.URL = "http://overseerr.test"
	cfg.Overseerr.APIKey = "test"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithJellyfin points the test config at a Jellyfin endpoint.
func WithJellyfin(url, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Jellyfin.URL = url
		cfg.Jellyfin.APIKey = apiKey
	}
}

// WithOverseerr points the test config at an Overseerr endpoint.
func WithOverseerr(url, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Overseerr.URL = url
		cfg.Overseerr.APIKey = apiKey
	}
}

// WithSubmitDelay overrides the delivery pacing delay in seconds.
func WithSubmitDelay(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Overseerr.SubmitDelaySeconds = seconds
	}
}
