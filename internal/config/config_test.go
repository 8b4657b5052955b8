package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scout/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[tmdb]
api_key = "secret"

[overseerr]
url = "http://localhost:5055"
api_key = "token"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to be loaded, got %s exists=%v", path, resolved, exists)
	}
	if cfg.TMDB.BaseURL == "" || cfg.TMDB.Language != "en-US" {
		t.Fatalf("expected TMDB defaults, got %+v", cfg.TMDB)
	}
	if cfg.Overseerr.MaxAttempts != 3 {
		t.Fatalf("expected default max_attempts 3, got %d", cfg.Overseerr.MaxAttempts)
	}
	if cfg.Scheduler.TickInterval != 30 {
		t.Fatalf("expected default tick interval, got %d", cfg.Scheduler.TickInterval)
	}
}

func TestLoadRequiresTMDBKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	os.Unsetenv("TMDB_API_KEY")
	path := writeConfig(t, `
[overseerr]
url = "http://localhost:5055"
api_key = "token"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("expected tmdb.api_key error, got %v", err)
	}
}

func TestLoadTMDBKeyFromEnvironment(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")
	path := writeConfig(t, `
[overseerr]
url = "http://localhost:5055"
api_key = "token"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TMDB.APIKey != "env-key" {
		t.Fatalf("expected key from env, got %q", cfg.TMDB.APIKey)
	}
}

func TestLoadRejectsHalfConfiguredJellyfin(t *testing.T) {
	path := writeConfig(t, `
[tmdb]
api_key = "secret"

[jellyfin]
url = "http://localhost:8096"

[overseerr]
url = "http://localhost:5055"
api_key = "token"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "jellyfin.api_key") {
		t.Fatalf("expected jellyfin.api_key error, got %v", err)
	}
}

func TestLoadRejectsInvalidLanguageTag(t *testing.T) {
	path := writeConfig(t, `
[tmdb]
api_key = "secret"
language = "not a tag"

[overseerr]
url = "http://localhost:5055"
api_key = "token"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "tmdb.language") {
		t.Fatalf("expected language error, got %v", err)
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	path := writeConfig(t, `
[tmdb]
api_key = "secret"

[overseerr]
url = "http://localhost:5055"
api_key = "token"

[logging]
format = "xml"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}

func TestSubmitDelayZeroIsAllowed(t *testing.T) {
	path := writeConfig(t, `
[tmdb]
api_key = "secret"

[overseerr]
url = "http://localhost:5055"
api_key = "token"
submit_delay_seconds = 0
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Overseerr.SubmitDelaySeconds != 0 {
		t.Fatalf("expected zero submit delay preserved, got %d", cfg.Overseerr.SubmitDelaySeconds)
	}
}
