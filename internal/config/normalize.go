package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTMDB(); err != nil {
		return err
	}
	c.normalizeJellyfin()
	c.normalizeOverseerr()
	c.normalizeResolver()
	c.normalizeScheduler()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeTMDB() error {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if _, err := language.Parse(c.TMDB.Language); err != nil {
		return fmt.Errorf("tmdb.language: invalid BCP-47 tag %q: %w", c.TMDB.Language, err)
	}
	c.TMDB.Region = strings.ToUpper(strings.TrimSpace(c.TMDB.Region))
	if c.TMDB.Region == "" {
		c.TMDB.Region = defaultTMDBRegion
	}
	return nil
}

func (c *Config) normalizeJellyfin() {
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
}

func (c *Config) normalizeOverseerr() {
	c.Overseerr.URL = strings.TrimRight(strings.TrimSpace(c.Overseerr.URL), "/")
	c.Overseerr.APIKey = strings.TrimSpace(c.Overseerr.APIKey)
	if c.Overseerr.RequestTimeout <= 0 {
		c.Overseerr.RequestTimeout = defaultRequestTimeout
	}
	if c.Overseerr.SubmitDelaySeconds < 0 {
		c.Overseerr.SubmitDelaySeconds = 0
	}
	if c.Overseerr.MaxAttempts <= 0 {
		c.Overseerr.MaxAttempts = defaultMaxAttempts
	}
}

func (c *Config) normalizeResolver() {
	if c.Resolver.WatchedPerUser <= 0 {
		c.Resolver.WatchedPerUser = defaultWatchedPerUser
	}
	if c.Resolver.MaxSimilarMovie <= 0 {
		c.Resolver.MaxSimilarMovie = defaultMaxSimilarMovie
	}
	if c.Resolver.MaxSimilarTV <= 0 {
		c.Resolver.MaxSimilarTV = defaultMaxSimilarTV
	}
	if c.Resolver.Parallelism <= 0 {
		c.Resolver.Parallelism = defaultResolverParallel
	}
	if c.Resolver.ProviderTimeout <= 0 {
		c.Resolver.ProviderTimeout = defaultProviderTimeout
	}
}

func (c *Config) normalizeScheduler() {
	if c.Scheduler.TickInterval <= 0 {
		c.Scheduler.TickInterval = defaultTickInterval
	}
	if c.Scheduler.ErrorRetryInterval <= 0 {
		c.Scheduler.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Scheduler.QueuePollInterval <= 0 {
		c.Scheduler.QueuePollInterval = defaultQueuePollInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
