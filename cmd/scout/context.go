package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"scout/internal/api"
	"scout/internal/config"
	"scout/internal/delivery"
	"scout/internal/jobs"
	"scout/internal/logging"
	"scout/internal/notifications"
	"scout/internal/resolver"
	"scout/internal/scheduler"
	"scout/internal/services/jellyfin"
	"scout/internal/services/overseerr"
	"scout/internal/services/tmdb"
	"scout/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// cliServices bundles the store-backed services CLI commands run against.
// Commands operate on the shared database directly; a running daemon picks
// queued work up through the same file.
type cliServices struct {
	cfg     *config.Config
	db      *storage.DB
	jobs    *api.JobService
	history *api.HistoryService
	queue   *api.QueueService
	worker  *delivery.Worker
}

func (s *cliServices) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (c *commandContext) openServices() (*cliServices, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	catalog, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	requester, err := overseerr.New(cfg.Overseerr.URL, cfg.Overseerr.APIKey)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create request client: %w", err)
	}

	var history jellyfin.History
	if strings.TrimSpace(cfg.Jellyfin.URL) != "" {
		client, err := jellyfin.New(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create watch history client: %w", err)
		}
		history = client
	}

	logger := logging.NewNop()
	jobStore := jobs.NewStore(db.Handle())
	queueStore := delivery.NewStore(db.Handle())
	notifier := notifications.NewService(cfg)
	res := resolver.New(catalog, history, cfg.Resolver, logger)
	sched := scheduler.New(cfg, jobStore, queueStore, res, history, requester, notifier, logger)
	worker := delivery.NewWorker(queueStore, requester, delivery.WorkerConfig{
		SubmitDelay: time.Duration(cfg.Overseerr.SubmitDelaySeconds) * time.Second,
		MaxAttempts: cfg.Overseerr.MaxAttempts,
	}, logger)

	return &cliServices{
		cfg:     cfg,
		db:      db,
		jobs:    api.NewJobService(jobStore, sched),
		history: api.NewHistoryService(jobStore),
		queue:   api.NewQueueService(queueStore),
		worker:  worker,
	}, nil
}

// withServices opens the store-backed services, runs fn, and closes them.
func (c *commandContext) withServices(fn func(*cliServices) error) error {
	services, err := c.openServices()
	if err != nil {
		return err
	}
	defer services.Close()
	return fn(services)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
