package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

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

// Daemon owns the long-running process: the scheduler loop, the delivery
// worker, and the HTTP control API. It enforces single-instance execution
// with a file lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *storage.DB
	jobStore *jobs.Store
	queue    *delivery.Store

	scheduler *scheduler.Scheduler
	worker    *delivery.Worker
	notifier  notifications.Service

	jobSvc     *api.JobService
	historySvc *api.HistoryService
	queueSvc   *api.QueueService

	server *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New wires the daemon's dependencies from configuration. The Jellyfin
// provider is optional; without it, recommendation jobs fail at run time
// and library exclusions are skipped.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
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

	jobStore := jobs.NewStore(db.Handle())
	queueStore := delivery.NewStore(db.Handle())
	notifier := notifications.NewService(cfg)

	res := resolver.New(catalog, history, cfg.Resolver, logger)
	sched := scheduler.New(cfg, jobStore, queueStore, res, history, requester, notifier, logger)

	worker := delivery.NewWorker(queueStore, requester, delivery.WorkerConfig{
		SubmitDelay:  time.Duration(cfg.Overseerr.SubmitDelaySeconds) * time.Second,
		PollInterval: time.Duration(cfg.Scheduler.QueuePollInterval) * time.Second,
		MaxAttempts:  cfg.Overseerr.MaxAttempts,
	}, logger)
	worker.OnDrained = func(ctx context.Context, stats delivery.Stats) {
		if err := notifier.NotifyQueueDrained(ctx, stats.Submitted, stats.Failed); err != nil {
			logger.Warn("queue drained notification failed", logging.Error(err))
		}
	}

	d := &Daemon{
		cfg:        cfg,
		logger:     logger.With(logging.String(logging.FieldComponent, "daemon")),
		db:         db,
		jobStore:   jobStore,
		queue:      queueStore,
		scheduler:  sched,
		worker:     worker,
		notifier:   notifier,
		jobSvc:     api.NewJobService(jobStore, sched),
		historySvc: api.NewHistoryService(jobStore),
		queueSvc:   api.NewQueueService(queueStore),
		lockPath:   filepath.Join(cfg.Paths.LogDir, "scoutd.lock"),
	}
	d.lock = flock.New(d.lockPath)
	d.server = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock and launches the scheduler loop, the
// delivery worker, and the control API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scout daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.server.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		if err := d.scheduler.Loop(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("scheduler loop exited", logging.Error(err))
		}
	}()
	go func() {
		defer d.wg.Done()
		if err := d.worker.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("delivery worker exited", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("scout daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background work and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("scout daemon stopped")
}

// Close stops the daemon and releases the database.
func (d *Daemon) Close() error {
	d.Stop()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// APIAddr returns the control API listen address, empty when the API is
// disabled or not started.
func (d *Daemon) APIAddr() string {
	return d.server.addr()
}

// Jobs exposes the job control surface.
func (d *Daemon) Jobs() *api.JobService { return d.jobSvc }

// History exposes the execution history surface.
func (d *Daemon) History() *api.HistoryService { return d.historySvc }

// Queue exposes the delivery queue surface.
func (d *Daemon) Queue() *api.QueueService { return d.queueSvc }

// Status reports daemon runtime information.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DBPath:       d.db.Path(),
		LockFilePath: d.lockPath,
	}
	if list, err := d.jobStore.ListJobs(ctx); err == nil {
		status.Jobs = len(list)
		for _, job := range list {
			if job.Enabled {
				status.JobsEnabled++
			}
		}
	}
	if stats, err := d.queue.Stats(ctx); err == nil {
		status.Queue = api.FromQueueStats(stats)
	}
	return status
}

// DatabaseHealth returns storage diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (storage.Health, error) {
	return d.db.CheckHealth(ctx)
}

// TestNotification sends a test message through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
