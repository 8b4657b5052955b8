package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"scout/internal/logging"
	"scout/internal/services/overseerr"
)

// Submitter files one request with the downstream service.
type Submitter interface {
	Submit(ctx context.Context, request overseerr.Request) error
}

// Worker is the single queue consumer. One worker per process; the
// submitting status guard in the store backs that up.
type Worker struct {
	store     *Store
	submitter Submitter
	logger    *slog.Logger

	delay        time.Duration
	pollInterval time.Duration
	maxAttempts  int

	// OnDrained fires after the worker empties a non-empty queue. Used
	// for the queue-drained notification.
	OnDrained func(ctx context.Context, stats Stats)
}

// WorkerConfig bundles the worker's tunables.
type WorkerConfig struct {
	SubmitDelay  time.Duration
	PollInterval time.Duration
	MaxAttempts  int
}

// NewWorker builds a queue worker.
func NewWorker(store *Store, submitter Submitter, cfg WorkerConfig, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.SubmitDelay < 0 {
		cfg.SubmitDelay = 0
	}
	return &Worker{
		store:        store,
		submitter:    submitter,
		logger:       logger.With(logging.String(logging.FieldComponent, "delivery")),
		delay:        cfg.SubmitDelay,
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxAttempts,
	}
}

// Run drains the queue until the context is canceled. Entries left in
// submitting by an earlier process are requeued before the loop starts, so
// a restart resumes cleanly.
func (w *Worker) Run(ctx context.Context) error {
	requeued, err := w.store.ResetSubmitting(ctx)
	if err != nil {
		return err
	}
	if requeued > 0 {
		w.logger.Info("requeued interrupted entries", logging.Int64("count", requeued))
	}

	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry, err := w.store.NextQueued(ctx)
		if err != nil {
			w.logger.Error("queue poll failed", logging.Error(err))
			if !w.sleep(ctx, w.pollInterval) {
				return ctx.Err()
			}
			continue
		}
		if entry == nil {
			if processed > 0 {
				w.drained(ctx)
				processed = 0
			}
			if !w.sleep(ctx, w.pollInterval) {
				return ctx.Err()
			}
			continue
		}

		w.process(ctx, entry)
		processed++

		// Pace submissions so the request service sees at most one
		// request per delay window.
		if w.delay > 0 && !w.sleep(ctx, w.delay) {
			return ctx.Err()
		}
	}
}

// ProcessOne claims and submits a single entry. Exposed for the run-now
// path and tests; Run uses the same code.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	entry, err := w.store.NextQueued(ctx)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	w.process(ctx, entry)
	return true, nil
}

func (w *Worker) process(ctx context.Context, entry *Entry) {
	if err := w.store.MarkSubmitting(ctx, entry.ID); err != nil {
		w.logger.Warn("claim failed", logging.Int64(logging.FieldEntryID, entry.ID), logging.Error(err))
		return
	}

	err := w.submitter.Submit(ctx, overseerr.Request{
		MediaType: string(entry.MediaType),
		MediaID:   entry.TMDBID,
	})
	switch {
	case err == nil:
		w.complete(ctx, entry)
	case errors.Is(err, overseerr.ErrAlreadyRequested):
		// The service already has this title; treat as delivered.
		w.logger.Info("already requested downstream",
			logging.Int64(logging.FieldEntryID, entry.ID),
			logging.String("title", entry.Title))
		w.complete(ctx, entry)
	default:
		status, markErr := w.store.MarkFailed(ctx, entry.ID, err.Error(), w.maxAttempts)
		if markErr != nil {
			w.logger.Error("record failure failed",
				logging.Int64(logging.FieldEntryID, entry.ID), logging.Error(markErr))
			return
		}
		w.logger.Warn("submission failed",
			logging.Int64(logging.FieldEntryID, entry.ID),
			logging.String("title", entry.Title),
			logging.String("status", string(status)),
			logging.Error(err))
	}
}

func (w *Worker) complete(ctx context.Context, entry *Entry) {
	if err := w.store.MarkSubmitted(ctx, entry.ID); err != nil {
		w.logger.Error("record success failed",
			logging.Int64(logging.FieldEntryID, entry.ID), logging.Error(err))
		return
	}
	w.logger.Info("request submitted",
		logging.Int64(logging.FieldEntryID, entry.ID),
		logging.String("title", entry.Title),
		logging.String("media_type", string(entry.MediaType)))
}

func (w *Worker) drained(ctx context.Context) {
	stats, err := w.store.Stats(ctx)
	if err != nil {
		w.logger.Warn("stats after drain failed", logging.Error(err))
		return
	}
	w.logger.Info("queue drained",
		logging.Int("submitted", stats.Submitted),
		logging.Int("failed", stats.Failed))
	if w.OnDrained != nil {
		w.OnDrained(ctx, stats)
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
