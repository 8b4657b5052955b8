package scheduler

import (
	"context"
	"fmt"
	"time"

	"scout/internal/dedup"
	"scout/internal/delivery"
	"scout/internal/filter"
	"scout/internal/jobs"
	"scout/internal/logging"
	"scout/internal/media"
	"scout/internal/resolver"
	"scout/internal/services"
)

// Run executes one firing of the job: resolve, filter, dedup, truncate,
// enqueue. Exactly one execution record is written, running first and
// completed or failed on the way out.
func (s *Scheduler) Run(ctx context.Context, job *jobs.Job) (*Outcome, error) {
	if !s.claim(job.ID) {
		s.logger.Info("skipping firing, previous execution still running",
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldJobName, job.Name),
			logging.String(logging.FieldEventType, "job_skipped"))
		return nil, fmt.Errorf("job %s: %w", job.ID, ErrJobRunning)
	}
	defer s.release(job.ID)

	exec, err := s.store.CreateExecution(ctx, job.ID, job.Name)
	if err != nil {
		return nil, fmt.Errorf("create execution: %w", err)
	}
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithExecutionID(ctx, exec.ID)

	s.logger.Info("job started",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobName, job.Name),
		logging.String(logging.FieldExecutionID, exec.ID),
		logging.String("job_type", string(job.Type)),
		logging.String(logging.FieldEventType, "job_started"))

	accepted, err := s.pipeline(ctx, job)
	if err != nil {
		return nil, s.fail(ctx, job, exec.ID, err)
	}

	requested, err := s.enqueue(ctx, job, accepted)
	if err != nil {
		return nil, s.fail(ctx, job, exec.ID, err)
	}

	if err := s.store.CompleteExecution(ctx, exec.ID, len(accepted), requested); err != nil {
		return nil, fmt.Errorf("complete execution: %w", err)
	}
	s.scheduleNext(ctx, job, false)

	s.logger.Info("job completed",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobName, job.Name),
		logging.String(logging.FieldExecutionID, exec.ID),
		logging.Int("results", len(accepted)),
		logging.Int("requested", requested),
		logging.String(logging.FieldEventType, "job_completed"))
	if err := s.notifier.NotifyJobCompleted(ctx, job.Name, len(accepted), requested); err != nil {
		s.logger.Warn("completion notification failed", logging.Error(err))
	}

	return &Outcome{
		ExecutionID: exec.ID,
		Results:     len(accepted),
		Requested:   requested,
		Candidates:  accepted,
	}, nil
}

// RunNow fires a job immediately, bypassing its schedule. Works on
// disabled jobs; manual triggers are explicit operator intent.
func (s *Scheduler) RunNow(ctx context.Context, jobID string) (*Outcome, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s: %w", jobID, jobs.ErrNotFound)
	}
	return s.Run(ctx, job)
}

// pipeline resolves candidates and applies the filter and dedup gates in
// order, truncating to MaxResults last so the strongest survivors win.
func (s *Scheduler) pipeline(ctx context.Context, job *jobs.Job) ([]media.Candidate, error) {
	resolved, err := s.resolver.Resolve(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	enriched := s.resolver.Enrich(ctx, resolved, job.Filters)
	filtered := filter.Apply(enriched, job.Filters)

	gate, err := dedup.Load(ctx, s.history, s.requester, dedup.Options{
		ExcludeDownloaded: job.ExcludeDownloaded,
		ExcludeRequested:  job.ExcludeRequested,
		HonorDiscovery:    job.HonorDiscovery,
	})
	if err != nil {
		return nil, fmt.Errorf("dedup: %w", err)
	}

	survivors := make([]media.Candidate, 0, len(filtered))
	for _, candidate := range filtered {
		ok, reason := gate.Check(candidate)
		if !ok {
			s.logger.Debug("candidate rejected",
				logging.String(logging.FieldJobID, job.ID),
				logging.Int64("tmdb_id", candidate.ID),
				logging.String("title", candidate.Title),
				logging.String("reason", reason))
			continue
		}
		survivors = append(survivors, candidate)
	}

	s.logger.Debug("pipeline finished",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("resolved", len(resolved)),
		logging.Int("filtered", len(filtered)),
		logging.Int("accepted", len(survivors)))

	return resolver.Truncate(survivors, job.MaxResults), nil
}

// enqueue hands accepted candidates to the delivery queue. Returns how
// many were actually inserted; titles already active in the queue are
// counted out so requested never exceeds results.
func (s *Scheduler) enqueue(ctx context.Context, job *jobs.Job, candidates []media.Candidate) (int, error) {
	requested := 0
	for _, candidate := range candidates {
		inserted, err := s.queue.Enqueue(ctx, &delivery.Entry{
			TMDBID:    candidate.ID,
			MediaType: candidate.MediaType,
			Title:     candidate.Title,
			JobID:     job.ID,
		})
		if err != nil {
			return requested, fmt.Errorf("enqueue %q: %w", candidate.Title, err)
		}
		if inserted {
			requested++
		}
	}
	return requested, nil
}

// fail records the failure, pushes the next run out by the error retry
// interval, and notifies. The returned error wraps the pipeline error.
func (s *Scheduler) fail(ctx context.Context, job *jobs.Job, executionID string, cause error) error {
	if err := s.store.FailExecution(ctx, executionID, cause.Error()); err != nil {
		s.logger.Error("record failure failed",
			logging.String(logging.FieldExecutionID, executionID), logging.Error(err))
	}
	s.scheduleNext(ctx, job, true)

	s.logger.Error("job failed",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobName, job.Name),
		logging.String(logging.FieldExecutionID, executionID),
		logging.String(logging.FieldEventType, "job_failed"),
		logging.Error(cause))
	if err := s.notifier.NotifyJobFailed(ctx, job.Name, cause.Error()); err != nil {
		s.logger.Warn("failure notification failed", logging.Error(err))
	}
	return fmt.Errorf("job %s: %w", job.Name, cause)
}

// scheduleNext advances next_run. Failures retry sooner than the regular
// schedule so a transient outage does not cost a whole interval.
func (s *Scheduler) scheduleNext(ctx context.Context, job *jobs.Job, failed bool) {
	now := time.Now().UTC()
	var next time.Time
	if failed {
		retry := time.Duration(s.cfg.Scheduler.ErrorRetryInterval) * time.Second
		if retry <= 0 {
			retry = 5 * time.Minute
		}
		next = now.Add(retry)
	} else {
		computed, err := jobs.NextRun(job.Schedule, now)
		if err != nil {
			s.logger.Error("next run computation failed",
				logging.String(logging.FieldJobID, job.ID), logging.Error(err))
			return
		}
		next = computed
	}
	if err := s.store.SetNextRun(ctx, job.ID, next); err != nil {
		s.logger.Error("persist next run failed",
			logging.String(logging.FieldJobID, job.ID), logging.Error(err))
	}
}
