package api

import (
	"context"
	"fmt"
	"time"

	"scout/internal/jobs"
	"scout/internal/scheduler"
)

// Runner abstracts the scheduler operations the job service triggers.
type Runner interface {
	RunNow(ctx context.Context, jobID string) (*scheduler.Outcome, error)
	DryRun(ctx context.Context, jobID string) (*scheduler.Preview, error)
	RunFromPreview(ctx context.Context, jobID string) (*scheduler.Outcome, error)
	Running(jobID string) bool
}

// JobService exposes job CRUD and manual triggers returning API DTOs.
type JobService struct {
	store  *jobs.Store
	runner Runner
}

// NewJobService constructs a JobService. runner may be nil for read-only
// consumers; trigger operations then fail with a configuration error.
func NewJobService(store *jobs.Store, runner Runner) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store, runner: runner}
}

// Create validates and persists a new job.
func (s *JobService) Create(ctx context.Context, draft JobDraft) (JobView, error) {
	job := JobFromDraft(draft)
	if err := s.store.CreateJob(ctx, job); err != nil {
		return JobView{}, err
	}
	return FromJob(job), nil
}

// List returns all jobs ordered by name.
func (s *JobService) List(ctx context.Context) ([]JobView, error) {
	list, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	return FromJobs(list), nil
}

// Describe fetches a single job.
func (s *JobService) Describe(ctx context.Context, id string) (JobView, error) {
	job, err := s.fetch(ctx, id)
	if err != nil {
		return JobView{}, err
	}
	return FromJob(job), nil
}

// Update replaces a job's mutable fields with the draft. The next run is
// recomputed when the schedule changed; otherwise the existing one stands.
func (s *JobService) Update(ctx context.Context, id string, draft JobDraft) (JobView, error) {
	existing, err := s.fetch(ctx, id)
	if err != nil {
		return JobView{}, err
	}

	job := JobFromDraft(draft)
	job.ID = existing.ID
	job.CreatedAt = existing.CreatedAt
	job.NextRun = existing.NextRun
	if draft.Enabled == nil {
		job.Enabled = existing.Enabled
	}
	if job.Schedule != existing.Schedule {
		next, err := jobs.NextRun(job.Schedule, time.Now().UTC())
		if err != nil {
			return JobView{}, fmt.Errorf("schedule: %w", err)
		}
		job.NextRun = &next
	}

	if err := s.store.UpdateJob(ctx, job); err != nil {
		return JobView{}, err
	}
	return FromJob(job), nil
}

// Delete removes a job. Executions go with it; queue entries stay.
func (s *JobService) Delete(ctx context.Context, id string) error {
	removed, err := s.store.DeleteJob(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("job %s: %w", id, jobs.ErrNotFound)
	}
	return nil
}

// SetEnabled toggles whether the scheduler fires the job.
func (s *JobService) SetEnabled(ctx context.Context, id string, enabled bool) error {
	return s.store.SetEnabled(ctx, id, enabled)
}

// RunNow triggers an immediate firing, bypassing the schedule.
func (s *JobService) RunNow(ctx context.Context, id string) (OutcomeView, error) {
	if s.runner == nil {
		return OutcomeView{}, fmt.Errorf("no scheduler attached")
	}
	outcome, err := s.runner.RunNow(ctx, id)
	if err != nil {
		return OutcomeView{}, err
	}
	return FromOutcome(outcome), nil
}

// DryRun walks the pipeline without side effects and caches the result.
func (s *JobService) DryRun(ctx context.Context, id string) (PreviewView, error) {
	if s.runner == nil {
		return PreviewView{}, fmt.Errorf("no scheduler attached")
	}
	preview, err := s.runner.DryRun(ctx, id)
	if err != nil {
		return PreviewView{}, err
	}
	return FromPreview(preview), nil
}

// Confirm enqueues the candidate set of the job's latest dry run.
func (s *JobService) Confirm(ctx context.Context, id string) (OutcomeView, error) {
	if s.runner == nil {
		return OutcomeView{}, fmt.Errorf("no scheduler attached")
	}
	outcome, err := s.runner.RunFromPreview(ctx, id)
	if err != nil {
		return OutcomeView{}, err
	}
	return FromOutcome(outcome), nil
}

func (s *JobService) fetch(ctx context.Context, id string) (*jobs.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s: %w", id, jobs.ErrNotFound)
	}
	return job, nil
}
