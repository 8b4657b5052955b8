package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scout/internal/jobs"
	"scout/internal/logging"
	"scout/internal/media"
)

// Preview is a cached dry-run result: the exact candidate set a real
// firing would have enqueued, held for confirmation.
type Preview struct {
	ID         string
	JobID      string
	JobName    string
	Candidates []media.Candidate
	CreatedAt  time.Time
}

// previewTTL bounds how stale a confirmed preview may be. Provider state
// moves; a day-old preview no longer reflects it.
const previewTTL = time.Hour

// DryRun walks the full pipeline without touching the delivery queue or
// the execution history, and caches the result for RunFromPreview.
func (s *Scheduler) DryRun(ctx context.Context, jobID string) (*Preview, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s: %w", jobID, jobs.ErrNotFound)
	}

	if !s.claim(job.ID) {
		return nil, fmt.Errorf("job %s: %w", job.ID, ErrJobRunning)
	}
	defer s.release(job.ID)

	accepted, err := s.pipeline(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.Name, err)
	}

	preview := &Preview{
		ID:         uuid.NewString(),
		JobID:      job.ID,
		JobName:    job.Name,
		Candidates: accepted,
		CreatedAt:  time.Now().UTC(),
	}
	s.mu.Lock()
	s.previews[job.ID] = preview
	s.mu.Unlock()

	s.logger.Info("dry run finished",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobName, job.Name),
		logging.Int("candidates", len(accepted)),
		logging.String(logging.FieldEventType, "job_dry_run"))
	return preview, nil
}

// RunFromPreview enqueues the candidate set of the job's latest dry run,
// consuming the cached preview. The preview set is delivered as-is; the
// pipeline is not re-run.
func (s *Scheduler) RunFromPreview(ctx context.Context, jobID string) (*Outcome, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s: %w", jobID, jobs.ErrNotFound)
	}

	s.mu.Lock()
	preview, found := s.previews[jobID]
	if found {
		delete(s.previews, jobID)
	}
	s.mu.Unlock()
	if !found {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNoPreview)
	}
	if time.Since(preview.CreatedAt) > previewTTL {
		return nil, fmt.Errorf("job %s: preview expired, dry-run again", jobID)
	}

	if !s.claim(job.ID) {
		return nil, fmt.Errorf("job %s: %w", job.ID, ErrJobRunning)
	}
	defer s.release(job.ID)

	exec, err := s.store.CreateExecution(ctx, job.ID, job.Name)
	if err != nil {
		return nil, fmt.Errorf("create execution: %w", err)
	}

	requested, err := s.enqueue(ctx, job, preview.Candidates)
	if err != nil {
		return nil, s.fail(ctx, job, exec.ID, err)
	}
	if err := s.store.CompleteExecution(ctx, exec.ID, len(preview.Candidates), requested); err != nil {
		return nil, fmt.Errorf("complete execution: %w", err)
	}

	s.logger.Info("preview confirmed",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldJobName, job.Name),
		logging.String(logging.FieldExecutionID, exec.ID),
		logging.Int("requested", requested),
		logging.String(logging.FieldEventType, "job_preview_confirmed"))

	return &Outcome{
		ExecutionID: exec.ID,
		Results:     len(preview.Candidates),
		Requested:   requested,
		Candidates:  preview.Candidates,
	}, nil
}
