package api

import (
	"time"

	"scout/internal/delivery"
	"scout/internal/jobs"
	"scout/internal/media"
	"scout/internal/scheduler"
)

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) JobView {
	if job == nil {
		return JobView{}
	}
	view := JobView{
		ID:         job.ID,
		Name:       job.Name,
		Type:       string(job.Type),
		MediaType:  string(job.MediaType),
		Enabled:    job.Enabled,
		MaxResults: job.MaxResults,
		Filters: FilterView{
			MinRating:        job.Filters.MinRating,
			MinVotes:         job.Filters.MinVotes,
			ExcludedGenres:   job.Filters.ExcludedGenres,
			Language:         job.Filters.Language,
			YearFrom:         job.Filters.YearFrom,
			YearTo:           job.Filters.YearTo,
			MaxSeasons:       job.Filters.MaxSeasons,
			Region:           job.Filters.Region,
			ExcludedServices: job.Filters.ExcludedServices,
			IncludeUnrated:   job.Filters.IncludeUnrated,
		},
		Schedule:          ScheduleView{Kind: string(job.Schedule.Kind), Expr: job.Schedule.Expr},
		Users:             job.Users,
		AllUsers:          job.AllUsers,
		ExcludeDownloaded: job.ExcludeDownloaded,
		ExcludeRequested:  job.ExcludeRequested,
		HonorDiscovery:    job.HonorDiscovery,
		CreatedAt:         FormatTime(job.CreatedAt),
		UpdatedAt:         FormatTime(job.UpdatedAt),
	}
	if job.NextRun != nil {
		view.NextRun = FormatTime(*job.NextRun)
	}
	return view
}

// FromJobs converts a slice of job records into API views.
func FromJobs(list []*jobs.Job) []JobView {
	if len(list) == 0 {
		return nil
	}
	out := make([]JobView, 0, len(list))
	for _, job := range list {
		out = append(out, FromJob(job))
	}
	return out
}

// JobFromDraft builds a job record from a write payload. Validation is the
// store's concern; this only maps fields.
func JobFromDraft(draft JobDraft) *jobs.Job {
	enabled := true
	if draft.Enabled != nil {
		enabled = *draft.Enabled
	}
	return &jobs.Job{
		Name:       draft.Name,
		Type:       jobs.Type(draft.Type),
		MediaType:  media.Type(draft.MediaType),
		Enabled:    enabled,
		MaxResults: draft.MaxResults,
		Filters: jobs.FilterSet{
			MinRating:        draft.Filters.MinRating,
			MinVotes:         draft.Filters.MinVotes,
			ExcludedGenres:   draft.Filters.ExcludedGenres,
			Language:         draft.Filters.Language,
			YearFrom:         draft.Filters.YearFrom,
			YearTo:           draft.Filters.YearTo,
			MaxSeasons:       draft.Filters.MaxSeasons,
			Region:           draft.Filters.Region,
			ExcludedServices: draft.Filters.ExcludedServices,
			IncludeUnrated:   draft.Filters.IncludeUnrated,
		},
		Schedule:          jobs.Schedule{Kind: jobs.ScheduleKind(draft.Schedule.Kind), Expr: draft.Schedule.Expr},
		Users:             draft.Users,
		AllUsers:          draft.AllUsers,
		ExcludeDownloaded: draft.ExcludeDownloaded,
		ExcludeRequested:  draft.ExcludeRequested,
		HonorDiscovery:    draft.HonorDiscovery,
	}
}

// FromCandidate converts a resolved title into its API view.
func FromCandidate(candidate media.Candidate) CandidateView {
	return CandidateView{
		TMDBID:    candidate.ID,
		MediaType: string(candidate.MediaType),
		Title:     candidate.Title,
		Year:      candidate.Year,
		Rating:    candidate.Rating,
		Votes:     candidate.VoteCount,
		Rationale: candidate.Rationale,
	}
}

// FromCandidates converts a slice of resolved titles.
func FromCandidates(candidates []media.Candidate) []CandidateView {
	if len(candidates) == 0 {
		return nil
	}
	out := make([]CandidateView, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, FromCandidate(candidate))
	}
	return out
}

// FromPreview converts a cached dry run.
func FromPreview(preview *scheduler.Preview) PreviewView {
	if preview == nil {
		return PreviewView{}
	}
	return PreviewView{
		ID:         preview.ID,
		JobID:      preview.JobID,
		JobName:    preview.JobName,
		Candidates: FromCandidates(preview.Candidates),
		CreatedAt:  FormatTime(preview.CreatedAt),
	}
}

// FromOutcome converts an execution outcome.
func FromOutcome(outcome *scheduler.Outcome) OutcomeView {
	if outcome == nil {
		return OutcomeView{}
	}
	return OutcomeView{
		ExecutionID: outcome.ExecutionID,
		Results:     outcome.Results,
		Requested:   outcome.Requested,
		Candidates:  FromCandidates(outcome.Candidates),
	}
}

// FromExecution converts a history record.
func FromExecution(exec *jobs.Execution) ExecutionView {
	if exec == nil {
		return ExecutionView{}
	}
	view := ExecutionView{
		ID:           exec.ID,
		JobID:        exec.JobID,
		JobName:      exec.JobName,
		Status:       string(exec.Status),
		StartedAt:    FormatTime(exec.StartedAt),
		Results:      exec.ResultsCount,
		Requested:    exec.RequestedCount,
		ErrorMessage: exec.ErrorMessage,
	}
	if exec.FinishedAt != nil {
		view.FinishedAt = FormatTime(*exec.FinishedAt)
	}
	return view
}

// FromExecutions converts a slice of history records.
func FromExecutions(list []*jobs.Execution) []ExecutionView {
	if len(list) == 0 {
		return nil
	}
	out := make([]ExecutionView, 0, len(list))
	for _, exec := range list {
		out = append(out, FromExecution(exec))
	}
	return out
}

// FromQueueEntry converts a delivery queue record.
func FromQueueEntry(entry *delivery.Entry) QueueEntryView {
	if entry == nil {
		return QueueEntryView{}
	}
	return QueueEntryView{
		ID:           entry.ID,
		TMDBID:       entry.TMDBID,
		MediaType:    string(entry.MediaType),
		Title:        entry.Title,
		JobID:        entry.JobID,
		Status:       string(entry.Status),
		AttemptCount: entry.AttemptCount,
		LastError:    entry.LastError,
		CreatedAt:    FormatTime(entry.CreatedAt),
		UpdatedAt:    FormatTime(entry.UpdatedAt),
	}
}

// FromQueueEntries converts a slice of queue records.
func FromQueueEntries(entries []*delivery.Entry) []QueueEntryView {
	if len(entries) == 0 {
		return nil
	}
	out := make([]QueueEntryView, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromQueueEntry(entry))
	}
	return out
}

// FromQueueStats converts queue status counts.
func FromQueueStats(stats delivery.Stats) QueueStatsView {
	return QueueStatsView{
		Queued:     stats.Queued,
		Submitting: stats.Submitting,
		Submitted:  stats.Submitted,
		Failed:     stats.Failed,
		Pending:    stats.Pending(),
		Total:      stats.Total(),
	}
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
