package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"scout/internal/jobs"
	"scout/internal/media"
	"scout/internal/testsupport"
)

func newStore(t *testing.T) *jobs.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return jobs.NewStore(testsupport.MustHandle(t, cfg))
}

func TestCreateAndGetJob(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := validJob()
	job.Filters = jobs.FilterSet{MinRating: 7.0, MinVotes: 100, ExcludedGenres: []int{27}}
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected generated job id")
	}
	if job.NextRun == nil {
		t.Fatal("expected initial next_run to be computed")
	}

	loaded, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if loaded == nil {
		t.Fatal("job not found after create")
	}
	if loaded.Name != job.Name || loaded.Type != job.Type || loaded.MediaType != job.MediaType {
		t.Fatalf("loaded job mismatch: %+v", loaded)
	}
	if loaded.Filters.MinRating != 7.0 || loaded.Filters.MinVotes != 100 {
		t.Fatalf("filters did not round-trip: %+v", loaded.Filters)
	}
	if len(loaded.Filters.ExcludedGenres) != 1 || loaded.Filters.ExcludedGenres[0] != 27 {
		t.Fatalf("excluded genres did not round-trip: %+v", loaded.Filters.ExcludedGenres)
	}
}

func TestGetJobUnknownReturnsNil(t *testing.T) {
	store := newStore(t)
	job, err := store.GetJob(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil for unknown id, got %+v", job)
	}
}

func TestUpdateJob(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := validJob()
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	job.Name = "Renamed"
	job.MaxResults = 25
	if err := store.UpdateJob(ctx, job); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	loaded, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if loaded.Name != "Renamed" || loaded.MaxResults != 25 {
		t.Fatalf("update not persisted: %+v", loaded)
	}

	missing := validJob()
	missing.ID = "missing"
	if err := store.UpdateJob(ctx, missing); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDueJobs(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due := validJob()
	due.Name = "due"
	due.NextRun = &past
	if err := store.CreateJob(ctx, due); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	notDue := validJob()
	notDue.Name = "not due"
	notDue.NextRun = &future
	if err := store.CreateJob(ctx, notDue); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	disabled := validJob()
	disabled.Name = "disabled"
	disabled.Enabled = false
	disabled.NextRun = &past
	if err := store.CreateJob(ctx, disabled); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	got, err := store.DueJobs(ctx, now)
	if err != nil {
		t.Fatalf("DueJobs: %v", err)
	}
	if len(got) != 1 || got[0].ID != due.ID {
		t.Fatalf("expected only the due job, got %d jobs", len(got))
	}
}

func TestSetEnabled(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := validJob()
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := store.SetEnabled(ctx, job.ID, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	loaded, _ := store.GetJob(ctx, job.ID)
	if loaded.Enabled {
		t.Fatal("job still enabled after disable")
	}
	if err := store.SetEnabled(ctx, "missing", true); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteJobCascadesExecutions(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := validJob()
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	exec, err := store.CreateExecution(ctx, job.ID, job.Name)
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}

	deleted, err := store.DeleteJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report true")
	}

	loaded, err := store.GetExecution(ctx, exec.ID)
	if err != nil {
		t.Fatalf("GetExecution: %v", err)
	}
	if loaded != nil {
		t.Fatal("execution survived job delete")
	}

	deleted, err = store.DeleteJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("DeleteJob second call: %v", err)
	}
	if deleted {
		t.Fatal("second delete should report false")
	}
}

func TestExecutionLifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := validJob()
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	exec, err := store.CreateExecution(ctx, job.ID, job.Name)
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}
	if exec.Status != jobs.ExecutionRunning {
		t.Fatalf("new execution status = %q", exec.Status)
	}

	if err := store.CompleteExecution(ctx, exec.ID, 12, 8); err != nil {
		t.Fatalf("CompleteExecution: %v", err)
	}
	loaded, err := store.GetExecution(ctx, exec.ID)
	if err != nil {
		t.Fatalf("GetExecution: %v", err)
	}
	if loaded.Status != jobs.ExecutionCompleted || loaded.ResultsCount != 12 || loaded.RequestedCount != 8 {
		t.Fatalf("completed execution mismatch: %+v", loaded)
	}
	if loaded.FinishedAt == nil {
		t.Fatal("finished_at not set")
	}
	if !loaded.Finished() {
		t.Fatal("Finished() should report true")
	}

	if err := store.FailExecution(ctx, exec.ID, "boom"); !errors.Is(err, jobs.ErrAlreadyFinished) {
		t.Fatalf("expected ErrAlreadyFinished, got %v", err)
	}
	if err := store.CompleteExecution(ctx, "missing", 0, 0); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFailExecutionRecordsMessage(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := validJob()
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	exec, err := store.CreateExecution(ctx, job.ID, job.Name)
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}
	if err := store.FailExecution(ctx, exec.ID, "provider unreachable"); err != nil {
		t.Fatalf("FailExecution: %v", err)
	}
	loaded, _ := store.GetExecution(ctx, exec.ID)
	if loaded.Status != jobs.ExecutionFailed || loaded.ErrorMessage != "provider unreachable" {
		t.Fatalf("failed execution mismatch: %+v", loaded)
	}
}

func TestListExecutionsFilterAndPaging(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := validJob()
	first.Name = "first"
	if err := store.CreateJob(ctx, first); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	second := validJob()
	second.Name = "second"
	second.MediaType = media.TypeTV
	if err := store.CreateJob(ctx, second); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	for i := 0; i < 3; i++ {
		exec, err := store.CreateExecution(ctx, first.ID, first.Name)
		if err != nil {
			t.Fatalf("CreateExecution: %v", err)
		}
		if err := store.CompleteExecution(ctx, exec.ID, i, i); err != nil {
			t.Fatalf("CompleteExecution: %v", err)
		}
	}
	if _, err := store.CreateExecution(ctx, second.ID, second.Name); err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}

	byJob, err := store.ListExecutions(ctx, jobs.ExecutionFilter{JobID: first.ID})
	if err != nil {
		t.Fatalf("ListExecutions: %v", err)
	}
	if len(byJob) != 3 {
		t.Fatalf("expected 3 executions for first job, got %d", len(byJob))
	}

	running, err := store.ListExecutions(ctx, jobs.ExecutionFilter{Status: jobs.ExecutionRunning})
	if err != nil {
		t.Fatalf("ListExecutions: %v", err)
	}
	if len(running) != 1 || running[0].JobID != second.ID {
		t.Fatalf("expected one running execution for second job, got %d", len(running))
	}

	page, err := store.ListExecutions(ctx, jobs.ExecutionFilter{JobID: first.ID, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListExecutions: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("expected 1 execution on final page, got %d", len(page))
	}

	count, err := store.CountExecutions(ctx, jobs.ExecutionFilter{JobID: first.ID})
	if err != nil {
		t.Fatalf("CountExecutions: %v", err)
	}
	if count != 3 {
		t.Fatalf("CountExecutions = %d, want 3", count)
	}
}

func TestFailAbandonedExecutions(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := validJob()
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	exec, err := store.CreateExecution(ctx, job.ID, job.Name)
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}

	marked, err := store.FailAbandonedExecutions(ctx, "daemon restarted")
	if err != nil {
		t.Fatalf("FailAbandonedExecutions: %v", err)
	}
	if marked != 1 {
		t.Fatalf("marked %d executions, want 1", marked)
	}
	loaded, _ := store.GetExecution(ctx, exec.ID)
	if loaded.Status != jobs.ExecutionFailed {
		t.Fatalf("abandoned execution status = %q", loaded.Status)
	}
}
