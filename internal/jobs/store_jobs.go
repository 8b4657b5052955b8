package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scout/internal/media"
)

const jobColumns = "id, name, job_type, media_type, enabled, max_results, filters_json, schedule_kind, schedule_expr, users_json, all_users, exclude_downloaded, exclude_requested, honor_discovery, next_run, created_at, updated_at"

// CreateJob validates and persists a new job. The initial next_run is
// computed from the schedule so the job fires one interval from creation.
func (s *Store) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if err := job.Validate(); err != nil {
		return err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.NextRun == nil {
		next, err := NextRun(job.Schedule, now)
		if err != nil {
			return fmt.Errorf("compute next run: %w", err)
		}
		job.NextRun = &next
	}

	filtersJSON, err := json.Marshal(job.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}
	usersJSON, err := json.Marshal(job.Users)
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (`+jobColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.Name,
		string(job.Type),
		string(job.MediaType),
		boolToInt(job.Enabled),
		job.MaxResults,
		string(filtersJSON),
		string(job.Schedule.Kind),
		job.Schedule.Expr,
		string(usersJSON),
		boolToInt(job.AllUsers),
		boolToInt(job.ExcludeDownloaded),
		boolToInt(job.ExcludeRequested),
		boolToInt(job.HonorDiscovery),
		nullableTime(job.NextRun),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// UpdateJob validates and persists changes to an existing job.
func (s *Store) UpdateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if err := job.Validate(); err != nil {
		return err
	}

	filtersJSON, err := json.Marshal(job.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}
	usersJSON, err := json.Marshal(job.Users)
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}

	job.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET name = ?, job_type = ?, media_type = ?, enabled = ?, max_results = ?,
             filters_json = ?, schedule_kind = ?, schedule_expr = ?, users_json = ?,
             all_users = ?, exclude_downloaded = ?, exclude_requested = ?,
             honor_discovery = ?, next_run = ?, updated_at = ?
         WHERE id = ?`,
		job.Name,
		string(job.Type),
		string(job.MediaType),
		boolToInt(job.Enabled),
		job.MaxResults,
		string(filtersJSON),
		string(job.Schedule.Kind),
		job.Schedule.Expr,
		string(usersJSON),
		boolToInt(job.AllUsers),
		boolToInt(job.ExcludeDownloaded),
		boolToInt(job.ExcludeRequested),
		boolToInt(job.HonorDiscovery),
		nullableTime(job.NextRun),
		job.UpdatedAt.Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s: %w", job.ID, ErrNotFound)
	}
	return nil
}

// GetJob fetches a job by identifier. Returns nil when the id is unknown.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns all jobs ordered by creation time.
func (s *Store) ListJobs(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DueJobs returns enabled jobs whose next_run is at or before now.
func (s *Store) DueJobs(ctx context.Context, now time.Time) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs
         WHERE enabled = 1 AND next_run IS NOT NULL AND next_run <= ?
         ORDER BY next_run`,
		now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SetEnabled toggles a job without touching its schedule state.
func (s *Store) SetEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET enabled = ?, updated_at = ? WHERE id = ?`,
		boolToInt(enabled),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetNextRun records the next scheduled fire time for a job.
func (s *Store) SetNextRun(ctx context.Context, id string, next time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET next_run = ?, updated_at = ? WHERE id = ?`,
		next.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set next run: %w", err)
	}
	return nil
}

// DeleteJob removes a job; its execution history cascades via foreign key.
func (s *Store) DeleteJob(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id                string
		name              string
		jobType           string
		mediaType         string
		enabled           int
		maxResults        int
		filtersJSON       string
		scheduleKind      string
		scheduleExpr      string
		usersJSON         sql.NullString
		allUsers          int
		excludeDownloaded int
		excludeRequested  int
		honorDiscovery    int
		nextRunRaw        sql.NullString
		createdRaw        string
		updatedRaw        string
	)

	if err := scanner.Scan(
		&id,
		&name,
		&jobType,
		&mediaType,
		&enabled,
		&maxResults,
		&filtersJSON,
		&scheduleKind,
		&scheduleExpr,
		&usersJSON,
		&allUsers,
		&excludeDownloaded,
		&excludeRequested,
		&honorDiscovery,
		&nextRunRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:                id,
		Name:              name,
		Type:              Type(jobType),
		MediaType:         media.Type(mediaType),
		Enabled:           enabled != 0,
		MaxResults:        maxResults,
		Schedule:          Schedule{Kind: ScheduleKind(scheduleKind), Expr: scheduleExpr},
		AllUsers:          allUsers != 0,
		ExcludeDownloaded: excludeDownloaded != 0,
		ExcludeRequested:  excludeRequested != 0,
		HonorDiscovery:    honorDiscovery != 0,
	}

	if err := json.Unmarshal([]byte(filtersJSON), &job.Filters); err != nil {
		return nil, fmt.Errorf("unmarshal filters for job %s: %w", id, err)
	}
	if usersJSON.Valid && usersJSON.String != "" {
		if err := json.Unmarshal([]byte(usersJSON.String), &job.Users); err != nil {
			return nil, fmt.Errorf("unmarshal users for job %s: %w", id, err)
		}
	}
	if nextRunRaw.Valid {
		if next, err := parseTimeString(nextRunRaw.String); err == nil {
			job.NextRun = &next
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}
