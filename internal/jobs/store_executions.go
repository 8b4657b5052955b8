package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const executionColumns = "id, job_id, job_name, status, started_at, finished_at, results_count, requested_count, error_message"

// ErrAlreadyFinished signals an attempted second transition on an execution.
var ErrAlreadyFinished = errors.New("execution already finished")

// CreateExecution inserts a new execution in the running state.
func (s *Store) CreateExecution(ctx context.Context, jobID, jobName string) (*Execution, error) {
	exec := &Execution{
		ID:        uuid.NewString(),
		JobID:     jobID,
		JobName:   jobName,
		Status:    ExecutionRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO executions (id, job_id, job_name, status, started_at)
         VALUES (?, ?, ?, ?, ?)`,
		exec.ID,
		exec.JobID,
		exec.JobName,
		string(exec.Status),
		exec.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert execution: %w", err)
	}
	return exec, nil
}

// CompleteExecution transitions a running execution to completed. The guard
// on status makes the running->terminal transition happen exactly once.
func (s *Store) CompleteExecution(ctx context.Context, id string, results, requested int) error {
	return s.finishExecution(ctx, id, ExecutionCompleted, results, requested, "")
}

// FailExecution transitions a running execution to failed with a message.
func (s *Store) FailExecution(ctx context.Context, id, message string) error {
	return s.finishExecution(ctx, id, ExecutionFailed, 0, 0, message)
}

func (s *Store) finishExecution(ctx context.Context, id string, status ExecutionStatus, results, requested int, message string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE executions
         SET status = ?, finished_at = ?, results_count = ?, requested_count = ?, error_message = ?
         WHERE id = ? AND status = ?`,
		string(status),
		time.Now().UTC().Format(time.RFC3339Nano),
		results,
		requested,
		nullableString(message),
		id,
		string(ExecutionRunning),
	)
	if err != nil {
		return fmt.Errorf("finish execution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		existing, getErr := s.GetExecution(ctx, id)
		if getErr != nil {
			return getErr
		}
		if existing == nil {
			return fmt.Errorf("execution %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("execution %s: %w", id, ErrAlreadyFinished)
	}
	return nil
}

// GetExecution fetches an execution by identifier. Returns nil when unknown.
func (s *Store) GetExecution(ctx context.Context, id string) (*Execution, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+executionColumns+` FROM executions WHERE id = ?`, id)
	exec, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}
	return exec, nil
}

// ExecutionFilter narrows ListExecutions output.
type ExecutionFilter struct {
	JobID  string
	Status ExecutionStatus
	Limit  int
	Offset int
}

// ListExecutions returns history newest first, optionally filtered and paginated.
func (s *Store) ListExecutions(ctx context.Context, filter ExecutionFilter) ([]*Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions`
	var clauses []string
	var args []any
	if filter.JobID != "" {
		clauses = append(clauses, "job_id = ?")
		args = append(args, filter.JobID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var execs []*Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		execs = append(execs, exec)
	}
	return execs, rows.Err()
}

// CountExecutions reports how many executions match the filter, ignoring pagination.
func (s *Store) CountExecutions(ctx context.Context, filter ExecutionFilter) (int, error) {
	query := `SELECT COUNT(1) FROM executions`
	var clauses []string
	var args []any
	if filter.JobID != "" {
		clauses = append(clauses, "job_id = ?")
		args = append(args, filter.JobID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count executions: %w", err)
	}
	return count, nil
}

// FailAbandonedExecutions marks executions left in running state by a previous
// process as failed. Called once at daemon startup.
func (s *Store) FailAbandonedExecutions(ctx context.Context, message string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE executions SET status = ?, finished_at = ?, error_message = ? WHERE status = ?`,
		string(ExecutionFailed),
		time.Now().UTC().Format(time.RFC3339Nano),
		message,
		string(ExecutionRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("fail abandoned executions: %w", err)
	}
	return res.RowsAffected()
}

func scanExecution(scanner interface{ Scan(dest ...any) error }) (*Execution, error) {
	var (
		id          string
		jobID       string
		jobName     string
		statusStr   string
		startedRaw  string
		finishedRaw sql.NullString
		results     int
		requested   int
		errMessage  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobID,
		&jobName,
		&statusStr,
		&startedRaw,
		&finishedRaw,
		&results,
		&requested,
		&errMessage,
	); err != nil {
		return nil, err
	}

	exec := &Execution{
		ID:             id,
		JobID:          jobID,
		JobName:        jobName,
		Status:         ExecutionStatus(statusStr),
		ResultsCount:   results,
		RequestedCount: requested,
		ErrorMessage:   errMessage.String,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		exec.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			exec.FinishedAt = &finished
		}
	}
	return exec, nil
}
