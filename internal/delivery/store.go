package delivery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scout/internal/media"
)

const entryColumns = "id, tmdb_id, media_type, title, target_user, job_id, status, attempt_count, last_error, created_at, updated_at"

// ErrNotFound is returned when an entry id does not exist.
var ErrNotFound = errors.New("entry not found")

// Store manages delivery queue persistence backed by SQLite.
type Store struct {
	db *sql.DB
}

// NewStore builds a store over the shared database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Enqueue inserts an entry unless the title is already active in the
// queue. Returns false when a queued, submitting, or submitted entry for
// the same title exists, making enqueue idempotent across jobs.
func (s *Store) Enqueue(ctx context.Context, entry *Entry) (bool, error) {
	if entry == nil {
		return false, errors.New("entry is nil")
	}
	if entry.TMDBID <= 0 {
		return false, errors.New("tmdb id must be positive")
	}

	var existing int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM delivery_queue
         WHERE tmdb_id = ? AND media_type = ? AND status IN (?, ?, ?)`,
		entry.TMDBID,
		string(entry.MediaType),
		string(StatusQueued),
		string(StatusSubmitting),
		string(StatusSubmitted),
	).Scan(&existing)
	if err != nil {
		return false, fmt.Errorf("check existing entry: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	now := time.Now().UTC()
	entry.Status = StatusQueued
	entry.CreatedAt = now
	entry.UpdatedAt = now
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO delivery_queue (tmdb_id, media_type, title, target_user, job_id, status, attempt_count, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		entry.TMDBID,
		string(entry.MediaType),
		entry.Title,
		nullableString(entry.TargetUser),
		nullableString(entry.JobID),
		string(entry.Status),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("insert entry: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return true, nil
}

// NextQueued returns the oldest queued entry, or nil when the queue is
// drained.
func (s *Store) NextQueued(ctx context.Context) (*Entry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+entryColumns+` FROM delivery_queue
         WHERE status = ? ORDER BY created_at, id LIMIT 1`,
		string(StatusQueued),
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next queued: %w", err)
	}
	return entry, nil
}

// MarkSubmitting claims a queued entry for the worker. The status guard
// keeps two workers from claiming the same entry.
func (s *Store) MarkSubmitting(ctx context.Context, id int64) error {
	return s.transition(ctx, id, StatusQueued, StatusSubmitting, "")
}

// MarkSubmitted records a successful hand-off.
func (s *Store) MarkSubmitted(ctx context.Context, id int64) error {
	return s.transition(ctx, id, StatusSubmitting, StatusSubmitted, "")
}

// MarkFailed records a submission failure. The entry goes back to queued
// while attempts remain, otherwise it lands in failed.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string, maxAttempts int) (Status, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE delivery_queue
         SET attempt_count = attempt_count + 1,
             status = CASE WHEN attempt_count + 1 >= ? THEN ? ELSE ? END,
             last_error = ?,
             updated_at = ?
         WHERE id = ? AND status = ?`,
		maxAttempts,
		string(StatusFailed),
		string(StatusQueued),
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		string(StatusSubmitting),
	)
	if err != nil {
		return "", fmt.Errorf("mark failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return "", fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}

	entry, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	return entry.Status, nil
}

// ResetSubmitting requeues entries a previous process left claimed.
// Called once at daemon startup before the worker begins.
func (s *Store) ResetSubmitting(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE delivery_queue SET status = ?, updated_at = ? WHERE status = ?`,
		string(StatusQueued),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(StatusSubmitting),
	)
	if err != nil {
		return 0, fmt.Errorf("reset submitting: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves every failed entry back to queued with a fresh attempt
// budget. Operator action, not part of the automatic retry path.
func (s *Store) RetryFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE delivery_queue
         SET status = ?, attempt_count = 0, last_error = NULL, updated_at = ?
         WHERE status = ?`,
		string(StatusQueued),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(StatusFailed),
	)
	if err != nil {
		return 0, fmt.Errorf("retry failed: %w", err)
	}
	return res.RowsAffected()
}

// Get fetches an entry by id. Returns nil when unknown.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM delivery_queue WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// List returns entries newest first, optionally limited to one status.
func (s *Store) List(ctx context.Context, status Status, limit int) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM delivery_queue`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats counts entries per status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM delivery_queue GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		switch Status(status) {
		case StatusQueued:
			stats.Queued = count
		case StatusSubmitting:
			stats.Submitting = count
		case StatusSubmitted:
			stats.Submitted = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

func (s *Store) transition(ctx context.Context, id int64, from, to Status, message string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE delivery_queue SET status = ?, last_error = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to),
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		string(from),
	)
	if err != nil {
		return fmt.Errorf("transition to %s: %w", to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %d not in %s: %w", id, from, ErrNotFound)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id         int64
		tmdbID     int64
		mediaType  string
		title      string
		targetUser sql.NullString
		jobID      sql.NullString
		status     string
		attempts   int
		lastError  sql.NullString
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(
		&id,
		&tmdbID,
		&mediaType,
		&title,
		&targetUser,
		&jobID,
		&status,
		&attempts,
		&lastError,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:           id,
		TMDBID:       tmdbID,
		MediaType:    media.Type(mediaType),
		Title:        title,
		TargetUser:   targetUser.String,
		JobID:        jobID.String,
		Status:       Status(status),
		AttemptCount: attempts,
		LastError:    lastError.String,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}
