package jobs

import (
	"database/sql"
	"errors"
	"time"
)

// Store manages job and execution persistence backed by SQLite.
// The scheduler is the only writer; the API layer reads through it.
type Store struct {
	db *sql.DB
}

// NewStore builds a store over the shared database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ErrNotFound is returned when a job or execution id does not exist.
var ErrNotFound = errors.New("not found")

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
