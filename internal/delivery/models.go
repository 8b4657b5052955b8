package delivery

import (
	"strings"
	"time"

	"scout/internal/media"
)

// Status is the lifecycle of a queue entry.
type Status string

const (
	// StatusQueued means the entry awaits submission.
	StatusQueued Status = "queued"
	// StatusSubmitting means the worker has claimed the entry.
	StatusSubmitting Status = "submitting"
	// StatusSubmitted means the request service accepted the entry.
	StatusSubmitted Status = "submitted"
	// StatusFailed means the entry exhausted its attempts.
	StatusFailed Status = "failed"
)

// ParseStatus converts a string into a known queue status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusQueued, StatusSubmitting, StatusSubmitted, StatusFailed:
		return normalized, true
	}
	return "", false
}

// Entry is one accepted candidate awaiting hand-off to the request service.
// Entries outlive the job that enqueued them: the queue is shared and a
// deleted job leaves its in-flight entries in place.
type Entry struct {
	ID           int64
	TMDBID       int64
	MediaType    media.Type
	Title        string
	TargetUser   string
	JobID        string
	Status       Status
	AttemptCount int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Terminal reports whether the entry has left the active pipeline.
func (e Entry) Terminal() bool {
	return e.Status == StatusSubmitted || e.Status == StatusFailed
}

// Stats aggregates entry counts by status.
type Stats struct {
	Queued     int
	Submitting int
	Submitted  int
	Failed     int
}

// Pending reports how many entries still need worker attention.
func (s Stats) Pending() int {
	return s.Queued + s.Submitting
}

// Total sums all entries across statuses.
func (s Stats) Total() int {
	return s.Queued + s.Submitting + s.Submitted + s.Failed
}
