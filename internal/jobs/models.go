package jobs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"scout/internal/media"
)

// Type distinguishes how a job sources its candidates.
type Type string

const (
	// TypeDiscover queries the catalog provider directly with structured filters.
	TypeDiscover Type = "discover"
	// TypeRecommendation expands each watched item into similar titles.
	TypeRecommendation Type = "recommendation"
)

// ParseType converts a string into a known job type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case TypeDiscover, TypeRecommendation:
		return normalized, true
	}
	return "", false
}

// ScheduleKind selects the schedule grammar.
type ScheduleKind string

const (
	ScheduleKindPreset ScheduleKind = "preset"
	ScheduleKindCron   ScheduleKind = "cron"
)

// Schedule describes when a job fires.
type Schedule struct {
	Kind ScheduleKind `json:"kind"`
	Expr string       `json:"expr"`
}

// FilterSet is the immutable filter value object attached to a job.
// Zero values mean "no constraint".
type FilterSet struct {
	MinRating        float64  `json:"min_rating,omitempty"`
	MinVotes         int64    `json:"min_votes,omitempty"`
	ExcludedGenres   []int    `json:"excluded_genres,omitempty"`
	Language         string   `json:"language,omitempty"`
	YearFrom         int      `json:"year_from,omitempty"`
	YearTo           int      `json:"year_to,omitempty"`
	MaxSeasons       int      `json:"max_seasons,omitempty"`
	Region           string   `json:"region,omitempty"`
	ExcludedServices []string `json:"excluded_services,omitempty"`
	IncludeUnrated   bool     `json:"include_unrated,omitempty"`
}

// Job is a user-defined automation unit.
type Job struct {
	ID                string
	Name              string
	Type              Type
	MediaType         media.Type
	Enabled           bool
	MaxResults        int
	Filters           FilterSet
	Schedule          Schedule
	Users             []string
	AllUsers          bool
	ExcludeDownloaded bool
	ExcludeRequested  bool
	HonorDiscovery    bool
	NextRun           *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate rejects malformed jobs at create/update time so configuration
// errors never reach the scheduler.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return errors.New("job name is required")
	}
	if _, ok := ParseType(string(j.Type)); !ok {
		return fmt.Errorf("unknown job type %q", j.Type)
	}
	if _, ok := media.ParseType(string(j.MediaType)); !ok {
		return fmt.Errorf("unknown media type %q", j.MediaType)
	}
	if j.MaxResults <= 0 {
		return errors.New("max_results must be positive")
	}
	if j.Type == TypeRecommendation && !j.AllUsers && len(j.Users) == 0 {
		return errors.New("recommendation jobs require a user list or all_users")
	}
	if j.Filters.YearFrom > 0 && j.Filters.YearTo > 0 && j.Filters.YearFrom > j.Filters.YearTo {
		return fmt.Errorf("year range %d-%d is inverted", j.Filters.YearFrom, j.Filters.YearTo)
	}
	if _, err := NextRun(j.Schedule, time.Now()); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	return nil
}

// ExecutionStatus is the lifecycle of a single job run.
type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// ParseExecutionStatus converts a string into a known execution status.
func ParseExecutionStatus(value string) (ExecutionStatus, bool) {
	normalized := ExecutionStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case ExecutionRunning, ExecutionCompleted, ExecutionFailed:
		return normalized, true
	}
	return "", false
}

// Execution records the outcome of one scheduled or manual job run.
// JobName is denormalized so history survives renames.
type Execution struct {
	ID             string
	JobID          string
	JobName        string
	Status         ExecutionStatus
	StartedAt      time.Time
	FinishedAt     *time.Time
	ResultsCount   int
	RequestedCount int
	ErrorMessage   string
}

// Finished reports whether the execution reached a terminal status.
func (e Execution) Finished() bool {
	return e.Status == ExecutionCompleted || e.Status == ExecutionFailed
}
