package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobView describes a job in a transport-friendly format shared by the
// HTTP API and the CLI renderers.
type JobView struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Type              string       `json:"type"`
	MediaType         string       `json:"mediaType"`
	Enabled           bool         `json:"enabled"`
	MaxResults        int          `json:"maxResults"`
	Filters           FilterView   `json:"filters"`
	Schedule          ScheduleView `json:"schedule"`
	Users             []string     `json:"users,omitempty"`
	AllUsers          bool         `json:"allUsers"`
	ExcludeDownloaded bool         `json:"excludeDownloaded"`
	ExcludeRequested  bool         `json:"excludeRequested"`
	HonorDiscovery    bool         `json:"honorDiscovery"`
	NextRun           string       `json:"nextRun,omitempty"`
	CreatedAt         string       `json:"createdAt,omitempty"`
	UpdatedAt         string       `json:"updatedAt,omitempty"`
}

// FilterView mirrors a job's filter set.
type FilterView struct {
	MinRating        float64  `json:"minRating,omitempty"`
	MinVotes         int64    `json:"minVotes,omitempty"`
	ExcludedGenres   []int    `json:"excludedGenres,omitempty"`
	Language         string   `json:"language,omitempty"`
	YearFrom         int      `json:"yearFrom,omitempty"`
	YearTo           int      `json:"yearTo,omitempty"`
	MaxSeasons       int      `json:"maxSeasons,omitempty"`
	Region           string   `json:"region,omitempty"`
	ExcludedServices []string `json:"excludedServices,omitempty"`
	IncludeUnrated   bool     `json:"includeUnrated,omitempty"`
}

// ScheduleView mirrors a job's schedule.
type ScheduleView struct {
	Kind string `json:"kind"`
	Expr string `json:"expr"`
}

// JobDraft is the write payload for job create and update. Update replaces
// the mutable fields wholesale; partial patches are a client concern.
type JobDraft struct {
	Name              string       `json:"name"`
	Type              string       `json:"type"`
	MediaType         string       `json:"mediaType"`
	Enabled           *bool        `json:"enabled,omitempty"`
	MaxResults        int          `json:"maxResults"`
	Filters           FilterView   `json:"filters"`
	Schedule          ScheduleView `json:"schedule"`
	Users             []string     `json:"users,omitempty"`
	AllUsers          bool         `json:"allUsers,omitempty"`
	ExcludeDownloaded bool         `json:"excludeDownloaded,omitempty"`
	ExcludeRequested  bool         `json:"excludeRequested,omitempty"`
	HonorDiscovery    bool         `json:"honorDiscovery,omitempty"`
}

// CandidateView describes one resolved title.
type CandidateView struct {
	TMDBID    int64   `json:"tmdbId"`
	MediaType string  `json:"mediaType"`
	Title     string  `json:"title"`
	Year      int     `json:"year,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
	Votes     int64   `json:"votes,omitempty"`
	Rationale string  `json:"rationale,omitempty"`
}

// PreviewView is a cached dry-run result awaiting confirmation.
type PreviewView struct {
	ID         string          `json:"id"`
	JobID      string          `json:"jobId"`
	JobName    string          `json:"jobName"`
	Candidates []CandidateView `json:"candidates"`
	CreatedAt  string          `json:"createdAt"`
}

// OutcomeView summarizes a finished execution.
type OutcomeView struct {
	ExecutionID string          `json:"executionId"`
	Results     int             `json:"results"`
	Requested   int             `json:"requested"`
	Candidates  []CandidateView `json:"candidates,omitempty"`
}

// ExecutionView describes one history record.
type ExecutionView struct {
	ID           string `json:"id"`
	JobID        string `json:"jobId"`
	JobName      string `json:"jobName"`
	Status       string `json:"status"`
	StartedAt    string `json:"startedAt"`
	FinishedAt   string `json:"finishedAt,omitempty"`
	Results      int    `json:"results"`
	Requested    int    `json:"requested"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// HistoryPage wraps a page of execution records.
type HistoryPage struct {
	Executions []ExecutionView `json:"executions"`
	Total      int             `json:"total"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// QueueEntryView describes a delivery queue entry.
type QueueEntryView struct {
	ID           int64  `json:"id"`
	TMDBID       int64  `json:"tmdbId"`
	MediaType    string `json:"mediaType"`
	Title        string `json:"title"`
	JobID        string `json:"jobId,omitempty"`
	Status       string `json:"status"`
	AttemptCount int    `json:"attemptCount"`
	LastError    string `json:"lastError,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// QueueStatsView aggregates queue counts by status.
type QueueStatsView struct {
	Queued     int `json:"queued"`
	Submitting int `json:"submitting"`
	Submitted  int `json:"submitted"`
	Failed     int `json:"failed"`
	Pending    int `json:"pending"`
	Total      int `json:"total"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DBPath       string         `json:"dbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Jobs         int            `json:"jobs"`
	JobsEnabled  int            `json:"jobsEnabled"`
	Queue        QueueStatsView `json:"queue"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job JobView `json:"job"`
}

// QueueListResponse wraps a collection of queue entries.
type QueueListResponse struct {
	Entries []QueueEntryView `json:"entries"`
}
