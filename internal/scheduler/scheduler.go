package scheduler

import (
	"errors"
	"log/slog"
	"sync"

	"scout/internal/config"
	"scout/internal/delivery"
	"scout/internal/jobs"
	"scout/internal/logging"
	"scout/internal/media"
	"scout/internal/notifications"
	"scout/internal/resolver"
	"scout/internal/services/jellyfin"
	"scout/internal/services/overseerr"
)

// ErrJobRunning is returned when a job fires while a previous execution of
// the same job is still in flight.
var ErrJobRunning = errors.New("job already running")

// ErrNoPreview is returned when RunFromPreview finds no cached dry run.
var ErrNoPreview = errors.New("no preview cached")

// Scheduler owns job firing: due computation, the resolve/filter/dedup
// pipeline, execution records, and hand-off to the delivery queue.
type Scheduler struct {
	cfg       *config.Config
	store     *jobs.Store
	queue     *delivery.Store
	resolver  *resolver.Resolver
	history   jellyfin.History
	requester overseerr.Requester
	notifier  notifications.Service
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	previews map[string]*Preview
}

// New builds a scheduler. history may be nil when no watch-history
// provider is configured.
func New(
	cfg *config.Config,
	store *jobs.Store,
	queue *delivery.Store,
	res *resolver.Resolver,
	history jellyfin.History,
	requester overseerr.Requester,
	notifier notifications.Service,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		cfg:       cfg,
		store:     store,
		queue:     queue,
		resolver:  res,
		history:   history,
		requester: requester,
		notifier:  notifier,
		logger:    logger.With(logging.String(logging.FieldComponent, "scheduler")),
		inFlight:  make(map[string]struct{}),
		previews:  make(map[string]*Preview),
	}
}

// claim marks a job as in flight. Reports false when it already is.
func (s *Scheduler) claim(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.inFlight[jobID]; running {
		return false
	}
	s.inFlight[jobID] = struct{}{}
	return true
}

func (s *Scheduler) release(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, jobID)
}

// Running reports whether the job has an execution in flight.
func (s *Scheduler) Running(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, running := s.inFlight[jobID]
	return running
}

// Outcome summarizes a finished execution.
type Outcome struct {
	ExecutionID string
	Results     int
	Requested   int
	Candidates  []media.Candidate
}
