package api

import (
	"context"
	"fmt"

	"scout/internal/jobs"
)

// defaultHistoryLimit bounds unpaged history queries.
const defaultHistoryLimit = 50

// HistoryQuery selects a page of execution records.
type HistoryQuery struct {
	JobID  string
	Status string
	Limit  int
	Offset int
}

// HistoryService exposes read-only execution history with paging.
type HistoryService struct {
	store *jobs.Store
}

// NewHistoryService constructs a HistoryService around the job store.
func NewHistoryService(store *jobs.Store) *HistoryService {
	if store == nil {
		return nil
	}
	return &HistoryService{store: store}
}

// List returns one page of executions, newest first, with the total count
// so clients can page.
func (s *HistoryService) List(ctx context.Context, query HistoryQuery) (HistoryPage, error) {
	filter := jobs.ExecutionFilter{
		JobID:  query.JobID,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultHistoryLimit
	}
	if query.Status != "" {
		status, ok := jobs.ParseExecutionStatus(query.Status)
		if !ok {
			return HistoryPage{}, fmt.Errorf("unknown execution status %q", query.Status)
		}
		filter.Status = status
	}

	executions, err := s.store.ListExecutions(ctx, filter)
	if err != nil {
		return HistoryPage{}, err
	}
	total, err := s.store.CountExecutions(ctx, filter)
	if err != nil {
		return HistoryPage{}, err
	}

	return HistoryPage{
		Executions: FromExecutions(executions),
		Total:      total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// Describe fetches a single execution. Returns nil when the id is unknown.
func (s *HistoryService) Describe(ctx context.Context, id string) (*ExecutionView, error) {
	exec, err := s.store.GetExecution(ctx, id)
	if err != nil || exec == nil {
		return nil, err
	}
	view := FromExecution(exec)
	return &view, nil
}
