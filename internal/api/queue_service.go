package api

import (
	"context"
	"fmt"

	"scout/internal/delivery"
)

// QueueService exposes delivery queue views and maintenance operations.
type QueueService struct {
	store *delivery.Store
}

// NewQueueService constructs a QueueService around the provided store.
func NewQueueService(store *delivery.Store) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// List returns queue entries, newest first, optionally filtered by status.
func (s *QueueService) List(ctx context.Context, status string, limit int) ([]QueueEntryView, error) {
	var parsed delivery.Status
	if status != "" {
		var ok bool
		parsed, ok = delivery.ParseStatus(status)
		if !ok {
			return nil, fmt.Errorf("unknown queue status %q", status)
		}
	}
	entries, err := s.store.List(ctx, parsed, limit)
	if err != nil {
		return nil, err
	}
	return FromQueueEntries(entries), nil
}

// Stats returns queue summary counts.
func (s *QueueService) Stats(ctx context.Context) (QueueStatsView, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return QueueStatsView{}, err
	}
	return FromQueueStats(stats), nil
}

// Describe fetches a single queue entry. Returns nil when unknown.
func (s *QueueService) Describe(ctx context.Context, id int64) (*QueueEntryView, error) {
	entry, err := s.store.Get(ctx, id)
	if err != nil || entry == nil {
		return nil, err
	}
	view := FromQueueEntry(entry)
	return &view, nil
}

// RetryFailed moves failed entries back to queued with a fresh attempt
// budget. Returns how many entries were reset.
func (s *QueueService) RetryFailed(ctx context.Context) (int64, error) {
	return s.store.RetryFailed(ctx)
}
