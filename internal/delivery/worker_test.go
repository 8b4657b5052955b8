package delivery_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scout/internal/delivery"
	"scout/internal/services/overseerr"
)

type fakeSubmitter struct {
	mu        sync.Mutex
	submitted []int64
	errFor    map[int64]error
}

func (f *fakeSubmitter) Submit(ctx context.Context, request overseerr.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errFor[request.MediaID]; ok {
		return err
	}
	f.submitted = append(f.submitted, request.MediaID)
	return nil
}

func (f *fakeSubmitter) ids() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.submitted...)
}

func runUntilDrained(t *testing.T, worker *delivery.Worker, timeout time.Duration) delivery.Stats {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var drained delivery.Stats
	done := make(chan struct{})
	var once sync.Once
	worker.OnDrained = func(ctx context.Context, stats delivery.Stats) {
		drained = stats
		once.Do(func() { close(done) })
	}

	errCh := make(chan error, 1)
	go func() { errCh <- worker.Run(ctx) }()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("worker did not drain the queue in time")
	}
	cancel()
	<-errCh
	return drained
}

func TestWorkerDrainsInOrder(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i, title := range []string{"One", "Two", "Three"} {
		if _, err := store.Enqueue(ctx, entryFor(int64(i+1), title)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	submitter := &fakeSubmitter{}
	worker := delivery.NewWorker(store, submitter, delivery.WorkerConfig{
		SubmitDelay:  10 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
		MaxAttempts:  3,
	}, nil)

	start := time.Now()
	stats := runUntilDrained(t, worker, 5*time.Second)
	elapsed := time.Since(start)

	ids := submitter.ids()
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("unexpected submission order %v", ids)
	}
	if stats.Submitted != 3 || stats.Pending() != 0 {
		t.Fatalf("unexpected drain stats %+v", stats)
	}
	// Pacing: at least one delay window between consecutive submissions.
	if elapsed < 2*10*time.Millisecond {
		t.Fatalf("drained too fast for pacing: %v", elapsed)
	}
}

func TestWorkerTreatsAlreadyRequestedAsDelivered(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	entry := entryFor(550, "Fight Club")
	if _, err := store.Enqueue(ctx, entry); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	submitter := &fakeSubmitter{errFor: map[int64]error{550: overseerr.ErrAlreadyRequested}}
	worker := delivery.NewWorker(store, submitter, delivery.WorkerConfig{
		PollInterval: 10 * time.Millisecond,
	}, nil)

	stats := runUntilDrained(t, worker, 5*time.Second)
	if stats.Submitted != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestWorkerRetriesThenFails(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	entry := entryFor(550, "Fight Club")
	if _, err := store.Enqueue(ctx, entry); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	submitter := &fakeSubmitter{errFor: map[int64]error{550: errors.New("overseerr 500")}}
	worker := delivery.NewWorker(store, submitter, delivery.WorkerConfig{
		PollInterval: 10 * time.Millisecond,
		MaxAttempts:  2,
	}, nil)

	stats := runUntilDrained(t, worker, 5*time.Second)
	if stats.Failed != 1 || stats.Submitted != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	loaded, err := store.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.Status != delivery.StatusFailed || loaded.AttemptCount != 2 {
		t.Fatalf("unexpected entry %+v", loaded)
	}
}

func TestWorkerResumesAfterRestart(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	entry := entryFor(550, "Fight Club")
	if _, err := store.Enqueue(ctx, entry); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	// Simulate a crash mid-submission.
	if err := store.MarkSubmitting(ctx, entry.ID); err != nil {
		t.Fatalf("MarkSubmitting: %v", err)
	}

	submitter := &fakeSubmitter{}
	worker := delivery.NewWorker(store, submitter, delivery.WorkerConfig{
		PollInterval: 10 * time.Millisecond,
	}, nil)

	stats := runUntilDrained(t, worker, 5*time.Second)
	if stats.Submitted != 1 {
		t.Fatalf("interrupted entry not delivered: %+v", stats)
	}
}

func TestWorkerStopsOnCancel(t *testing.T) {
	store := newStore(t)
	worker := delivery.NewWorker(store, &fakeSubmitter{}, delivery.WorkerConfig{
		PollInterval: 10 * time.Millisecond,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- worker.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestProcessOne(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, entryFor(550, "Fight Club")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	submitter := &fakeSubmitter{}
	worker := delivery.NewWorker(store, submitter, delivery.WorkerConfig{}, nil)

	processed, err := worker.ProcessOne(ctx)
	if err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if !processed {
		t.Fatal("expected an entry to be processed")
	}

	processed, err = worker.ProcessOne(ctx)
	if err != nil {
		t.Fatalf("ProcessOne empty: %v", err)
	}
	if processed {
		t.Fatal("empty queue should report false")
	}
}
