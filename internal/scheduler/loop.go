package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"scout/internal/jobs"
	"scout/internal/logging"
)

// Loop runs the scheduling ticker until the context is canceled. Each
// tick queries due jobs and fires them on their own goroutines so a slow
// execution never delays the next tick. Executions left running by a
// previous process are failed once before the loop starts.
func (s *Scheduler) Loop(ctx context.Context) error {
	abandoned, err := s.store.FailAbandonedExecutions(ctx, "daemon restarted during execution")
	if err != nil {
		return err
	}
	if abandoned > 0 {
		s.logger.Warn("failed abandoned executions", logging.Int64("count", abandoned))
	}

	interval := time.Duration(s.cfg.Scheduler.TickInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	s.logger.Info("scheduler loop started", logging.Duration("tick_interval", interval))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.fireDue(ctx, &wg)
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context, wg *sync.WaitGroup) {
	due, err := s.store.DueJobs(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("due query failed", logging.Error(err))
		return
	}
	for _, job := range due {
		if s.Running(job.ID) {
			s.logger.Info("due job still running, skipping tick",
				logging.String(logging.FieldJobID, job.ID),
				logging.String(logging.FieldJobName, job.Name))
			continue
		}
		wg.Add(1)
		go func(job *jobs.Job) {
			defer wg.Done()
			if _, err := s.Run(ctx, job); err != nil && !errors.Is(err, ErrJobRunning) {
				// Run already logged and recorded the failure.
				return
			}
		}(job)
	}
}
