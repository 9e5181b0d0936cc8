package runner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Tally counts how the jobs of one run ended. NeverStarted covers jobs
// still queued when the run was cancelled.
type Tally struct {
	Completed    int
	TimedOut     int
	Crashed      int
	NeverStarted int
}

func (t Tally) Total() int {
	return t.Completed + t.TimedOut + t.Crashed + t.NeverStarted
}

// Scheduler dispatches jobs FIFO over a fixed number of execution
// slots. Jobs are independent, so no cross-job ordering is promised
// beyond dispatch order. On cancellation it stops handing out slots and
// waits for in-flight runs to end via their own deadline; it never
// kills a run mid-write itself.
type Scheduler struct {
	Slots  int
	Logger *zap.Logger
}

// Run executes the job list and returns the outcomes of every started
// job plus the tally. The semaphore is the only shared mutable state;
// each goroutine writes its own outcome slot.
func (s Scheduler) Run(ctx context.Context, jobs []Job, exec Executor) ([]Outcome, Tally) {
	slots := s.Slots
	if slots <= 0 {
		slots = 1
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sem := semaphore.NewWeighted(int64(slots))
	outcomes := make([]Outcome, len(jobs))
	started := make([]bool, len(jobs))

	var wg sync.WaitGroup
	dispatched := 0
	for i := range jobs {
		// Acquire fails only when ctx is done: stop dispatching, keep
		// the remainder queued so they count as never started.
		if err := sem.Acquire(ctx, 1); err != nil {
			logger.Warn("dispatch cancelled, draining in-flight runs",
				zap.Int("dispatched", dispatched),
				zap.Int("remaining", len(jobs)-i))
			break
		}
		started[i] = true
		dispatched++
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			defer sem.Release(1)
			logger.Info("job started",
				zap.String("job", job.ID()),
				zap.String("method", string(job.Config.Method)),
				zap.Duration("deadline", job.Deadline))
			outcomes[i] = exec.Run(job)
			logger.Info("job finished",
				zap.String("job", job.ID()),
				zap.String("status", string(outcomes[i].Status)),
				zap.Duration("elapsed", outcomes[i].Elapsed))
		}(i, jobs[i])
	}
	wg.Wait()

	var tally Tally
	out := make([]Outcome, 0, dispatched)
	for i := range jobs {
		if !started[i] {
			tally.NeverStarted++
			continue
		}
		switch outcomes[i].Status {
		case OutcomeCompleted:
			tally.Completed++
		case OutcomeTimedOut:
			tally.TimedOut++
		case OutcomeCrashed:
			tally.Crashed++
		}
		out = append(out, outcomes[i])
	}

	logger.Info("schedule complete",
		zap.Int("completed", tally.Completed),
		zap.Int("timed_out", tally.TimedOut),
		zap.Int("crashed", tally.Crashed),
		zap.Int("never_started", tally.NeverStarted))
	return out, tally
}

// EstimateWallClock is a planning helper: the serial deadline budget
// divided by the slot count, i.e. the worst case where every run burns
// its full deadline.
func EstimateWallClock(jobs []Job, slots int) time.Duration {
	if slots <= 0 {
		slots = 1
	}
	var total time.Duration
	for _, j := range jobs {
		total += j.Deadline
	}
	return total / time.Duration(slots)
}
