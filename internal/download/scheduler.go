package download

import (
	"context"
	"sync/atomic"

	"github.com/handiism/everygarf/internal/model"
	"golang.org/x/sync/errgroup"
)

// JobFunc runs one job to completion.
type JobFunc func(ctx context.Context, job model.Job) Outcome

// Scheduler runs jobs with bounded concurrency.
type Scheduler struct {
	concurrency int
	completed   atomic.Int64
}

// NewScheduler creates a Scheduler running at most concurrency jobs at a
// time. Values below 1 are treated as 1.
func NewScheduler(concurrency int) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{concurrency: concurrency}
}

// Completed returns the number of jobs that have finished, in any state.
func (s *Scheduler) Completed() int64 {
	return s.completed.Load()
}

// Run starts jobs in submission order and streams their outcomes in
// completion order. The channel is closed once every started job has
// finished. When ctx is done no further jobs are started.
func (s *Scheduler) Run(ctx context.Context, jobs []model.Job, fn JobFunc) <-chan Outcome {
	out := make(chan Outcome, len(jobs))

	go func() {
		defer close(out)

		var g errgroup.Group
		g.SetLimit(s.concurrency)

		for _, job := range jobs {
			if ctx.Err() != nil {
				break
			}
			job := job
			g.Go(func() error {
				outcome := fn(ctx, job)
				s.completed.Add(1)
				out <- outcome
				return nil
			})
		}

		_ = g.Wait()
	}()

	return out
}
