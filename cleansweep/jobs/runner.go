package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cleansweep/cleansweep-cron/cleansweep/logger"
)

// namedJob is one orchestrated pipeline step.
type namedJob struct {
	name string
	run  func(context.Context) error
}

// Runner executes the pipeline jobs in fixed dependency order: the backfill
// must land synthesized history before rankings and achievements read it.
// Each job is isolated: a failure (or panic) is logged and the remaining
// jobs still run.
type Runner struct {
	jobs []namedJob
}

func NewRunner(backfill *BackfillJob, rankings *RankingJob, achievements *AchievementJob) *Runner {
	return &Runner{
		jobs: []namedJob{
			{name: backfill.Name(), run: func(ctx context.Context) error {
				_, err := backfill.Run(ctx)
				return err
			}},
			{name: rankings.Name(), run: func(ctx context.Context) error {
				_, err := rankings.Run(ctx)
				return err
			}},
			{name: achievements.Name(), run: func(ctx context.Context) error {
				_, err := achievements.Run(ctx)
				return err
			}},
		},
	}
}

// RunAll runs every job once. It never returns an error: failures surface in
// the logs and in stale derived data, and the next scheduled run retries.
func (r *Runner) RunAll(ctx context.Context) {
	for _, job := range r.jobs {
		r.runIsolated(ctx, job)
	}
}

func (r *Runner) runIsolated(ctx context.Context, job namedJob) {
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		return job.run(ctx)
	}()

	logger.LogJob(job.name, time.Since(start), err)
}
