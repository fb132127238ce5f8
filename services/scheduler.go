// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// ScheduledJob is a recurring background task.
type ScheduledJob struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// StartScheduler runs every job on its interval in singleton mode, so a slow run is never
// overlapped by the next one. The scheduler stops when ctx is done.
func StartScheduler(ctx context.Context, jobs ...ScheduledJob) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	for _, job := range jobs {
		job := job
		_, err := sched.NewJob(
			gocron.DurationJob(job.Interval),
			gocron.NewTask(func() {
				start := time.Now()
				if err := job.Run(ctx); err != nil {
					log.Printf("[Scheduler] %s failed: %v", job.Name, err)
					return
				}
				log.Printf("[Scheduler] %s done in %s", job.Name, time.Since(start).Round(time.Millisecond))
			}),
			gocron.WithName(job.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
	}

	sched.Start()
	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Printf("[Scheduler] shutdown: %v", err)
		}
	}()
	return sched, nil
}
