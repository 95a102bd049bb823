package bot

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the dispatcher's periodic maintenance: session sweeps and
// the daily project sync.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the maintenance jobs. sweepEveryMin is minutes
// between session sweeps; syncSchedule is a standard cron expression for
// the project sync, empty to disable it.
func NewScheduler(d *Dispatcher, sweepEveryMin int, syncSchedule string) (*Scheduler, error) {
	c := cron.New()

	if sweepEveryMin < 1 {
		sweepEveryMin = 1
	}
	_, err := c.AddFunc(fmt.Sprintf("@every %dm", sweepEveryMin), func() {
		d.SweepExpiredSessions(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("registering session sweep: %w", err)
	}

	if syncSchedule != "" {
		_, err := c.AddFunc(syncSchedule, func() {
			d.SyncAllProjects(context.Background())
		})
		if err != nil {
			return nil, fmt.Errorf("registering project sync %q: %w", syncSchedule, err)
		}
	}

	return &Scheduler{cron: c}, nil
}

// Start launches the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
