// Package scheduler runs the daily maintenance jobs: the midnight ledger
// backup and expired report cleanup.
package scheduler

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// jobTimeout bounds one job run.
const jobTimeout = 2 * time.Minute

// Job is one named maintenance task.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler fires all registered jobs once per day at local midnight.
type Scheduler struct {
	location *time.Location
	jobs     []Job
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(location *time.Location, jobs ...Job) *Scheduler {
	return &Scheduler{
		location: location,
		jobs:     jobs,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the scheduling loop in a background goroutine.
func (s *Scheduler) Start() {
	log.WithFields(log.Fields{
		"jobs":     len(s.jobs),
		"timezone": s.location.String(),
	}).Info("daily scheduler started")

	go s.loop()
}

// Stop halts the loop and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Scheduler) loop() {
	defer close(s.done)

	for {
		wait := time.Until(nextMidnight(s.now().In(s.location)))
		timer := time.NewTimer(wait)

		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
			s.runAll()
		}
	}
}

// runAll executes every job sequentially. A failing job is logged and the
// rest still run.
func (s *Scheduler) runAll() {
	for _, job := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		start := s.now()
		err := job.Run(ctx)
		cancel()

		entry := log.WithFields(log.Fields{
			"job":      job.Name,
			"duration": s.now().Sub(start).String(),
		})
		if err != nil {
			entry.WithError(err).Error("scheduled job failed")
			continue
		}
		entry.Info("scheduled job completed")
	}
}

// nextMidnight returns the first midnight strictly after now, in now's
// location. DST transitions are handled by resolving through time.Date.
func nextMidnight(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}
