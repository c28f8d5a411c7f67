package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduledTask runs a function on a cron schedule until cancelled.
type ScheduledTask struct {
	cronID cron.EntryID
	cron   *cron.Cron
	cancel chan struct{}
}

// NewScheduledTask starts taskFunc on cronSpec evaluated in loc. A nil loc means UTC.
// Overlapping triggers are dropped while the previous call is still running.
func NewScheduledTask(cronSpec string, loc *time.Location, taskFunc func()) (*ScheduledTask, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	cancel := make(chan struct{})
	task := &ScheduledTask{
		cron:   c,
		cancel: cancel,
	}

	id, err := c.AddFunc(cronSpec, func() {
		select {
		case <-cancel:
			return
		default:
			taskFunc()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cronSpec, err)
	}

	task.cronID = id
	c.Start()
	return task, nil
}

// Next reports when the task fires next.
func (s *ScheduledTask) Next() time.Time {
	return s.cron.Entry(s.cronID).Next
}

// Cancel stops the schedule and waits for a running call to finish.
func (s *ScheduledTask) Cancel() {
	s.cron.Remove(s.cronID)
	close(s.cancel)
	<-s.cron.Stop().Done()
}
