package controllers

import (
	"context"
	"errors"
	"time"

	"portfolio/src/models"
	"portfolio/src/scheduler"
	"portfolio/src/schemas"
	"portfolio/src/services"
	"portfolio/src/utils"

	"github.com/sirupsen/logrus"
)

// TriggerRun starts req in the background and returns as soon as the run lock is held.
func (c *Controller) TriggerRun(ctx context.Context, req schemas.RunRequest) (*schemas.RunAccepted, error) {
	return c.Sync.Launch(ctx, req)
}

func (c *Controller) LastRun(ctx context.Context) (*schemas.RunReport, error) {
	return c.Sync.LastRun(ctx)
}

// ScheduleRun runs mode on cronSpec in loc, replacing any schedule already registered for mode.
func (c *Controller) ScheduleRun(mode models.RunMode, cronSpec string, loc *time.Location) error {
	c.SchedulerMutex.Lock()
	if existingTask, exists := c.Schedulers[mode]; exists {
		existingTask.Cancel()
		delete(c.Schedulers, mode)
	}
	c.SchedulerMutex.Unlock()

	newTask, err := scheduler.NewScheduledTask(cronSpec, loc, func() {
		c.runScheduled(mode)
	})
	if err != nil {
		return err
	}

	c.SchedulerMutex.Lock()
	c.Schedulers[mode] = newTask
	c.SchedulerMutex.Unlock()

	c.Logger.WithFields(logrus.Fields{
		"mode":     mode,
		"schedule": cronSpec,
		"next_run": newTask.Next(),
	}).Info("Reconciliation scheduled")
	return nil
}

func (c *Controller) runScheduled(mode models.RunMode) {
	ctx := utils.WithLogger(context.Background(), c.Logger)
	logger := c.Logger.WithField("mode", mode)

	report, err := c.Sync.Run(ctx, schemas.RunRequest{Mode: mode})
	switch {
	case errors.Is(err, services.ErrRunInProgress):
		logger.Warn("Scheduled reconciliation skipped: another run is in progress")
	case err != nil:
		logger.WithError(err).Error("Scheduled reconciliation failed")
	default:
		logger.WithFields(logrus.Fields{
			"run_id":   report.ID,
			"upserted": report.Upserted,
			"skipped":  len(report.Skipped),
		}).Info("Scheduled reconciliation finished")
	}
}

// StopSchedules cancels every registered schedule.
func (c *Controller) StopSchedules() {
	c.SchedulerMutex.Lock()
	defer c.SchedulerMutex.Unlock()
	for mode, task := range c.Schedulers {
		task.Cancel()
		delete(c.Schedulers, mode)
	}
}
