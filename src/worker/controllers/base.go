package controllers

import (
	"sync"

	"portfolio/src/models"
	"portfolio/src/scheduler"
	"portfolio/src/services"

	"github.com/sirupsen/logrus"
)

type Controller struct {
	Sync           services.SyncServiceI
	Logger         *logrus.Logger
	SchedulerMutex sync.Mutex
	Schedulers     map[models.RunMode]*scheduler.ScheduledTask
}

func NewController(syncService services.SyncServiceI, logger *logrus.Logger) *Controller {
	return &Controller{
		Sync:       syncService,
		Logger:     logger,
		Schedulers: map[models.RunMode]*scheduler.ScheduledTask{},
	}
}

func (c *Controller) GetSchedulers() map[models.RunMode]*scheduler.ScheduledTask {
	c.SchedulerMutex.Lock()
	defer c.SchedulerMutex.Unlock()

	schedulers := make(map[models.RunMode]*scheduler.ScheduledTask, len(c.Schedulers))
	for mode, task := range c.Schedulers {
		schedulers[mode] = task
	}
	return schedulers
}
