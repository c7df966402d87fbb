package main

import (
	"nutrifarm-backend/internal/infrastructure/queue"
	"nutrifarm-backend/pkg/container"
	"nutrifarm-backend/pkg/logger"
)

func setupScheduler(c *container.Container) (*queue.Scheduler, error) {
	scheduler := queue.NewScheduler(queue.RedisOpt(c.Config.Redis), c.Config.Job)

	if err := scheduler.RegisterJobs(); err != nil {
		return nil, err
	}
	if err := scheduler.Start(); err != nil {
		return nil, err
	}

	logger.Info("[Scheduler] started", nil)
	return scheduler, nil
}
