package main

import (
	"context"

	"github.com/hibiken/asynq"

	"nutrifarm-backend/internal/infrastructure/queue"
	"nutrifarm-backend/internal/shared"
	"nutrifarm-backend/pkg/container"
	"nutrifarm-backend/pkg/logger"
)

func setupAsynqServer(c *container.Container, handlers *HandlerRegistry) (*asynq.Server, error) {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		queue.RedisOpt(c.Config.Redis),
		asynq.Config{
			Queues:      shared.Queues,
			Concurrency: 10,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.ErrorWithFields("[Asynq] task failed", err, map[string]interface{}{
					"type":      task.Type(),
					"retried":   retried,
					"max_retry": maxRetry,
				})
			}),
		},
	)

	if err := srv.Start(mux); err != nil {
		return nil, err
	}

	logger.Info("[Worker] started", map[string]interface{}{
		"queues": shared.Queues,
	})
	return srv, nil
}
