package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"nutrifarm-backend/pkg/container"
	"nutrifarm-backend/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(ctx)
	if err != nil {
		logger.Error("[Container] failed to initialize", err)
		os.Exit(1)
	}
	defer c.Cleanup()

	handlers := initializeHandlers(c)

	srv, err := setupAsynqServer(c, handlers)
	if err != nil {
		logger.Error("[Worker] failed to start", err)
		os.Exit(1)
	}

	scheduler, err := setupScheduler(c)
	if err != nil {
		srv.Shutdown()
		logger.Error("[Scheduler] failed to start", err)
		os.Exit(1)
	}

	health := startHealthServer(c)

	<-ctx.Done()

	logger.Info("[Shutdown] gracefully stopping", nil)
	scheduler.Shutdown()
	srv.Shutdown()
	health.Shutdown()
	logger.Info("[Shutdown] stopped", nil)
}
