// Command worker runs the background task consumer.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"leadgate_backend/internal/engagement/repository"
	"leadgate_backend/internal/engagement/service"
	"leadgate_backend/internal/scheduler"
	"leadgate_backend/platform/config"
	"leadgate_backend/platform/db"
	"leadgate_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	log := logger.New(cfg.GetEnvironment())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	engagementService := service.New(repository.New(pool), log)

	worker, err := scheduler.NewWorker(cfg, engagementService, log)
	if err != nil {
		log.Error("worker setup failed", "error", err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down worker")
		worker.Shutdown()
	}()

	log.Info("worker started", "queue", cfg.GetAsynqQueueName(), "concurrency", cfg.GetAsynqConcurrency())
	if err := worker.Run(); err != nil {
		log.Error("worker failed", "error", err)
		os.Exit(1)
	}
}
