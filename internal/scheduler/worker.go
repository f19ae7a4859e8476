package scheduler

import (
	"context"

	"github.com/hibiken/asynq"

	engagementsvc "leadgate_backend/internal/engagement/service"
	"leadgate_backend/platform/config"
	"leadgate_backend/platform/logger"
)

// Worker consumes background tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

// NewWorker creates the asynq server with handlers registered.
func NewWorker(cfg config.SchedulerConfig, engagement *engagementsvc.Service, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskEngagementRescore, func(ctx context.Context, task *asynq.Task) error {
		payload, err := ParseEngagementRescorePayload(task)
		if err != nil {
			// Malformed payloads never become valid; do not retry.
			log.Error("dropping malformed rescore task", "error", err)
			return nil
		}

		_, err = engagement.Apply(ctx, payload.ProspectID, payload.Events)
		return err
	})

	return &Worker{server: server, mux: mux, log: log}, nil
}

// Run blocks until Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully, waiting for in-flight tasks.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
