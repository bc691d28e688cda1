package persist

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// Worker runs the asynq server that drains the archive queue.
type Worker struct {
	server  *asynq.Server
	handler *Handler
}

func NewWorker(redisOpt asynq.RedisClientOpt, concurrency int, store Archiver) *Worker {
	if concurrency <= 0 {
		concurrency = 4
	}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{"default": 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retry, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.Error().
				Str("module", "persist").
				Str("task_type", task.Type()).
				Int("retry", retry).
				Int("max_retry", maxRetry).
				Err(err).
				Msg("task failed")
		}),
	})
	return &Worker{server: server, handler: NewHandler(store)}
}

// Run blocks until ctx is canceled, then shuts the server down.
func (w *Worker) Run(ctx context.Context) error {
	mux := asynq.NewServeMux()
	w.handler.Register(mux)

	log.Info().Str("module", "persist").Msg("archive worker starting")
	if err := w.server.Start(mux); err != nil {
		return fmt.Errorf("start archive worker: %w", err)
	}
	<-ctx.Done()
	w.server.Shutdown()
	log.Info().Str("module", "persist").Msg("archive worker stopped")
	return nil
}
