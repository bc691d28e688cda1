package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Board/internal/domain"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// Enqueuer is the part of *asynq.Client the queue needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue archives asynchronously: it only enqueues tasks for a Worker.
type Queue struct {
	client Enqueuer
	opts   []asynq.Option
}

func NewQueue(client Enqueuer) *Queue {
	return &Queue{
		client: client,
		opts: []asynq.Option{
			asynq.Queue("default"),
			asynq.MaxRetry(3),
			asynq.Timeout(30 * time.Second),
		},
	}
}

func (q *Queue) Archive(ctx context.Context, snap domain.SurfaceSnapshot) error {
	task, err := NewArchiveTask(snap)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task, q.opts)
}

func (q *Queue) Forget(ctx context.Context, code domain.RoomCode) error {
	task, err := NewForgetTask(code)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task, q.opts)
}

func (q *Queue) enqueue(ctx context.Context, task *asynq.Task, opts []asynq.Option) error {
	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	log.Debug().Str("module", "persist").Str("task_id", info.ID).Str("task_type", task.Type()).Str("queue", info.Queue).Msg("task enqueued")
	return nil
}
