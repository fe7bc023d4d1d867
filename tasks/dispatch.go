package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Dispatcher hands a task to whatever executes it.
type Dispatcher interface {
	Dispatch(ctx context.Context, task *asynq.Task) error
}

// AsynqDispatcher enqueues on the redis broker for cmd/worker. Tasks are
// never retried: a failure is reported to the user instead.
type AsynqDispatcher struct {
	Client  *asynq.Client
	Timeout time.Duration
	Logger  *zap.Logger
}

func (d *AsynqDispatcher) Dispatch(ctx context.Context, task *asynq.Task) error {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	info, err := d.Client.EnqueueContext(ctx, task, asynq.MaxRetry(0), asynq.Queue(QueueName), asynq.Timeout(timeout))
	if err != nil {
		return err
	}
	d.Logger.Info("[Queue] task submitted", zap.String("type", task.Type()), zap.String("task_id", info.ID))
	return nil
}

// InlineDispatcher runs tasks in this process. With Async unset the task
// finishes before Dispatch returns.
type InlineDispatcher struct {
	Handler asynq.Handler
	Async   bool
	Logger  *zap.Logger
	wg      sync.WaitGroup
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, task *asynq.Task) error {
	if !d.Async {
		return d.Handler.ProcessTask(ctx, task)
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer sentry.Recover()
		if err := d.Handler.ProcessTask(context.Background(), task); err != nil {
			d.Logger.Error("inline task failed", zap.String("type", task.Type()), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every async task has finished.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}
