package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
)

// taskEnqueuer is the slice of asynq.Client the dispatcher uses
type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueMetrics counts notifications handed to the delivery queue
type EnqueueMetrics interface {
	RecordNotificationEnqueued(ctx context.Context, notificationType string)
}

// Dispatcher enqueues notifications onto the Redis-backed task queue.
// Durability and retries live in asynq; callers treat dispatch as
// best-effort and never roll back the triggering state change.
type Dispatcher struct {
	client  taskEnqueuer
	metrics EnqueueMetrics
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher over an asynq client
func NewDispatcher(client *asynq.Client, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{client: client, logger: logger}
}

// WithMetrics attaches an enqueue counter
func (d *Dispatcher) WithMetrics(m EnqueueMetrics) *Dispatcher {
	d.metrics = m
	return d
}

// Dispatch enqueues a single-recipient notification
func (d *Dispatcher) Dispatch(ctx context.Context, n *notification.Notification) error {
	if !n.Type.Valid() {
		return errors.NewValidationError("INVALID_NOTIFICATION_TYPE", "unknown notification type")
	}

	payload, err := json.Marshal(payloadFrom(n))
	if err != nil {
		return errors.Wrap(err, "marshaling notification payload")
	}

	task := asynq.NewTask(TaskDeliver, payload)
	info, err := d.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDeliver),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return errors.NewExternalError("queue", "failed to enqueue notification").WithCause(err)
	}

	if d.metrics != nil {
		d.metrics.RecordNotificationEnqueued(ctx, string(n.Type))
	}

	d.logger.DebugContext(ctx, "notification enqueued",
		"task_id", info.ID,
		"type", string(n.Type),
		"user_id", n.UserID)

	return nil
}

// Broadcast enqueues a fan-out to all users. The fan-out itself runs in the
// worker in pages, never in the request path.
func (d *Dispatcher) Broadcast(ctx context.Context, n *notification.Notification) error {
	if !n.Type.Valid() {
		return errors.NewValidationError("INVALID_NOTIFICATION_TYPE", "unknown notification type")
	}

	payload, err := json.Marshal(BroadcastPayload{
		Type:    n.Type,
		Title:   n.Title,
		Message: n.Message,
	})
	if err != nil {
		return errors.Wrap(err, "marshaling broadcast payload")
	}

	task := asynq.NewTask(TaskBroadcast, payload)
	info, err := d.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueBroadcast),
		asynq.MaxRetry(10),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return errors.NewExternalError("queue", "failed to enqueue broadcast").WithCause(err)
	}

	if d.metrics != nil {
		d.metrics.RecordNotificationEnqueued(ctx, string(n.Type))
	}

	d.logger.InfoContext(ctx, "broadcast enqueued",
		"task_id", info.ID,
		"type", string(n.Type))

	return nil
}
