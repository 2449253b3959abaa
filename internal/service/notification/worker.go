package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
)

// UserDirectory pages through user IDs for broadcast fan-out
type UserDirectory interface {
	ListUserIDs(ctx context.Context, offset, limit int) ([]uuid.UUID, error)
}

// Worker consumes notification tasks and performs the actual row inserts.
// A handler error makes asynq retry the task with backoff, which is what
// gives delivery its at-least-once guarantee.
type Worker struct {
	server    *asynq.Server
	repo      Repository
	directory UserDirectory
	logger    *slog.Logger
	batchSize int
}

// WorkerConfig sizes the asynq consumer
type WorkerConfig struct {
	Concurrency int
	BatchSize   int
}

// NewWorker creates a notification worker
func NewWorker(redisOpt asynq.RedisClientOpt, repo Repository, directory UserDirectory, cfg WorkerConfig, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			QueueDeliver:   8,
			QueueBroadcast: 2,
		},
	})

	return &Worker{
		server:    server,
		repo:      repo,
		directory: directory,
		logger:    logger,
		batchSize: cfg.BatchSize,
	}
}

// Run starts the worker and blocks until the context is canceled
func (w *Worker) Run(ctx context.Context) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskDeliver, w.handleDeliver)
	mux.HandleFunc(TaskBroadcast, w.handleBroadcast)

	if err := w.server.Start(mux); err != nil {
		return fmt.Errorf("starting notification worker: %w", err)
	}

	w.logger.Info("notification worker started",
		"queues", []string{QueueDeliver, QueueBroadcast})

	<-ctx.Done()

	w.server.Shutdown()
	w.logger.Info("notification worker stopped")
	return nil
}

func (w *Worker) handleDeliver(ctx context.Context, t *asynq.Task) error {
	var payload DeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed payloads never become deliverable; skip retries.
		return fmt.Errorf("unmarshaling deliver payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.repo.Create(ctx, payload.toNotification()); err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}

	return nil
}

// handleBroadcast fans out one notification per user in pages. A mid-page
// failure surfaces as a task retry; the retried attempt re-walks the
// directory, but notification IDs are derived deterministically from the
// task and user IDs and CreateBatch ignores conflicts, so each user ends up
// with exactly one row no matter how often the task runs.
func (w *Worker) handleBroadcast(ctx context.Context, t *asynq.Task) error {
	var payload BroadcastPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshaling broadcast payload: %w: %w", err, asynq.SkipRetry)
	}

	taskID, _ := asynq.GetTaskID(ctx)
	offset := 0
	total := 0

	for {
		userIDs, err := w.directory.ListUserIDs(ctx, offset, w.batchSize)
		if err != nil {
			return fmt.Errorf("listing users at offset %d: %w", offset, err)
		}
		if len(userIDs) == 0 {
			break
		}

		batch := make([]*notification.Notification, 0, len(userIDs))
		for _, userID := range userIDs {
			n := notification.New(userID, payload.Type, payload.Title, payload.Message)
			n.ID = broadcastNotificationID(taskID, userID)
			batch = append(batch, n)
		}

		if err := w.repo.CreateBatch(ctx, batch); err != nil {
			return fmt.Errorf("inserting broadcast page at offset %d: %w", offset, err)
		}

		offset += len(userIDs)
		total += len(userIDs)

		if len(userIDs) < w.batchSize {
			break
		}
	}

	w.logger.InfoContext(ctx, "broadcast delivered",
		"type", string(payload.Type),
		"recipients", total)

	return nil
}

var broadcastNamespace = uuid.MustParse("f3b1a1d2-8c4e-4b6a-9f21-7d5e0c9a4b11")

// broadcastNotificationID is stable for a given (task, user) pair
func broadcastNotificationID(taskID string, userID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(broadcastNamespace, []byte(taskID+":"+userID.String()))
}
