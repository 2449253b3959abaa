package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: uuid.New().String()}, nil
}

type enqueueCounter struct {
	types []string
}

func (c *enqueueCounter) RecordNotificationEnqueued(_ context.Context, notificationType string) {
	c.types = append(c.types, notificationType)
}

func TestDispatchEnqueuesAndCounts(t *testing.T) {
	queue := &fakeEnqueuer{}
	counter := &enqueueCounter{}
	d := (&Dispatcher{client: queue, logger: slog.Default()}).WithMetrics(counter)

	n := notification.New(uuid.New(), notification.TypeOutbid,
		"You have been outbid", "A new bid of 150.00 USD has exceeded yours.")

	require.NoError(t, d.Dispatch(context.Background(), n))

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, TaskDeliver, queue.tasks[0].Type())

	var payload DeliverPayload
	require.NoError(t, json.Unmarshal(queue.tasks[0].Payload(), &payload))
	assert.Equal(t, n.ID, payload.ID)
	assert.Equal(t, n.UserID, payload.UserID)

	assert.Equal(t, []string{string(notification.TypeOutbid)}, counter.types)
}

func TestBroadcastEnqueuesAndCounts(t *testing.T) {
	queue := &fakeEnqueuer{}
	counter := &enqueueCounter{}
	d := (&Dispatcher{client: queue, logger: slog.Default()}).WithMetrics(counter)

	n := notification.New(uuid.Nil, notification.TypeSystem,
		"Scheduled maintenance", "The marketplace will be briefly unavailable tonight.")

	require.NoError(t, d.Broadcast(context.Background(), n))

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, TaskBroadcast, queue.tasks[0].Type())
	assert.Equal(t, []string{string(notification.TypeSystem)}, counter.types)
}

func TestDispatchFailureCountsNothing(t *testing.T) {
	queue := &fakeEnqueuer{err: assert.AnError}
	counter := &enqueueCounter{}
	d := (&Dispatcher{client: queue, logger: slog.Default()}).WithMetrics(counter)

	n := notification.New(uuid.New(), notification.TypeSale,
		"Your item sold", "The auction closed with a winning bid.")

	err := d.Dispatch(context.Background(), n)

	require.Error(t, err)
	assert.Empty(t, counter.types)
}

func TestDispatchRejectsUnknownType(t *testing.T) {
	queue := &fakeEnqueuer{}
	d := &Dispatcher{client: queue, logger: slog.Default()}

	n := notification.New(uuid.New(), notification.Type("carrier_pigeon"), "t", "m")

	require.Error(t, d.Dispatch(context.Background(), n))
	assert.Empty(t, queue.tasks)
}
