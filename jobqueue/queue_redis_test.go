package jobqueue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueIdempotencyKeyCollapses(t *testing.T) {
	client := newIsolatedRedisClient(t)
	q := NewQueue(client, 1)
	ctx := context.Background()

	payload := FollowUpEmailJobPayload{AppointmentID: uuid.New().String()}.ToMap()
	opts := EnqueueOptions{Delay: time.Hour, IdempotencyKey: "followup:same-appointment"}

	first, err := q.Enqueue(JobTypeFollowUpEmail, payload, opts)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Second enqueue under the same key hands back the scheduled job
	second, err := q.Enqueue(JobTypeFollowUpEmail, payload, opts)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	delayed, err := q.GetDelayedSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), delayed)

	pending, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestEnqueueOrphanedIdempotencyKey(t *testing.T) {
	client := newIsolatedRedisClient(t)
	q := NewQueue(client, 1)
	ctx := context.Background()

	// Dedup key survives but the job record it points to is gone
	require.NoError(t, client.Set(ctx, JobDedupKeyPrefix+"orphaned", "vanished-job-id", time.Hour).Err())

	job, err := q.Enqueue(JobTypeFollowUpEmail, map[string]interface{}{}, EnqueueOptions{IdempotencyKey: "orphaned"})
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestDelayedJobDeliveredExactlyOnce(t *testing.T) {
	client := newIsolatedRedisClient(t)
	q := NewQueue(client, 2)
	ctx := context.Background()

	var invocations atomic.Int64
	q.RegisterHandler(JobTypeFollowUpEmail, func(ctx context.Context, job *Job) error {
		invocations.Add(1)
		return nil
	})

	payload := FollowUpEmailJobPayload{AppointmentID: uuid.New().String()}.ToMap()
	opts := EnqueueOptions{Delay: 300 * time.Millisecond, IdempotencyKey: "followup:deliver-once"}

	// Scheduled twice before firing, handled once
	_, err := q.Enqueue(JobTypeFollowUpEmail, payload, opts)
	require.NoError(t, err)
	_, err = q.Enqueue(JobTypeFollowUpEmail, payload, opts)
	require.NoError(t, err)

	q.Start()
	defer q.Stop()

	require.Eventually(t, func() bool {
		return invocations.Load() == 1
	}, 10*time.Second, 50*time.Millisecond, "the delayed job must be promoted and handled")

	// Leave room for a duplicate delivery to surface
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, int64(1), invocations.Load())

	delayed, err := q.GetDelayedSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, delayed)

	// Completion releases the idempotency key for future appointments
	exists, err := client.Exists(ctx, JobDedupKeyPrefix+"followup:deliver-once").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
