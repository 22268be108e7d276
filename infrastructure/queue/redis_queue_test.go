package queue

import (
	"context"
	"testing"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisQueue(t *testing.T, opts Options) (*RedisQueue, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := NewRedisQueue(rdb, opts)
	t.Cleanup(func() { _ = q.Close() })
	return q, mr
}

func TestRedisQueue(t *testing.T) {
	runQueueSuite(t, func(t *testing.T, opts Options) repository.IJobQueue {
		q, _ := newMiniredisQueue(t, opts)
		return q
	})
}

func TestRedisQueue_KeyLayout(t *testing.T) {
	ctx := context.Background()
	q, mr := newMiniredisQueue(t, Options{Prefix: "pub", Now: newClock().Now})

	_, err := q.Enqueue(ctx, "job-1", testPayload("job-1"), 0)
	require.NoError(t, err)

	assert.True(t, mr.Exists("pub:job:job-1"))
	assert.Equal(t, "waiting", mr.HGet("pub:job:job-1", "state"))
	list, err := mr.List("pub:wait")
	require.NoError(t, err)
	assert.Equal(t, []string{"job-1"}, list)

	require.NoError(t, q.Pause(ctx))
	assert.True(t, mr.Exists("pub:paused"))
}

func TestRedisQueue_SkipsEntriesRemovedDuringPromotion(t *testing.T) {
	ctx := context.Background()
	q, mr := newMiniredisQueue(t, Options{Now: newClock().Now})

	// an id on the wait list whose hash is gone
	_, err := mr.Push("publish:wait", "ghost")
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "job-2", testPayload("job-2"), 0)
	require.NoError(t, err)

	entry, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "job-2", entry.JobID)
	assert.Equal(t, model.PlatformTikTok, entry.Payload.Platform)
}

func TestRedisQueue_RecoverStalledRelinksOrphans(t *testing.T) {
	ctx := context.Background()

	t.Run("waiting hash missing from the wait list", func(t *testing.T) {
		clock := newClock()
		q, mr := newMiniredisQueue(t, Options{Now: clock.Now})
		_, err := q.Enqueue(ctx, "job-1", testPayload("job-1"), 0)
		require.NoError(t, err)
		_, err = mr.Lpop("publish:wait")
		require.NoError(t, err)

		// too young to tell apart from an enqueue in flight
		recovered, err := q.RecoverStalled(ctx, 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 0, recovered)

		clock.Advance(10 * time.Minute)
		recovered, err = q.RecoverStalled(ctx, 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, recovered)

		entry, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "job-1", entry.JobID)
	})

	t.Run("delayed hash missing from the delayed set", func(t *testing.T) {
		clock := newClock()
		q, mr := newMiniredisQueue(t, Options{Now: clock.Now})
		_, err := q.Enqueue(ctx, "job-2", testPayload("job-2"), time.Minute)
		require.NoError(t, err)
		_, err = mr.ZRem("publish:delayed", "job-2")
		require.NoError(t, err)

		recovered, err := q.RecoverStalled(ctx, 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, recovered)

		clock.Advance(time.Minute)
		entry, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "job-2", entry.JobID)
	})

	t.Run("active hash missing from the active set", func(t *testing.T) {
		clock := newClock()
		q, mr := newMiniredisQueue(t, Options{Now: clock.Now})
		_, err := q.Enqueue(ctx, "job-3", testPayload("job-3"), 0)
		require.NoError(t, err)
		_, err = q.Dequeue(ctx)
		require.NoError(t, err)
		_, err = mr.ZRem("publish:active", "job-3")
		require.NoError(t, err)

		clock.Advance(10 * time.Minute)
		recovered, err := q.RecoverStalled(ctx, 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, recovered)
		assert.Equal(t, "waiting", mr.HGet("publish:job:job-3", "state"))
		assert.Equal(t, "stalled", mr.HGet("publish:job:job-3", "failed_reason"))
	})
}

func TestRedisQueue_DequeueMarksActiveAtomically(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	q, mr := newMiniredisQueue(t, Options{Now: clock.Now})
	_, err := q.Enqueue(ctx, "job-1", testPayload("job-1"), 0)
	require.NoError(t, err)

	entry, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, entry)

	score, err := mr.ZScore("publish:active", "job-1")
	require.NoError(t, err)
	assert.Equal(t, float64(clock.Now().UnixMilli()), score)
	assert.Equal(t, "active", mr.HGet("publish:job:job-1", "state"))
	assert.False(t, mr.Exists("publish:wait"))
}
