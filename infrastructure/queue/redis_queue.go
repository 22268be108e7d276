package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 5

// RedisQueue keeps each entry in a hash ({prefix}:job:{id}) and tracks it in
// a wait list, or in a sorted set scored in ms: delayed (ready time), active
// (claim time), completed/failed (finish time). The dequeue script pops and
// marks active in one step, so every entry reaches exactly one worker.
type RedisQueue struct {
	rdb  *redis.Client
	opts Options
}

func NewRedisQueue(rdb *redis.Client, opts Options) *RedisQueue {
	return &RedisQueue{rdb: rdb, opts: opts.withDefaults()}
}

func (q *RedisQueue) key(name string) string  { return q.opts.Prefix + ":" + name }
func (q *RedisQueue) jobKey(id string) string { return q.opts.Prefix + ":job:" + id }
func (q *RedisQueue) nowMs() int64            { return q.opts.Now().UnixMilli() }
func msString(ms int64) string                { return strconv.FormatInt(ms, 10) }
func fromMs(ms int64) time.Time               { return time.UnixMilli(ms).UTC() }

func (q *RedisQueue) Enqueue(ctx context.Context, jobID string, payload model.QueuePayload, delay time.Duration) (*model.QueueHandle, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	if delay < 0 {
		delay = 0
	}
	maxAttempts := payload.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = q.opts.DefaultMaxAttempts
	}
	key := q.jobKey(jobID)

	var handle *model.QueueHandle
	txf := func(tx *redis.Tx) error {
		vals, err := tx.HMGet(ctx, key, "state", "ready_at").Result()
		if err != nil {
			return err
		}
		if state, ok := vals[0].(string); ok && model.QueueState(state).IsLive() {
			readyAt, _ := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
			handle = &model.QueueHandle{JobID: jobID, State: model.QueueState(state), ReadyAt: fromMs(readyAt), Existing: true}
			return nil
		}

		now := q.nowMs()
		readyAt := now + delay.Milliseconds()
		state := model.QueueStateWaiting
		if delay > 0 {
			state = model.QueueStateDelayed
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, q.key("completed"), jobID)
			pipe.ZRem(ctx, q.key("failed"), jobID)
			pipe.HSet(ctx, key,
				"payload", body,
				"state", string(state),
				"attempts_made", 0,
				"max_attempts", maxAttempts,
				"enqueued_at", now,
				"ready_at", readyAt,
			)
			if state == model.QueueStateDelayed {
				pipe.ZAdd(ctx, q.key("delayed"), redis.Z{Score: float64(readyAt), Member: jobID})
			} else {
				pipe.RPush(ctx, q.key("wait"), jobID)
			}
			return nil
		})
		if err == nil {
			handle = &model.QueueHandle{JobID: jobID, State: state, ReadyAt: fromMs(readyAt)}
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := q.rdb.Watch(ctx, txf, key)
		if err == nil {
			return handle, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("enqueue %s: %w", jobID, err)
	}
	return nil, fmt.Errorf("enqueue %s: %w", jobID, redis.TxFailedErr)
}

func (q *RedisQueue) Remove(ctx context.Context, jobID string) (bool, error) {
	state, err := q.rdb.HGet(ctx, q.jobKey(jobID), "state").Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", jobID, err)
	}
	if model.QueueState(state) == model.QueueStateActive {
		return false, nil
	}
	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.key("wait"), 0, jobID)
		pipe.ZRem(ctx, q.key("delayed"), jobID)
		pipe.ZRem(ctx, q.key("completed"), jobID)
		pipe.ZRem(ctx, q.key("failed"), jobID)
		pipe.Del(ctx, q.jobKey(jobID))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", jobID, err)
	}
	return true, nil
}

func (q *RedisQueue) GetStatus(ctx context.Context, jobID string) (*model.QueueJobStatus, error) {
	vals, err := q.rdb.HMGet(ctx, q.jobKey(jobID), "state", "attempts_made", "failed_reason").Result()
	if err != nil {
		return nil, fmt.Errorf("status %s: %w", jobID, err)
	}
	state, ok := vals[0].(string)
	if !ok {
		return nil, model.ErrQueueEntryNotFound
	}
	status := &model.QueueJobStatus{JobID: jobID, State: model.QueueState(state)}
	if s, ok := vals[1].(string); ok {
		status.AttemptsMade, _ = strconv.Atoi(s)
	}
	if s, ok := vals[2].(string); ok && s != "" {
		status.FailedReason = &s
	}
	return status, nil
}

func (q *RedisQueue) Pause(ctx context.Context) error {
	return q.rdb.Set(ctx, q.key("paused"), "1", 0).Err()
}

func (q *RedisQueue) Resume(ctx context.Context) error {
	return q.rdb.Del(ctx, q.key("paused")).Err()
}

// Drain removes every waiting and delayed entry and returns their ids.
func (q *RedisQueue) Drain(ctx context.Context) ([]string, error) {
	waiting, err := q.rdb.LRange(ctx, q.key("wait"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("drain: %w", err)
	}
	delayed, err := q.rdb.ZRange(ctx, q.key("delayed"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("drain: %w", err)
	}
	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range append(waiting, delayed...) {
			pipe.Del(ctx, q.jobKey(id))
		}
		pipe.Del(ctx, q.key("wait"), q.key("delayed"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain: %w", err)
	}
	logger.GetLogger().WithField("waiting", len(waiting)).WithField("delayed", len(delayed)).Info("queue drained")

	seen := make(map[string]bool, len(waiting)+len(delayed))
	drained := make([]string, 0, len(waiting)+len(delayed))
	for _, id := range append(waiting, delayed...) {
		if !seen[id] {
			seen[id] = true
			drained = append(drained, id)
		}
	}
	sort.Strings(drained)
	return drained, nil
}

func (q *RedisQueue) GetStats(ctx context.Context) (*model.QueueStats, error) {
	if err := q.prune(ctx); err != nil {
		return nil, err
	}
	var (
		waiting, delayed, completed, failed *redis.IntCmd
		active, paused                      *redis.IntCmd
	)
	_, err := q.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		waiting = pipe.LLen(ctx, q.key("wait"))
		active = pipe.ZCard(ctx, q.key("active"))
		completed = pipe.ZCard(ctx, q.key("completed"))
		failed = pipe.ZCard(ctx, q.key("failed"))
		delayed = pipe.ZCard(ctx, q.key("delayed"))
		paused = pipe.Exists(ctx, q.key("paused"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &model.QueueStats{
		Waiting:   waiting.Val(),
		Active:    active.Val(),
		Completed: completed.Val(),
		Failed:    failed.Val(),
		Delayed:   delayed.Val(),
		Paused:    paused.Val() > 0,
	}, nil
}

// dequeueScript pops ids off the wait list until it finds one still waiting and
// marks it active in the same step, so a crash can never leave a popped entry
// untracked. Ids whose hash was removed or already moved on are dropped.
var dequeueScript = redis.NewScript(`
while true do
  local id = redis.call('LPOP', KEYS[1])
  if not id then return false end
  local key = ARGV[2] .. id
  if redis.call('HGET', key, 'state') == 'waiting' then
    redis.call('HSET', key, 'state', 'active', 'processed_at', ARGV[1])
    redis.call('ZADD', KEYS[2], ARGV[1], id)
    return id
  end
end
`)

// requeueScript takes one id out of the active set and, if its hash is still
// active, puts it back on the wait list. Only one caller can win the ZREM.
var requeueScript = redis.NewScript(`
if redis.call('ZREM', KEYS[1], ARGV[1]) == 0 then return 0 end
if redis.call('HGET', ARGV[2], 'state') ~= 'active' then return 0 end
redis.call('HSET', ARGV[2], 'state', 'waiting', 'failed_reason', 'stalled')
redis.call('RPUSH', KEYS[2], ARGV[1])
return 1
`)

// promoteScript moves due delayed entries onto the wait list atomically.
var promoteScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(ids) do
  redis.call('ZREM', KEYS[1], id)
  local key = ARGV[2] .. id
  if redis.call('EXISTS', key) == 1 then
    redis.call('HSET', key, 'state', 'waiting')
    redis.call('RPUSH', KEYS[2], id)
  end
end
return #ids
`)

func (q *RedisQueue) Dequeue(ctx context.Context) (*model.QueueEntry, error) {
	paused, err := q.rdb.Exists(ctx, q.key("paused")).Result()
	if err != nil {
		return nil, fmt.Errorf("dequeue: %w", err)
	}
	if paused > 0 {
		return nil, nil
	}
	if err := q.promoteDue(ctx); err != nil {
		return nil, err
	}
	jobPrefix := q.jobKey("")
	for {
		id, err := dequeueScript.Run(ctx, q.rdb, []string{q.key("wait"), q.key("active")}, q.nowMs(), jobPrefix).Text()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("dequeue: %w", err)
		}
		fields, err := q.rdb.HGetAll(ctx, q.jobKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("dequeue %s: %w", id, err)
		}
		entry, err := decodeEntry(id, fields)
		if err != nil {
			logger.GetLogger().WithField("job_id", id).WithField("error", err).Error("dropping undecodable queue entry")
			q.rdb.ZRem(ctx, q.key("active"), id)
			q.rdb.Del(ctx, q.jobKey(id))
			continue
		}
		return entry, nil
	}
}

func (q *RedisQueue) promoteDue(ctx context.Context) error {
	err := promoteScript.Run(ctx, q.rdb, []string{q.key("delayed"), q.key("wait")}, q.nowMs(), q.jobKey("")).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("promote delayed: %w", err)
	}
	return nil
}

// RecoverStalled first re-links live hashes that fell out of their list (a
// writer that died half way), then hands entries active for longer than
// olderThan back to the wait list. A worker that is merely slow is harmless:
// the job row only lets one claim through.
func (q *RedisQueue) RecoverStalled(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := q.nowMs() - olderThan.Milliseconds()
	relinked, err := q.relinkOrphans(ctx, cutoff)
	if err != nil {
		return relinked, err
	}

	stalled, err := q.rdb.ZRangeByScore(ctx, q.key("active"), &redis.ZRangeBy{Min: "-inf", Max: "(" + msString(cutoff)}).Result()
	if err != nil {
		return relinked, fmt.Errorf("recover stalled: %w", err)
	}
	recovered := relinked
	for _, id := range stalled {
		moved, err := requeueScript.Run(ctx, q.rdb, []string{q.key("active"), q.key("wait")}, id, q.jobKey(id)).Int()
		if err != nil {
			return recovered, fmt.Errorf("recover %s: %w", id, err)
		}
		if moved == 0 {
			continue
		}
		logger.GetLogger().WithField("job_id", id).Warn("Stalled queue entry returned to wait list")
		recovered++
	}
	return recovered, nil
}

func (q *RedisQueue) relinkOrphans(ctx context.Context, cutoff int64) (int, error) {
	waiting, err := q.rdb.LRange(ctx, q.key("wait"), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("recover orphans: %w", err)
	}
	onList := make(map[string]bool, len(waiting))
	for _, id := range waiting {
		onList[id] = true
	}

	jobPrefix := q.jobKey("")
	relinked := 0
	iter := q.rdb.Scan(ctx, 0, jobPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id := key[len(jobPrefix):]
		vals, err := q.rdb.HMGet(ctx, key, "state", "ready_at", "processed_at").Result()
		if err != nil {
			return relinked, fmt.Errorf("recover %s: %w", id, err)
		}
		state, _ := vals[0].(string)
		readyAt, _ := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
		processedAt, _ := strconv.ParseInt(fmt.Sprint(vals[2]), 10, 64)

		switch model.QueueState(state) {
		case model.QueueStateWaiting:
			// a duplicate push is harmless: the dequeue script drops ids that are no
			// longer waiting
			if onList[id] || readyAt >= cutoff {
				continue
			}
			err = q.rdb.RPush(ctx, q.key("wait"), id).Err()
		case model.QueueStateDelayed:
			if _, zerr := q.rdb.ZScore(ctx, q.key("delayed"), id).Result(); !errors.Is(zerr, redis.Nil) {
				continue
			}
			err = q.rdb.ZAdd(ctx, q.key("delayed"), redis.Z{Score: float64(readyAt), Member: id}).Err()
		case model.QueueStateActive:
			if _, zerr := q.rdb.ZScore(ctx, q.key("active"), id).Result(); !errors.Is(zerr, redis.Nil) {
				continue
			}
			err = q.rdb.ZAdd(ctx, q.key("active"), redis.Z{Score: float64(processedAt), Member: id}).Err()
			if err == nil {
				// re-tracked only; the stalled pass decides whether it is overdue
				continue
			}
		default:
			continue
		}
		if err != nil {
			return relinked, fmt.Errorf("recover %s: %w", id, err)
		}
		logger.GetLogger().WithField("job_id", id).WithField("state", state).Warn("Orphaned queue entry re-linked")
		relinked++
	}
	if err := iter.Err(); err != nil {
		return relinked, fmt.Errorf("recover orphans: %w", err)
	}
	return relinked, nil
}

func (q *RedisQueue) Complete(ctx context.Context, jobID string) error {
	if err := q.ensureExists(ctx, jobID); err != nil {
		return err
	}
	now := q.nowMs()
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.key("active"), jobID)
		pipe.HIncrBy(ctx, q.jobKey(jobID), "attempts_made", 1)
		pipe.HSet(ctx, q.jobKey(jobID), "state", string(model.QueueStateCompleted), "finished_at", now)
		pipe.ZAdd(ctx, q.key("completed"), redis.Z{Score: float64(now), Member: jobID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("complete %s: %w", jobID, err)
	}
	return q.prune(ctx)
}

func (q *RedisQueue) Retry(ctx context.Context, jobID string, reason string, minDelay time.Duration) (bool, time.Duration, error) {
	if err := q.ensureExists(ctx, jobID); err != nil {
		return false, 0, err
	}
	attempts, err := q.rdb.HIncrBy(ctx, q.jobKey(jobID), "attempts_made", 1).Result()
	if err != nil {
		return false, 0, fmt.Errorf("retry %s: %w", jobID, err)
	}
	maxAttempts, err := q.rdb.HGet(ctx, q.jobKey(jobID), "max_attempts").Int()
	if err != nil {
		return false, 0, fmt.Errorf("retry %s: %w", jobID, err)
	}
	if int(attempts) >= maxAttempts {
		return false, 0, q.finishFailed(ctx, jobID, reason)
	}

	delay := BackoffDelay(int(attempts), q.opts.BackoffBase, q.opts.MaxBackoff)
	if minDelay > delay {
		delay = minDelay
	}
	readyAt := q.nowMs() + delay.Milliseconds()
	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.key("active"), jobID)
		pipe.HSet(ctx, q.jobKey(jobID), "state", string(model.QueueStateDelayed), "failed_reason", reason, "ready_at", readyAt)
		pipe.ZAdd(ctx, q.key("delayed"), redis.Z{Score: float64(readyAt), Member: jobID})
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("retry %s: %w", jobID, err)
	}
	return true, delay, nil
}

func (q *RedisQueue) Fail(ctx context.Context, jobID string, reason string) error {
	if err := q.ensureExists(ctx, jobID); err != nil {
		return err
	}
	if err := q.rdb.HIncrBy(ctx, q.jobKey(jobID), "attempts_made", 1).Err(); err != nil {
		return fmt.Errorf("fail %s: %w", jobID, err)
	}
	return q.finishFailed(ctx, jobID, reason)
}

func (q *RedisQueue) finishFailed(ctx context.Context, jobID, reason string) error {
	now := q.nowMs()
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.key("active"), jobID)
		pipe.HSet(ctx, q.jobKey(jobID), "state", string(model.QueueStateFailed), "failed_reason", reason, "finished_at", now)
		pipe.ZAdd(ctx, q.key("failed"), redis.Z{Score: float64(now), Member: jobID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("fail %s: %w", jobID, err)
	}
	return q.prune(ctx)
}

func (q *RedisQueue) ensureExists(ctx context.Context, jobID string) error {
	n, err := q.rdb.Exists(ctx, q.jobKey(jobID)).Result()
	if err != nil {
		return fmt.Errorf("lookup %s: %w", jobID, err)
	}
	if n == 0 {
		return model.ErrQueueEntryNotFound
	}
	return nil
}

// prune drops terminal entries older than their retention window.
func (q *RedisQueue) prune(ctx context.Context) error {
	now := q.opts.Now()
	sets := []struct {
		name   string
		cutoff time.Time
	}{
		{"completed", now.Add(-q.opts.CompletedRetention)},
		{"failed", now.Add(-q.opts.FailedRetention)},
	}
	for _, s := range sets {
		expired, err := q.rdb.ZRangeByScore(ctx, q.key(s.name), &redis.ZRangeBy{Min: "-inf", Max: "(" + msString(s.cutoff.UnixMilli())}).Result()
		if err != nil {
			return fmt.Errorf("prune %s: %w", s.name, err)
		}
		if len(expired) == 0 {
			continue
		}
		_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, id := range expired {
				pipe.Del(ctx, q.jobKey(id))
				pipe.ZRem(ctx, q.key(s.name), id)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("prune %s: %w", s.name, err)
		}
	}
	return nil
}

func (q *RedisQueue) Close() error { return q.rdb.Close() }

func decodeEntry(id string, fields map[string]string) (*model.QueueEntry, error) {
	var payload model.QueuePayload
	if err := json.Unmarshal([]byte(fields["payload"]), &payload); err != nil {
		return nil, err
	}
	attempts, _ := strconv.Atoi(fields["attempts_made"])
	maxAttempts, _ := strconv.Atoi(fields["max_attempts"])
	enqueuedAt, _ := strconv.ParseInt(fields["enqueued_at"], 10, 64)
	return &model.QueueEntry{
		JobID:        id,
		Payload:      payload,
		AttemptsMade: attempts,
		MaxAttempts:  maxAttempts,
		EnqueuedAt:   fromMs(enqueuedAt),
	}, nil
}

var _ repository.IJobQueue = (*RedisQueue)(nil)
