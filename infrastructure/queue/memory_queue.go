package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

type memoryEntry struct {
	id           string
	payload      model.QueuePayload
	state        model.QueueState
	attemptsMade int
	maxAttempts  int
	failedReason *string
	enqueuedAt   time.Time
	readyAt      time.Time
	activeAt     time.Time
	finishedAt   time.Time
	seq          uint64
}

// MemoryQueue is a single-process queue with the same semantics as RedisQueue.
// Entries do not survive a restart; the scheduler's promotion loop re-enqueues
// any PENDING jobs.
type MemoryQueue struct {
	mu      sync.Mutex
	opts    Options
	entries map[string]*memoryEntry
	paused  bool
	seq     uint64
}

func NewMemoryQueue(opts Options) *MemoryQueue {
	return &MemoryQueue{opts: opts.withDefaults(), entries: make(map[string]*memoryEntry)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, jobID string, payload model.QueuePayload, delay time.Duration) (*model.QueueHandle, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if e, ok := q.entries[jobID]; ok && e.state.IsLive() {
		return &model.QueueHandle{JobID: jobID, State: e.state, ReadyAt: e.readyAt, Existing: true}, nil
	}
	now := q.opts.Now()
	if delay < 0 {
		delay = 0
	}
	maxAttempts := payload.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = q.opts.DefaultMaxAttempts
	}
	q.seq++
	e := &memoryEntry{
		id:          jobID,
		payload:     payload,
		state:       model.QueueStateWaiting,
		maxAttempts: maxAttempts,
		enqueuedAt:  now,
		readyAt:     now.Add(delay),
		seq:         q.seq,
	}
	if delay > 0 {
		e.state = model.QueueStateDelayed
	}
	q.entries[jobID] = e
	return &model.QueueHandle{JobID: jobID, State: e.state, ReadyAt: e.readyAt}, nil
}

func (q *MemoryQueue) Remove(_ context.Context, jobID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[jobID]
	if !ok || e.state == model.QueueStateActive {
		return false, nil
	}
	delete(q.entries, jobID)
	return true, nil
}

func (q *MemoryQueue) GetStatus(_ context.Context, jobID string) (*model.QueueJobStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.prune(q.opts.Now())
	e, ok := q.entries[jobID]
	if !ok {
		return nil, model.ErrQueueEntryNotFound
	}
	return &model.QueueJobStatus{JobID: jobID, State: e.state, AttemptsMade: e.attemptsMade, FailedReason: e.failedReason}, nil
}

func (q *MemoryQueue) Pause(context.Context) error {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) Resume(context.Context) error {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()
	return nil
}

// Drain drops every waiting and delayed entry and returns their ids. Active
// entries are left to finish.
func (q *MemoryQueue) Drain(context.Context) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := make([]string, 0)
	for id, e := range q.entries {
		if e.state == model.QueueStateWaiting || e.state == model.QueueStateDelayed {
			delete(q.entries, id)
			drained = append(drained, id)
		}
	}
	sort.Strings(drained)
	return drained, nil
}

// RecoverStalled hands entries active since before now-olderThan back to the
// front of the line.
func (q *MemoryQueue) RecoverStalled(_ context.Context, olderThan time.Duration) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.opts.Now()
	cutoff := now.Add(-olderThan)
	recovered := 0
	for _, e := range q.entries {
		if e.state != model.QueueStateActive || !e.activeAt.Before(cutoff) {
			continue
		}
		reason := "stalled"
		e.state = model.QueueStateWaiting
		e.readyAt = now
		e.failedReason = &reason
		recovered++
	}
	return recovered, nil
}

func (q *MemoryQueue) GetStats(context.Context) (*model.QueueStats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.prune(q.opts.Now())
	stats := &model.QueueStats{Paused: q.paused}
	for _, e := range q.entries {
		switch e.state {
		case model.QueueStateWaiting:
			stats.Waiting++
		case model.QueueStateDelayed:
			stats.Delayed++
		case model.QueueStateActive:
			stats.Active++
		case model.QueueStateCompleted:
			stats.Completed++
		case model.QueueStateFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

func (q *MemoryQueue) Dequeue(context.Context) (*model.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.paused {
		return nil, nil
	}
	now := q.opts.Now()
	ready := make([]*memoryEntry, 0)
	for _, e := range q.entries {
		if (e.state == model.QueueStateWaiting || e.state == model.QueueStateDelayed) && !e.readyAt.After(now) {
			ready = append(ready, e)
		}
	}
	if len(ready) == 0 {
		return nil, nil
	}
	sort.Slice(ready, func(i, j int) bool {
		if !ready[i].readyAt.Equal(ready[j].readyAt) {
			return ready[i].readyAt.Before(ready[j].readyAt)
		}
		return ready[i].seq < ready[j].seq
	})
	e := ready[0]
	e.state = model.QueueStateActive
	e.activeAt = now
	return &model.QueueEntry{
		JobID:        e.id,
		Payload:      e.payload,
		AttemptsMade: e.attemptsMade,
		MaxAttempts:  e.maxAttempts,
		EnqueuedAt:   e.enqueuedAt,
	}, nil
}

func (q *MemoryQueue) Complete(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[jobID]
	if !ok {
		return model.ErrQueueEntryNotFound
	}
	now := q.opts.Now()
	e.attemptsMade++
	e.state = model.QueueStateCompleted
	e.finishedAt = now
	q.prune(now)
	return nil
}

func (q *MemoryQueue) Retry(_ context.Context, jobID string, reason string, minDelay time.Duration) (bool, time.Duration, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[jobID]
	if !ok {
		return false, 0, model.ErrQueueEntryNotFound
	}
	now := q.opts.Now()
	e.attemptsMade++
	e.failedReason = &reason
	if e.attemptsMade >= e.maxAttempts {
		e.state = model.QueueStateFailed
		e.finishedAt = now
		q.prune(now)
		return false, 0, nil
	}
	delay := BackoffDelay(e.attemptsMade, q.opts.BackoffBase, q.opts.MaxBackoff)
	if minDelay > delay {
		delay = minDelay
	}
	e.state = model.QueueStateDelayed
	e.readyAt = now.Add(delay)
	return true, delay, nil
}

func (q *MemoryQueue) Fail(_ context.Context, jobID string, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[jobID]
	if !ok {
		return model.ErrQueueEntryNotFound
	}
	now := q.opts.Now()
	e.attemptsMade++
	e.failedReason = &reason
	e.state = model.QueueStateFailed
	e.finishedAt = now
	q.prune(now)
	return nil
}

func (q *MemoryQueue) Close() error { return nil }

// prune discards terminal entries past their retention. Caller holds q.mu.
func (q *MemoryQueue) prune(now time.Time) {
	for id, e := range q.entries {
		switch {
		case e.state == model.QueueStateCompleted && now.Sub(e.finishedAt) > q.opts.CompletedRetention:
			delete(q.entries, id)
		case e.state == model.QueueStateFailed && now.Sub(e.finishedAt) > q.opts.FailedRetention:
			delete(q.entries, id)
		}
	}
}

var _ repository.IJobQueue = (*MemoryQueue)(nil)
