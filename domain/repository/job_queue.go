package repository

import (
	"context"
	"time"

	"social-publisher/domain/model"
)

type IJobQueue interface {
	Enqueue(ctx context.Context, jobID string, payload model.QueuePayload, delay time.Duration) (*model.QueueHandle, error)
	Remove(ctx context.Context, jobID string) (bool, error)
	GetStatus(ctx context.Context, jobID string) (*model.QueueJobStatus, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	// Drain drops every waiting and delayed entry and returns their job ids.
	Drain(ctx context.Context) ([]string, error)
	GetStats(ctx context.Context) (*model.QueueStats, error)

	// Dequeue claims the next ready entry; it returns nil when nothing is ready or the queue is paused.
	Dequeue(ctx context.Context) (*model.QueueEntry, error)
	Complete(ctx context.Context, jobID string) error
	// Retry schedules another attempt with backoff, or fails the entry once attempts are exhausted.
	Retry(ctx context.Context, jobID string, reason string, minDelay time.Duration) (bool, time.Duration, error)
	Fail(ctx context.Context, jobID string, reason string) error
	// RecoverStalled puts entries active for longer than olderThan, or no longer
	// tracked by any list, back in line. It returns how many were moved.
	RecoverStalled(ctx context.Context, olderThan time.Duration) (int, error)
	Close() error
}
