package repository

import (
	"context"
	"time"

	"social-publisher/domain/model"
)

type IPostJob interface {
	Create(ctx context.Context, job *model.PostJob) error
	GetByID(ctx context.Context, id string) (*model.PostJob, error)
	// FindDue returns PENDING jobs scheduled at or before the given instant (or unscheduled).
	FindDue(ctx context.Context, before time.Time, limit int) ([]*model.PostJob, error)
	// Claim moves a PENDING job to PROCESSING and increments attempts.
	Claim(ctx context.Context, id string) (*model.PostJob, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkPending(ctx context.Context, id string, lastError string) error
	MarkFailed(ctx context.Context, id string, lastError string) error
	Cancel(ctx context.Context, id string) (bool, error)
	ResetForRetry(ctx context.Context, id string) (bool, error)
	DeleteTerminalBefore(ctx context.Context, status model.JobStatus, before time.Time) (int64, error)
	CountByStatus(ctx context.Context, tenantID string) (map[model.JobStatus]int64, error)
	// ReclaimStale releases PROCESSING jobs claimed before the given instant: back to
	// PENDING while attempts remain, FAILED otherwise.
	ReclaimStale(ctx context.Context, claimedBefore time.Time) (requeued int64, failed int64, err error)
}
