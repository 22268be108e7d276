package repository

import (
	"time"

	"social-publisher/domain/model"
)

type IRateLimiter interface {
	CanMakeRequest(platform model.Platform, tenantID string) bool
	RecordRequest(platform model.Platform, tenantID string)
	GetWaitTime(platform model.Platform, tenantID string) time.Duration
	GetStatus(platform model.Platform, tenantID string) model.RateLimitStatus
	Reset(platform model.Platform, tenantID string)
	// Acquire atomically checks the bucket and holds one slot until the reservation is settled.
	Acquire(platform model.Platform, tenantID string) (IReservation, error)
}

type IReservation interface {
	Commit()
	Release()
}
