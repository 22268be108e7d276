package ratelimit

import (
	"sync"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

// DefaultLimit applies to platforms without an explicit configuration.
var DefaultLimit = model.RateLimitConfig{MaxRequests: 60, Window: time.Hour, DailyLimit: 500}

type bucket struct {
	mu          sync.Mutex
	windowCount int
	windowStart time.Time
	dailyCount  int
	dailyReset  time.Time
	inFlight    int
}

// Limiter keeps one bucket per (platform, tenant). Buckets live in memory only
// and start empty after a restart.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limits  map[model.Platform]model.RateLimitConfig
	now     func() time.Time
}

type Option func(*Limiter)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func NewLimiter(limits map[model.Platform]model.RateLimitConfig, opts ...Option) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limits:  make(map[model.Platform]model.RateLimitConfig, len(limits)),
		now:     time.Now,
	}
	for p, cfg := range limits {
		l.limits[p] = cfg
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) config(platform model.Platform) model.RateLimitConfig {
	if cfg, ok := l.limits[platform]; ok {
		return cfg
	}
	return DefaultLimit
}

// bucketFor returns the bucket locked. Callers must unlock it.
func (l *Limiter) bucketFor(platform model.Platform, tenantID string) (*bucket, model.RateLimitConfig, time.Time) {
	key := string(platform) + ":" + tenantID
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{}
		l.buckets[key] = b
	}
	l.mu.Unlock()

	b.mu.Lock()
	now := l.now()
	cfg := l.config(platform)
	b.refresh(now, cfg)
	return b, cfg, now
}

func (b *bucket) refresh(now time.Time, cfg model.RateLimitConfig) {
	if b.windowStart.IsZero() || now.Sub(b.windowStart) >= cfg.Window {
		b.windowCount = 0
		b.windowStart = now
	}
	if b.dailyReset.IsZero() || !now.Before(b.dailyReset) {
		b.dailyCount = 0
		b.dailyReset = nextUTCMidnight(now)
	}
}

func (b *bucket) windowUsed() int { return b.windowCount + b.inFlight }
func (b *bucket) dailyUsed() int  { return b.dailyCount + b.inFlight }

func (b *bucket) allowed(cfg model.RateLimitConfig) bool {
	return b.windowUsed() < cfg.MaxRequests && b.dailyUsed() < cfg.DailyLimit
}

func (b *bucket) wait(now time.Time, cfg model.RateLimitConfig) time.Duration {
	windowFull := b.windowUsed() >= cfg.MaxRequests
	dailyFull := b.dailyUsed() >= cfg.DailyLimit
	var wait time.Duration
	if windowFull {
		wait = cfg.Window - now.Sub(b.windowStart)
	}
	if dailyFull {
		if d := b.dailyReset.Sub(now); d > wait {
			wait = d
		}
	}
	if wait < 0 {
		return 0
	}
	return wait
}

func (l *Limiter) CanMakeRequest(platform model.Platform, tenantID string) bool {
	b, cfg, _ := l.bucketFor(platform, tenantID)
	defer b.mu.Unlock()
	return b.allowed(cfg)
}

func (l *Limiter) RecordRequest(platform model.Platform, tenantID string) {
	b, _, _ := l.bucketFor(platform, tenantID)
	defer b.mu.Unlock()
	b.windowCount++
	b.dailyCount++
}

func (l *Limiter) GetWaitTime(platform model.Platform, tenantID string) time.Duration {
	b, cfg, now := l.bucketFor(platform, tenantID)
	defer b.mu.Unlock()
	return b.wait(now, cfg)
}

func (l *Limiter) GetStatus(platform model.Platform, tenantID string) model.RateLimitStatus {
	b, cfg, now := l.bucketFor(platform, tenantID)
	defer b.mu.Unlock()
	return model.RateLimitStatus{
		Platform:        platform,
		TenantID:        tenantID,
		WindowRemaining: max(cfg.MaxRequests-b.windowUsed(), 0),
		WindowResetIn:   max(cfg.Window-now.Sub(b.windowStart), 0),
		DailyRemaining:  max(cfg.DailyLimit-b.dailyUsed(), 0),
		DailyResetIn:    max(b.dailyReset.Sub(now), 0),
		IsLimited:       !b.allowed(cfg),
	}
}

// Reset drops the bucket for (platform, tenant). Admin operation only.
func (l *Limiter) Reset(platform model.Platform, tenantID string) {
	l.mu.Lock()
	delete(l.buckets, string(platform)+":"+tenantID)
	l.mu.Unlock()
}

// Acquire checks the bucket and holds one slot in the same critical section,
// so two concurrent workers cannot both take the last slot.
func (l *Limiter) Acquire(platform model.Platform, tenantID string) (repository.IReservation, error) {
	b, cfg, now := l.bucketFor(platform, tenantID)
	defer b.mu.Unlock()
	if !b.allowed(cfg) {
		rlErr := &model.RateLimitError{
			Platform:   platform,
			TenantID:   tenantID,
			Current:    b.windowUsed(),
			Limit:      cfg.MaxRequests,
			RetryAfter: b.wait(now, cfg),
		}
		if b.windowUsed() < cfg.MaxRequests {
			rlErr.Daily = true
			rlErr.Current = b.dailyUsed()
			rlErr.Limit = cfg.DailyLimit
		}
		return nil, rlErr
	}
	b.inFlight++
	return &Reservation{bucket: b}, nil
}

// Reservation is a held slot. Exactly one of Commit or Release takes effect.
type Reservation struct {
	once   sync.Once
	bucket *bucket
}

// Commit turns the held slot into a recorded request.
func (r *Reservation) Commit() {
	r.once.Do(func() {
		r.bucket.mu.Lock()
		defer r.bucket.mu.Unlock()
		r.bucket.inFlight--
		r.bucket.windowCount++
		r.bucket.dailyCount++
	})
}

func (r *Reservation) Release() {
	r.once.Do(func() {
		r.bucket.mu.Lock()
		defer r.bucket.mu.Unlock()
		r.bucket.inFlight--
	})
}

func nextUTCMidnight(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}

var _ repository.IRateLimiter = (*Limiter)(nil)
