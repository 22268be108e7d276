package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"social-publisher/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(start time.Time) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: start}
	limits := map[model.Platform]model.RateLimitConfig{
		model.PlatformTikTok:    {MaxRequests: 3, Window: time.Hour, DailyLimit: 5},
		model.PlatformInstagram: {MaxRequests: 25, Window: time.Hour, DailyLimit: 200},
	}
	return NewLimiter(limits, WithClock(clock.Now)), clock
}

func TestLimiter_WindowExhaustion(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for _, platform := range []model.Platform{model.PlatformTikTok, model.PlatformInstagram} {
		t.Run(string(platform), func(t *testing.T) {
			l, clock := newTestLimiter(start)
			cfg := l.config(platform)

			for i := 0; i < cfg.MaxRequests; i++ {
				require.True(t, l.CanMakeRequest(platform, "tenant-a"))
				l.RecordRequest(platform, "tenant-a")
			}
			clock.Advance(10 * time.Minute)

			assert.False(t, l.CanMakeRequest(platform, "tenant-a"))
			wait := l.GetWaitTime(platform, "tenant-a")
			assert.Greater(t, wait, time.Duration(0))
			assert.LessOrEqual(t, wait, cfg.Window)
			assert.Equal(t, 50*time.Minute, wait)
		})
	}
}

func TestLimiter_CanMakeRequestDoesNotConsume(t *testing.T) {
	l, _ := newTestLimiter(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	for i := 0; i < 10; i++ {
		assert.True(t, l.CanMakeRequest(model.PlatformTikTok, "t"))
	}
	assert.Equal(t, 3, l.GetStatus(model.PlatformTikTok, "t").WindowRemaining)
}

func TestLimiter_BucketsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	for i := 0; i < 3; i++ {
		l.RecordRequest(model.PlatformTikTok, "tenant-a")
	}

	assert.False(t, l.CanMakeRequest(model.PlatformTikTok, "tenant-a"))
	assert.True(t, l.CanMakeRequest(model.PlatformTikTok, "tenant-b"))
	assert.True(t, l.CanMakeRequest(model.PlatformInstagram, "tenant-a"))
	assert.Equal(t, 25, l.GetStatus(model.PlatformInstagram, "tenant-a").WindowRemaining)
}

func TestLimiter_WindowResetsLazily(t *testing.T) {
	l, clock := newTestLimiter(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	for i := 0; i < 3; i++ {
		l.RecordRequest(model.PlatformTikTok, "t")
	}
	require.False(t, l.CanMakeRequest(model.PlatformTikTok, "t"))

	clock.Advance(time.Hour)

	assert.True(t, l.CanMakeRequest(model.PlatformTikTok, "t"))
	status := l.GetStatus(model.PlatformTikTok, "t")
	assert.Equal(t, 3, status.WindowRemaining)
	assert.Equal(t, 2, status.DailyRemaining)
}

func TestLimiter_DailyLimitWaitsForMidnight(t *testing.T) {
	l, clock := newTestLimiter(time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC))
	for i := 0; i < 3; i++ {
		l.RecordRequest(model.PlatformTikTok, "t")
	}
	clock.Advance(time.Hour)
	for i := 0; i < 2; i++ {
		l.RecordRequest(model.PlatformTikTok, "t")
	}

	status := l.GetStatus(model.PlatformTikTok, "t")
	assert.True(t, status.IsLimited)
	assert.Equal(t, 1, status.WindowRemaining)
	assert.Equal(t, 0, status.DailyRemaining)
	assert.Equal(t, 3*time.Hour, l.GetWaitTime(model.PlatformTikTok, "t"))

	clock.Advance(3 * time.Hour)
	assert.True(t, l.CanMakeRequest(model.PlatformTikTok, "t"))
	assert.Equal(t, 5, l.GetStatus(model.PlatformTikTok, "t").DailyRemaining)
}

func TestLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	for i := 0; i < 3; i++ {
		l.RecordRequest(model.PlatformTikTok, "t")
	}
	l.Reset(model.PlatformTikTok, "t")
	assert.True(t, l.CanMakeRequest(model.PlatformTikTok, "t"))
	assert.Equal(t, time.Duration(0), l.GetWaitTime(model.PlatformTikTok, "t"))
}

func TestLimiter_UnknownPlatformUsesDefault(t *testing.T) {
	l := NewLimiter(nil)
	status := l.GetStatus(model.PlatformPinterest, "t")
	assert.Equal(t, DefaultLimit.MaxRequests, status.WindowRemaining)
	assert.Equal(t, DefaultLimit.DailyLimit, status.DailyRemaining)
}

func TestLimiter_AcquireLastSlotConcurrently(t *testing.T) {
	l, _ := newTestLimiter(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	l.RecordRequest(model.PlatformTikTok, "t")
	l.RecordRequest(model.PlatformTikTok, "t")

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]error, 2)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = l.Acquire(model.PlatformTikTok, "t")
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, limited int
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		var rlErr *model.RateLimitError
		require.True(t, errors.As(err, &rlErr))
		assert.Equal(t, rlErr.Limit, rlErr.Current)
		assert.Equal(t, 3, rlErr.Limit)
		assert.Greater(t, rlErr.RetryAfter, time.Duration(0))
		limited++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, limited)
}

func TestReservation_CommitAndRelease(t *testing.T) {
	l, _ := newTestLimiter(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	res, err := l.Acquire(model.PlatformTikTok, "t")
	require.NoError(t, err)
	assert.Equal(t, 2, l.GetStatus(model.PlatformTikTok, "t").WindowRemaining)
	res.Release()
	res.Commit()
	assert.Equal(t, 3, l.GetStatus(model.PlatformTikTok, "t").WindowRemaining)

	res, err = l.Acquire(model.PlatformTikTok, "t")
	require.NoError(t, err)
	res.Commit()
	res.Commit()
	status := l.GetStatus(model.PlatformTikTok, "t")
	assert.Equal(t, 2, status.WindowRemaining)
	assert.Equal(t, 4, status.DailyRemaining)
}
