package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"social-publisher/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingUsecase struct {
	promotions atomic.Int32
	cleanups   atomic.Int32
	sweeps     atomic.Int32
	recoveries atomic.Int32
}

func (c *countingUsecase) PromoteDue(context.Context) (int, int, error) {
	c.promotions.Add(1)
	return 0, 0, nil
}

func (c *countingUsecase) Cleanup(context.Context) (int64, error) {
	c.cleanups.Add(1)
	return 0, errors.New("db down")
}

func (c *countingUsecase) SweepExpiring(context.Context) (int, int, error) {
	c.sweeps.Add(1)
	return 1, 0, nil
}

func (c *countingUsecase) RecoverStalled(context.Context) (*usecase.RecoveryResult, error) {
	c.recoveries.Add(1)
	return &usecase.RecoveryResult{}, nil
}

type panickingUsecase struct{ countingUsecase }

func (p *panickingUsecase) Cleanup(context.Context) (int64, error) {
	p.cleanups.Add(1)
	panic("cleanup blew up")
}

func TestNewRunner_AppliesDefaults(t *testing.T) {
	r := NewRunner(&countingUsecase{}, Intervals{Cleanup: 2 * time.Hour})
	assert.Equal(t, time.Minute, r.intervals.Promotion)
	assert.Equal(t, 2*time.Hour, r.intervals.Cleanup)
	assert.Equal(t, time.Hour, r.intervals.Expiry)
	assert.Equal(t, 5*time.Minute, r.intervals.Recovery)
	assert.Len(t, r.cron.Entries(), 4)
}

func TestRunner_RunsEachPassOnItsInterval(t *testing.T) {
	uc := &countingUsecase{}
	r := NewRunner(uc, Intervals{Promotion: time.Second, Cleanup: time.Second, Expiry: time.Hour, Recovery: time.Hour})
	r.Start()

	require.Eventually(t, func() bool {
		return uc.promotions.Load() >= 2 && uc.cleanups.Load() >= 1
	}, 4*time.Second, 20*time.Millisecond)
	r.Stop()

	assert.Zero(t, uc.sweeps.Load())
	// only the startup pass; the hourly entry never fired
	assert.Equal(t, int32(1), uc.recoveries.Load())
}

func TestRunner_RecoversFromPanickingPass(t *testing.T) {
	uc := &panickingUsecase{}
	r := NewRunner(uc, Intervals{Promotion: time.Second, Cleanup: time.Second, Expiry: time.Hour, Recovery: time.Hour})
	r.Start()

	require.Eventually(t, func() bool {
		return uc.cleanups.Load() >= 2 && uc.promotions.Load() >= 2
	}, 4*time.Second, 20*time.Millisecond)
	r.Stop()
}
