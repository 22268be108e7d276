package scheduler

import (
	"context"
	"time"

	"social-publisher/infrastructure/logger"
	"social-publisher/usecase"

	"github.com/robfig/cron/v3"
)

type Intervals struct {
	Promotion time.Duration
	Cleanup   time.Duration
	Expiry    time.Duration
	Recovery  time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{Promotion: time.Minute, Cleanup: 24 * time.Hour, Expiry: time.Hour, Recovery: 5 * time.Minute}
}

// Runner drives the scheduler passes as independent cron entries.
// Passes may overlap; each one is safe to run concurrently with itself.
type Runner struct {
	cron      *cron.Cron
	uc        usecase.ISchedulerUsecase
	intervals Intervals
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewRunner(uc usecase.ISchedulerUsecase, intervals Intervals) *Runner {
	d := DefaultIntervals()
	if intervals.Promotion <= 0 {
		intervals.Promotion = d.Promotion
	}
	if intervals.Cleanup <= 0 {
		intervals.Cleanup = d.Cleanup
	}
	if intervals.Expiry <= 0 {
		intervals.Expiry = d.Expiry
	}
	if intervals.Recovery <= 0 {
		intervals.Recovery = d.Recovery
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		cron:      cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(logger.GetLogger())))),
		uc:        uc,
		intervals: intervals,
		ctx:       ctx,
		cancel:    cancel,
	}
	r.cron.Schedule(cron.Every(intervals.Promotion), cron.FuncJob(r.promote))
	r.cron.Schedule(cron.Every(intervals.Cleanup), cron.FuncJob(r.cleanup))
	r.cron.Schedule(cron.Every(intervals.Expiry), cron.FuncJob(r.sweep))
	r.cron.Schedule(cron.Every(intervals.Recovery), cron.FuncJob(r.recoverStalled))
	return r
}

// Start releases anything a previous process left claimed, runs one promotion
// pass, then hands off to cron.
func (r *Runner) Start() {
	logger.GetLogger().
		WithField("promotion", r.intervals.Promotion.String()).
		WithField("cleanup", r.intervals.Cleanup.String()).
		WithField("expiry", r.intervals.Expiry.String()).
		WithField("recovery", r.intervals.Recovery.String()).
		Info("Scheduler started")
	go func() {
		r.recoverStalled()
		r.promote()
	}()
	r.cron.Start()
}

// Stop waits for running passes to return.
func (r *Runner) Stop() {
	r.cancel()
	<-r.cron.Stop().Done()
	logger.GetLogger().Info("Scheduler stopped")
}

func (r *Runner) promote() {
	if _, _, err := r.uc.PromoteDue(r.ctx); err != nil {
		logger.GetLogger().WithField("error", err).Error("Promotion pass failed")
	}
}

func (r *Runner) cleanup() {
	if _, err := r.uc.Cleanup(r.ctx); err != nil {
		logger.GetLogger().WithField("error", err).Error("Cleanup pass failed")
	}
}

func (r *Runner) sweep() {
	expired, expiring, err := r.uc.SweepExpiring(r.ctx)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Expiry sweep failed")
		return
	}
	if expired > 0 || expiring > 0 {
		logger.GetLogger().WithField("expired", expired).WithField("expiring", expiring).Info("Expiry sweep finished")
	}
}

func (r *Runner) recoverStalled() {
	if _, err := r.uc.RecoverStalled(r.ctx); err != nil {
		logger.GetLogger().WithField("error", err).Error("Stall recovery failed")
	}
}
