package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
)

type SchedulerPolicy struct {
	Lookahead      time.Duration
	PromotionBatch int
	CompletedTTL   time.Duration
	CancelledTTL   time.Duration
	ExpiryWarning  time.Duration
	// StaleAfter bounds how long a claim may go without finishing. Keep it above
	// the worker's per-job timeout.
	StaleAfter time.Duration
}

func DefaultSchedulerPolicy() SchedulerPolicy {
	return SchedulerPolicy{
		Lookahead:      5 * time.Minute,
		PromotionBatch: 100,
		CompletedTTL:   30 * 24 * time.Hour,
		CancelledTTL:   7 * 24 * time.Hour,
		ExpiryWarning:  24 * time.Hour,
		StaleAfter:     20 * time.Minute,
	}
}

type ISchedulerUsecase interface {
	PromoteDue(ctx context.Context) (promoted int, failed int, err error)
	Cleanup(ctx context.Context) (deleted int64, err error)
	SweepExpiring(ctx context.Context) (expired int, expiring int, err error)
	RecoverStalled(ctx context.Context) (*RecoveryResult, error)
}

type RecoveryResult struct {
	Requeued  int64 `json:"requeued"`
	Failed    int64 `json:"failed"`
	Recovered int   `json:"recovered"`
}

type schedulerUsecase struct {
	jobs        repository.IPostJob
	queue       repository.IJobQueue
	credentials ICredentialUsecase
	policy      SchedulerPolicy
	now         func() time.Time
}

func NewSchedulerUsecase(jobs repository.IPostJob, queue repository.IJobQueue, credentials ICredentialUsecase, policy SchedulerPolicy) ISchedulerUsecase {
	d := DefaultSchedulerPolicy()
	if policy.Lookahead <= 0 {
		policy.Lookahead = d.Lookahead
	}
	if policy.PromotionBatch <= 0 {
		policy.PromotionBatch = d.PromotionBatch
	}
	if policy.CompletedTTL <= 0 {
		policy.CompletedTTL = d.CompletedTTL
	}
	if policy.CancelledTTL <= 0 {
		policy.CancelledTTL = d.CancelledTTL
	}
	if policy.ExpiryWarning <= 0 {
		policy.ExpiryWarning = d.ExpiryWarning
	}
	if policy.StaleAfter <= 0 {
		policy.StaleAfter = d.StaleAfter
	}
	return &schedulerUsecase{
		jobs:        jobs,
		queue:       queue,
		credentials: credentials,
		policy:      policy,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// PromoteDue enqueues pending jobs due within the lookahead. Jobs whose tenant
// has no active connection fail immediately.
func (u *schedulerUsecase) PromoteDue(ctx context.Context) (int, int, error) {
	now := u.now()
	due, err := u.jobs.FindDue(ctx, now.Add(u.policy.Lookahead), u.policy.PromotionBatch)
	if err != nil {
		return 0, 0, err
	}

	var promoted, failed int
	for _, job := range due {
		lg := logger.GetLogger().WithField("job_id", job.ID).WithField("platform", job.Platform)

		_, err := u.credentials.ActiveConnection(ctx, job.TenantID, job.Platform)
		if errors.Is(err, model.ErrConnectionNotFound) {
			msg := fmt.Sprintf("no active %s connection", job.Platform)
			if err := u.jobs.MarkFailed(ctx, job.ID, msg); err != nil {
				lg.WithField("error", err).Error("Error while failing unconnected job")
				continue
			}
			lg.Warn(msg)
			failed++
			continue
		}
		if err != nil {
			lg.WithField("error", err).Error("Connection lookup failed")
			continue
		}

		if _, err := u.queue.Enqueue(ctx, job.ID, payloadFor(job), job.DelayFrom(now)); err != nil {
			lg.WithField("error", err).Error("Enqueue failed")
			continue
		}
		promoted++
	}
	if promoted > 0 || failed > 0 {
		logger.GetLogger().WithField("promoted", promoted).WithField("failed", failed).Info("Promotion pass finished")
	}
	return promoted, failed, nil
}

// Cleanup deletes old COMPLETED and CANCELLED jobs. FAILED jobs are kept for inspection.
func (u *schedulerUsecase) Cleanup(ctx context.Context) (int64, error) {
	now := u.now()
	completed, err := u.jobs.DeleteTerminalBefore(ctx, model.JobStatusCompleted, now.Add(-u.policy.CompletedTTL))
	if err != nil {
		return 0, err
	}
	cancelled, err := u.jobs.DeleteTerminalBefore(ctx, model.JobStatusCancelled, now.Add(-u.policy.CancelledTTL))
	if err != nil {
		return completed, err
	}
	logger.GetLogger().
		WithField("completed", completed).
		WithField("cancelled", cancelled).
		Info("Cleanup pass finished")
	return completed + cancelled, nil
}

func (u *schedulerUsecase) SweepExpiring(ctx context.Context) (int, int, error) {
	return u.credentials.SweepExpiring(ctx, u.policy.ExpiryWarning)
}

// RecoverStalled releases work left behind by a worker that died mid-job.
// PROCESSING rows whose claim is older than StaleAfter go back to PENDING, or
// to FAILED on their last attempt, and the promotion loop picks them up again.
// Queue entries stuck active or dropped from their list are put back in line.
func (u *schedulerUsecase) RecoverStalled(ctx context.Context) (*RecoveryResult, error) {
	result := &RecoveryResult{}
	requeued, failed, err := u.jobs.ReclaimStale(ctx, u.now().Add(-u.policy.StaleAfter))
	if err != nil {
		return result, err
	}
	result.Requeued, result.Failed = requeued, failed

	recovered, err := u.queue.RecoverStalled(ctx, u.policy.StaleAfter)
	result.Recovered = recovered
	if err != nil {
		return result, err
	}
	if requeued > 0 || failed > 0 || recovered > 0 {
		logger.GetLogger().
			WithField("requeued", requeued).
			WithField("failed", failed).
			WithField("queue_recovered", recovered).
			Warn("Recovered stalled work")
	}
	return result, nil
}
