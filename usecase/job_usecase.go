package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/google/uuid"
)

// IJobUsecase is the operator surface shared by the admin API and the CLI.
type IJobUsecase interface {
	CreateJobs(ctx context.Context, tenantID string, req dto.CreateJobRequest) ([]*model.PostJob, error)
	GetJob(ctx context.Context, tenantID, jobID string) (*dto.JobResponse, error)
	CancelJob(ctx context.Context, tenantID, jobID string) error
	RetryJob(ctx context.Context, tenantID, jobID string) error
	Stats(ctx context.Context, tenantID string) (*dto.StatsResponse, error)
	PauseQueue(ctx context.Context) error
	ResumeQueue(ctx context.Context) error
	DrainQueue(ctx context.Context) error
	RateLimitStatus(tenantID string, platform model.Platform) model.RateLimitStatus
	ResetRateLimit(tenantID string, platform model.Platform)
	WithBroadcaster(fn func(model.JobEvent)) IJobUsecase
}

type jobUsecase struct {
	jobs       repository.IPostJob
	contents   repository.IContent
	results    repository.IPublishResult
	queue      repository.IJobQueue
	limiter    repository.IRateLimiter
	publishers repository.IPublisherRegistry
	lookahead  time.Duration
	broadcast  func(model.JobEvent)
	now        func() time.Time
}

// NewJobUsecase enqueues new jobs directly when they fall inside lookahead;
// later ones wait for the scheduler's promotion pass.
func NewJobUsecase(
	jobs repository.IPostJob,
	contents repository.IContent,
	results repository.IPublishResult,
	queue repository.IJobQueue,
	limiter repository.IRateLimiter,
	publishers repository.IPublisherRegistry,
	lookahead time.Duration,
) IJobUsecase {
	return &jobUsecase{
		jobs:       jobs,
		contents:   contents,
		results:    results,
		queue:      queue,
		limiter:    limiter,
		publishers: publishers,
		lookahead:  lookahead,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (u *jobUsecase) WithBroadcaster(fn func(model.JobEvent)) IJobUsecase {
	u.broadcast = fn
	return u
}

func (u *jobUsecase) CreateJobs(ctx context.Context, tenantID string, req dto.CreateJobRequest) ([]*model.PostJob, error) {
	if len(req.Platforms) == 0 {
		return nil, model.ErrNoPlatforms
	}
	platforms := make([]model.Platform, 0, len(req.Platforms))
	seen := make(map[model.Platform]bool, len(req.Platforms))
	for _, raw := range req.Platforms {
		p, ok := model.ParsePlatform(raw)
		if !ok {
			return nil, fmt.Errorf("%q: %w", raw, model.ErrUnsupportedPlatform)
		}
		if _, err := u.publishers.Lookup(p); err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			platforms = append(platforms, p)
		}
	}

	content, err := u.contents.GetContent(ctx, req.ContentID)
	if err != nil {
		return nil, err
	}
	if content.TenantID != tenantID {
		return nil, fmt.Errorf("content %s: %w", req.ContentID, model.ErrContentNotFound)
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = model.DefaultMaxAttempts
	}
	now := u.now()
	jobs := make([]*model.PostJob, 0, len(platforms))
	for _, p := range platforms {
		job := &model.PostJob{
			ID:           uuid.NewString(),
			TenantID:     tenantID,
			ContentID:    content.ID,
			Platform:     p,
			Status:       model.JobStatusPending,
			ScheduledFor: req.ScheduledFor,
			MaxAttempts:  maxAttempts,
			CreatedAt:    now,
		}
		if err := u.jobs.Create(ctx, job); err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)

		if delay := job.DelayFrom(now); delay <= u.lookahead {
			if _, err := u.queue.Enqueue(ctx, job.ID, payloadFor(job), delay); err != nil {
				// the scheduler will pick the job up on its next promotion pass
				logger.GetLogger().WithField("job_id", job.ID).WithField("error", err).Warn("Enqueue failed")
			}
		}
		u.emit(job, nil)
	}
	return jobs, nil
}

func payloadFor(job *model.PostJob) model.QueuePayload {
	return model.QueuePayload{
		PostJobID:   job.ID,
		TenantID:    job.TenantID,
		ContentID:   job.ContentID,
		Platform:    job.Platform,
		MaxAttempts: job.MaxAttempts,
	}
}

func (u *jobUsecase) ownedJob(ctx context.Context, tenantID, jobID string) (*model.PostJob, error) {
	job, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if tenantID != "" && job.TenantID != tenantID {
		return nil, model.ErrJobNotFound
	}
	return job, nil
}

func (u *jobUsecase) GetJob(ctx context.Context, tenantID, jobID string) (*dto.JobResponse, error) {
	job, err := u.ownedJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	resp := &dto.JobResponse{Job: job}
	status, err := u.queue.GetStatus(ctx, jobID)
	switch {
	case err == nil:
		resp.Queue = status
	case !errors.Is(err, model.ErrQueueEntryNotFound):
		logger.GetLogger().WithField("job_id", jobID).WithField("error", err).Warn("Queue status unavailable")
	}
	if job.Status == model.JobStatusCompleted {
		if resp.Result, err = u.results.GetByPostJobID(ctx, jobID); err != nil {
			logger.GetLogger().WithField("job_id", jobID).WithField("error", err).Warn("Publish result unavailable")
		}
	}
	return resp, nil
}

// CancelJob only succeeds while the job is PENDING. An empty tenantID skips the ownership check.
func (u *jobUsecase) CancelJob(ctx context.Context, tenantID, jobID string) error {
	job, err := u.ownedJob(ctx, tenantID, jobID)
	if err != nil {
		return err
	}
	ok, err := u.jobs.Cancel(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrJobNotCancellable
	}
	if _, err := u.queue.Remove(ctx, jobID); err != nil {
		logger.GetLogger().WithField("job_id", jobID).WithField("error", err).Warn("Queue entry not removed")
	}
	job.Status = model.JobStatusCancelled
	u.emit(job, nil)
	return nil
}

// RetryJob resets a FAILED job to a fresh attempt budget and enqueues it now.
func (u *jobUsecase) RetryJob(ctx context.Context, tenantID, jobID string) error {
	job, err := u.ownedJob(ctx, tenantID, jobID)
	if err != nil {
		return err
	}
	ok, err := u.jobs.ResetForRetry(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrJobNotRetryable
	}
	job.Status, job.Attempts, job.LastError = model.JobStatusPending, 0, nil
	if _, err := u.queue.Enqueue(ctx, jobID, payloadFor(job), 0); err != nil {
		return fmt.Errorf("enqueue retried job %s: %w", jobID, err)
	}
	u.emit(job, nil)
	return nil
}

func (u *jobUsecase) Stats(ctx context.Context, tenantID string) (*dto.StatsResponse, error) {
	qs, err := u.queue.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := u.jobs.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &dto.StatsResponse{Queue: qs, Jobs: counts}, nil
}

func (u *jobUsecase) PauseQueue(ctx context.Context) error  { return u.queue.Pause(ctx) }
func (u *jobUsecase) ResumeQueue(ctx context.Context) error { return u.queue.Resume(ctx) }

// DrainQueue empties the queue and cancels the PENDING jobs it held, so the
// promotion pass does not put them straight back. Jobs already in flight keep
// running.
func (u *jobUsecase) DrainQueue(ctx context.Context) error {
	drained, err := u.queue.Drain(ctx)
	if err != nil {
		return err
	}
	var errs []error
	cancelled := 0
	for _, id := range drained {
		ok, err := u.jobs.Cancel(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		cancelled++
		if u.broadcast == nil {
			continue
		}
		if job, err := u.jobs.GetByID(ctx, id); err == nil {
			u.emit(job, nil)
		}
	}
	logger.GetLogger().WithField("drained", len(drained)).WithField("cancelled", cancelled).Info("Drained jobs cancelled")
	return errors.Join(errs...)
}

func (u *jobUsecase) RateLimitStatus(tenantID string, platform model.Platform) model.RateLimitStatus {
	return u.limiter.GetStatus(platform, tenantID)
}

func (u *jobUsecase) ResetRateLimit(tenantID string, platform model.Platform) {
	u.limiter.Reset(platform, tenantID)
	logger.GetLogger().WithField("tenant_id", tenantID).WithField("platform", platform).Info("Rate limit reset")
}

func (u *jobUsecase) emit(job *model.PostJob, errMsg *string) {
	if u.broadcast == nil {
		return
	}
	u.broadcast(model.JobEvent{
		Type:      "job_status",
		JobID:     job.ID,
		TenantID:  job.TenantID,
		Platform:  job.Platform,
		Status:    job.Status,
		Attempts:  job.Attempts,
		Error:     errMsg,
		Timestamp: u.now(),
	})
}
