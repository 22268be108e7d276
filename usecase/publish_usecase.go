package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/google/uuid"
)

// IPublishUsecase runs the publish pipeline for one dequeued entry.
type IPublishUsecase interface {
	Process(ctx context.Context, entry *model.QueueEntry) model.Outcome
	// Exhausted is called when the queue refuses another retry.
	Exhausted(ctx context.Context, entry *model.QueueEntry, reason string)
	WithBroadcaster(fn func(model.JobEvent)) IPublishUsecase
}

type publishUsecase struct {
	jobs        repository.IPostJob
	contents    repository.IContent
	results     repository.IPublishResult
	credentials ICredentialUsecase
	limiter     repository.IRateLimiter
	publishers  repository.IPublisherRegistry
	broadcast   func(model.JobEvent)
	now         func() time.Time
}

func NewPublishUsecase(
	jobs repository.IPostJob,
	contents repository.IContent,
	results repository.IPublishResult,
	credentials ICredentialUsecase,
	limiter repository.IRateLimiter,
	publishers repository.IPublisherRegistry,
) IPublishUsecase {
	return &publishUsecase{
		jobs:        jobs,
		contents:    contents,
		results:     results,
		credentials: credentials,
		limiter:     limiter,
		publishers:  publishers,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (u *publishUsecase) WithBroadcaster(fn func(model.JobEvent)) IPublishUsecase {
	u.broadcast = fn
	return u
}

func (u *publishUsecase) Process(ctx context.Context, entry *model.QueueEntry) model.Outcome {
	lg := logger.GetLogger().
		WithField("job_id", entry.JobID).
		WithField("platform", entry.Payload.Platform).
		WithField("tenant_id", entry.Payload.TenantID)

	job, err := u.jobs.Claim(ctx, entry.JobID)
	if errors.Is(err, model.ErrJobNotClaimable) {
		lg.Info("Job is no longer pending; skipping")
		return model.Skipped(err)
	}
	if err != nil {
		lg.WithField("error", err).Error("Claim failed")
		return model.Retry(err, 0)
	}
	u.emit(job, model.JobStatusProcessing, nil, nil)

	content, err := u.contents.GetContent(ctx, job.ContentID)
	if err != nil {
		return u.fail(ctx, job, model.AsPublishError(job.Platform, err))
	}
	conn, err := u.credentials.ActiveConnection(ctx, job.TenantID, job.Platform)
	if err != nil {
		return u.fail(ctx, job, model.AsPublishError(job.Platform, err))
	}
	if conn.IsExpired(u.now()) {
		msg := fmt.Sprintf("%s access token expired; reconnect the account", job.Platform)
		return u.fail(ctx, job, model.NewAuthorizationError(job.Platform, msg))
	}

	reservation, err := u.limiter.Acquire(job.Platform, job.TenantID)
	if err != nil {
		return u.fail(ctx, job, model.AsPublishError(job.Platform, err))
	}

	resp, err := u.publish(ctx, job, conn, content)
	if err != nil {
		reservation.Release()
		return u.fail(ctx, job, model.AsPublishError(job.Platform, err))
	}
	reservation.Commit()

	return u.complete(ctx, job, content, resp)
}

func (u *publishUsecase) publish(ctx context.Context, job *model.PostJob, conn *model.SocialConnection, content *model.Content) (*model.PublishResponse, error) {
	creds, err := u.credentials.Decrypt(conn)
	if err != nil {
		return nil, model.NewAuthorizationError(job.Platform, fmt.Sprintf("stored %s credentials could not be decrypted; reconnect the account", job.Platform))
	}
	publisher, err := u.publishers.Lookup(job.Platform)
	if err != nil {
		return nil, err
	}
	if v := publisher.ValidateContent(content); !v.Valid {
		return nil, model.NewValidationError(job.Platform, v.Errors)
	}
	return publisher.Publish(ctx, creds, content)
}

// complete records the result. Publishing already happened, so persistence
// errors are logged and the outcome stays successful.
func (u *publishUsecase) complete(ctx context.Context, job *model.PostJob, content *model.Content, resp *model.PublishResponse) model.Outcome {
	lg := logger.GetLogger().WithField("job_id", job.ID).WithField("platform", job.Platform)
	now := u.now()

	result := &model.PublishResult{
		ID:             uuid.NewString(),
		PostJobID:      job.ID,
		Platform:       job.Platform,
		PlatformPostID: resp.PlatformPostID,
		PlatformURL:    resp.PlatformURL,
		PublishedAt:    now,
		Metadata:       resp.Metadata,
	}
	if err := u.results.Create(ctx, result); err != nil {
		lg.WithField("error", err).Error("Error while saving publish result")
	}
	if err := u.jobs.MarkCompleted(ctx, job.ID); err != nil {
		lg.WithField("error", err).Error("Error while marking job completed")
	}
	if err := u.contents.SetPublished(ctx, content.ID, now); err != nil {
		lg.WithField("error", err).Error("Error while marking content published")
	}

	lg.WithField("url", resp.PlatformURL).Info("Published")
	url := resp.PlatformURL
	u.emit(job, model.JobStatusCompleted, nil, &url)
	return model.Completed(result)
}

func (u *publishUsecase) fail(ctx context.Context, job *model.PostJob, pe *model.PublishError) model.Outcome {
	msg := pe.Error()
	lg := logger.GetLogger().
		WithField("job_id", job.ID).
		WithField("platform", job.Platform).
		WithField("kind", pe.Kind).
		WithField("attempts", job.Attempts).
		WithField("error", msg)

	if pe.Retryable() && job.Attempts < job.MaxAttempts {
		if err := u.jobs.MarkPending(ctx, job.ID, msg); err != nil {
			lg.WithField("db_error", err).Error("Error while returning job to pending")
		}
		lg.Warn("Publish attempt failed; will retry")
		u.emit(job, model.JobStatusPending, &msg, nil)
		return model.Retry(pe, pe.RetryAfter())
	}

	if err := u.jobs.MarkFailed(ctx, job.ID, msg); err != nil {
		lg.WithField("db_error", err).Error("Error while marking job failed")
	}
	lg.Error("Publish failed")
	u.emit(job, model.JobStatusFailed, &msg, nil)
	return model.Failed(pe)
}

func (u *publishUsecase) Exhausted(ctx context.Context, entry *model.QueueEntry, reason string) {
	if reason == "" {
		reason = "retry attempts exhausted"
	}
	if err := u.jobs.MarkFailed(ctx, entry.JobID, reason); err != nil {
		logger.GetLogger().WithField("job_id", entry.JobID).WithField("error", err).Error("Error while failing exhausted job")
		return
	}
	u.emit(&model.PostJob{ID: entry.JobID, TenantID: entry.Payload.TenantID, Platform: entry.Payload.Platform, Attempts: entry.AttemptsMade},
		model.JobStatusFailed, &reason, nil)
}

func (u *publishUsecase) emit(job *model.PostJob, status model.JobStatus, errMsg, url *string) {
	if u.broadcast == nil {
		return
	}
	u.broadcast(model.JobEvent{
		Type:      "job_status",
		JobID:     job.ID,
		TenantID:  job.TenantID,
		Platform:  job.Platform,
		Status:    status,
		Attempts:  job.Attempts,
		Error:     errMsg,
		URL:       url,
		Timestamp: u.now(),
	})
}
