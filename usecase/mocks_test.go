package usecase

import (
	"context"
	"fmt"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"github.com/stretchr/testify/mock"
)

type MockPostJobRepo struct{ mock.Mock }

func (m *MockPostJobRepo) Create(ctx context.Context, job *model.PostJob) error {
	return m.Called(ctx, job).Error(0)
}

func (m *MockPostJobRepo) GetByID(ctx context.Context, id string) (*model.PostJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostJob), args.Error(1)
}

func (m *MockPostJobRepo) FindDue(ctx context.Context, before time.Time, limit int) ([]*model.PostJob, error) {
	args := m.Called(ctx, before, limit)
	jobs, _ := args.Get(0).([]*model.PostJob)
	return jobs, args.Error(1)
}

func (m *MockPostJobRepo) Claim(ctx context.Context, id string) (*model.PostJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostJob), args.Error(1)
}

func (m *MockPostJobRepo) MarkCompleted(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostJobRepo) MarkPending(ctx context.Context, id, lastError string) error {
	return m.Called(ctx, id, lastError).Error(0)
}

func (m *MockPostJobRepo) MarkFailed(ctx context.Context, id, lastError string) error {
	return m.Called(ctx, id, lastError).Error(0)
}

func (m *MockPostJobRepo) Cancel(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostJobRepo) ResetForRetry(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostJobRepo) DeleteTerminalBefore(ctx context.Context, status model.JobStatus, before time.Time) (int64, error) {
	args := m.Called(ctx, status, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostJobRepo) ReclaimStale(ctx context.Context, claimedBefore time.Time) (int64, int64, error) {
	args := m.Called(ctx, claimedBefore)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostJobRepo) CountByStatus(ctx context.Context, tenantID string) (map[model.JobStatus]int64, error) {
	args := m.Called(ctx, tenantID)
	counts, _ := args.Get(0).(map[model.JobStatus]int64)
	return counts, args.Error(1)
}

type MockContentRepo struct{ mock.Mock }

func (m *MockContentRepo) GetContent(ctx context.Context, id string) (*model.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Content), args.Error(1)
}

func (m *MockContentRepo) SetPublished(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type MockPublishResultRepo struct{ mock.Mock }

func (m *MockPublishResultRepo) Create(ctx context.Context, result *model.PublishResult) error {
	return m.Called(ctx, result).Error(0)
}

func (m *MockPublishResultRepo) GetByPostJobID(ctx context.Context, id string) (*model.PublishResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishResult), args.Error(1)
}

type MockConnectionRepo struct{ mock.Mock }

func (m *MockConnectionRepo) GetActiveConnection(ctx context.Context, tenantID string, platform model.Platform) (*model.SocialConnection, error) {
	args := m.Called(ctx, tenantID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialConnection), args.Error(1)
}

func (m *MockConnectionRepo) Upsert(ctx context.Context, conn *model.SocialConnection) error {
	return m.Called(ctx, conn).Error(0)
}

func (m *MockConnectionRepo) Deactivate(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockConnectionRepo) ListExpiring(ctx context.Context, before time.Time) ([]*model.SocialConnection, error) {
	args := m.Called(ctx, before)
	conns, _ := args.Get(0).([]*model.SocialConnection)
	return conns, args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, n model.Notification) { m.Called(ctx, n) }

type MockTenantAdmin struct{ mock.Mock }

func (m *MockTenantAdmin) GetAdmin(ctx context.Context, tenantID string) (*model.Recipient, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipient), args.Error(1)
}

type MockQueue struct{ mock.Mock }

func (m *MockQueue) Enqueue(ctx context.Context, jobID string, payload model.QueuePayload, delay time.Duration) (*model.QueueHandle, error) {
	args := m.Called(ctx, jobID, payload, delay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueHandle), args.Error(1)
}

func (m *MockQueue) Remove(ctx context.Context, jobID string) (bool, error) {
	args := m.Called(ctx, jobID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueue) GetStatus(ctx context.Context, jobID string) (*model.QueueJobStatus, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueJobStatus), args.Error(1)
}

func (m *MockQueue) Pause(ctx context.Context) error  { return m.Called(ctx).Error(0) }
func (m *MockQueue) Resume(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockQueue) Drain(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockQueue) RecoverStalled(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

func (m *MockQueue) GetStats(ctx context.Context) (*model.QueueStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueStats), args.Error(1)
}

func (m *MockQueue) Dequeue(ctx context.Context) (*model.QueueEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QueueEntry), args.Error(1)
}

func (m *MockQueue) Complete(ctx context.Context, jobID string) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *MockQueue) Retry(ctx context.Context, jobID, reason string, minDelay time.Duration) (bool, time.Duration, error) {
	args := m.Called(ctx, jobID, reason, minDelay)
	return args.Bool(0), args.Get(1).(time.Duration), args.Error(2)
}

func (m *MockQueue) Fail(ctx context.Context, jobID, reason string) error {
	return m.Called(ctx, jobID, reason).Error(0)
}

func (m *MockQueue) Close() error { return m.Called().Error(0) }

type MockPublisher struct {
	mock.Mock
	platform model.Platform
}

func (m *MockPublisher) Platform() model.Platform { return m.platform }

func (m *MockPublisher) ValidateContent(content *model.Content) model.ValidationResult {
	return m.Called(content).Get(0).(model.ValidationResult)
}

func (m *MockPublisher) Publish(ctx context.Context, creds *model.Credentials, content *model.Content) (*model.PublishResponse, error) {
	args := m.Called(ctx, creds, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublishResponse), args.Error(1)
}

type stubRegistry map[model.Platform]repository.IPublisher

func (r stubRegistry) Lookup(p model.Platform) (repository.IPublisher, error) {
	if pub, ok := r[p]; ok {
		return pub, nil
	}
	return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedPlatform, p)
}

func (r stubRegistry) Platforms() []model.Platform {
	out := make([]model.Platform, 0, len(r))
	for p := range r {
		out = append(out, p)
	}
	return out
}

type MockCredentialUsecase struct{ mock.Mock }

func (m *MockCredentialUsecase) Connect(ctx context.Context, tenantID string, req dto.ConnectRequest) (*model.SocialConnection, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialConnection), args.Error(1)
}

func (m *MockCredentialUsecase) ActiveConnection(ctx context.Context, tenantID string, platform model.Platform) (*model.SocialConnection, error) {
	args := m.Called(ctx, tenantID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SocialConnection), args.Error(1)
}

func (m *MockCredentialUsecase) Decrypt(conn *model.SocialConnection) (*model.Credentials, error) {
	args := m.Called(conn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credentials), args.Error(1)
}

func (m *MockCredentialUsecase) SweepExpiring(ctx context.Context, window time.Duration) (int, int, error) {
	args := m.Called(ctx, window)
	return args.Int(0), args.Int(1), args.Error(2)
}
