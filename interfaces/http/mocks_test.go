package http

import (
	"context"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/usecase"

	"github.com/stretchr/testify/mock"
)

type MockJobUsecase struct{ mock.Mock }

func (m *MockJobUsecase) CreateJobs(ctx context.Context, tenantID string, req dto.CreateJobRequest) ([]*model.PostJob, error) {
	args := m.Called(ctx, tenantID, req)
	jobs, _ := args.Get(0).([]*model.PostJob)
	return jobs, args.Error(1)
}

func (m *MockJobUsecase) GetJob(ctx context.Context, tenantID, jobID string) (*dto.JobResponse, error) {
	args := m.Called(ctx, tenantID, jobID)
	res, _ := args.Get(0).(*dto.JobResponse)
	return res, args.Error(1)
}

func (m *MockJobUsecase) CancelJob(ctx context.Context, tenantID, jobID string) error {
	return m.Called(ctx, tenantID, jobID).Error(0)
}

func (m *MockJobUsecase) RetryJob(ctx context.Context, tenantID, jobID string) error {
	return m.Called(ctx, tenantID, jobID).Error(0)
}

func (m *MockJobUsecase) Stats(ctx context.Context, tenantID string) (*dto.StatsResponse, error) {
	args := m.Called(ctx, tenantID)
	res, _ := args.Get(0).(*dto.StatsResponse)
	return res, args.Error(1)
}

func (m *MockJobUsecase) PauseQueue(ctx context.Context) error  { return m.Called(ctx).Error(0) }
func (m *MockJobUsecase) ResumeQueue(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockJobUsecase) DrainQueue(ctx context.Context) error  { return m.Called(ctx).Error(0) }

func (m *MockJobUsecase) RateLimitStatus(tenantID string, platform model.Platform) model.RateLimitStatus {
	return m.Called(tenantID, platform).Get(0).(model.RateLimitStatus)
}

func (m *MockJobUsecase) ResetRateLimit(tenantID string, platform model.Platform) {
	m.Called(tenantID, platform)
}

func (m *MockJobUsecase) WithBroadcaster(fn func(model.JobEvent)) usecase.IJobUsecase { return m }

type MockCredentialUsecase struct{ mock.Mock }

func (m *MockCredentialUsecase) Connect(ctx context.Context, tenantID string, req dto.ConnectRequest) (*model.SocialConnection, error) {
	args := m.Called(ctx, tenantID, req)
	conn, _ := args.Get(0).(*model.SocialConnection)
	return conn, args.Error(1)
}

func (m *MockCredentialUsecase) ActiveConnection(ctx context.Context, tenantID string, platform model.Platform) (*model.SocialConnection, error) {
	args := m.Called(ctx, tenantID, platform)
	conn, _ := args.Get(0).(*model.SocialConnection)
	return conn, args.Error(1)
}

func (m *MockCredentialUsecase) Decrypt(conn *model.SocialConnection) (*model.Credentials, error) {
	args := m.Called(conn)
	creds, _ := args.Get(0).(*model.Credentials)
	return creds, args.Error(1)
}

func (m *MockCredentialUsecase) SweepExpiring(ctx context.Context, window time.Duration) (int, int, error) {
	args := m.Called(ctx, window)
	return args.Int(0), args.Int(1), args.Error(2)
}
