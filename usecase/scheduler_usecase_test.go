package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-publisher/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSchedulerFixture() (*schedulerUsecase, *MockPostJobRepo, *MockQueue, *MockCredentialUsecase) {
	jobs, queue, creds := new(MockPostJobRepo), new(MockQueue), new(MockCredentialUsecase)
	uc := NewSchedulerUsecase(jobs, queue, creds, SchedulerPolicy{}).(*schedulerUsecase)
	uc.now = func() time.Time { return testNow }
	return uc, jobs, queue, creds
}

func TestSchedulerUsecase_DefaultPolicy(t *testing.T) {
	uc, _, _, _ := newSchedulerFixture()
	assert.Equal(t, DefaultSchedulerPolicy(), uc.policy)
}

func TestSchedulerUsecase_PromoteDue(t *testing.T) {
	uc, jobs, queue, creds := newSchedulerFixture()
	in3 := testNow.Add(3 * time.Minute)
	due := []*model.PostJob{
		{ID: "now", TenantID: "t1", Platform: model.PlatformTikTok, MaxAttempts: 3},
		{ID: "soon", TenantID: "t1", Platform: model.PlatformTikTok, ScheduledFor: &in3, MaxAttempts: 3},
		{ID: "orphan", TenantID: "t2", Platform: model.PlatformPinterest, MaxAttempts: 3},
		{ID: "flaky", TenantID: "t3", Platform: model.PlatformTikTok, MaxAttempts: 3},
	}
	jobs.On("FindDue", mock.Anything, testNow.Add(5*time.Minute), 100).Return(due, nil)
	creds.On("ActiveConnection", mock.Anything, "t1", model.PlatformTikTok).Return(liveConnection(), nil)
	creds.On("ActiveConnection", mock.Anything, "t2", model.PlatformPinterest).Return(nil, model.ErrConnectionNotFound)
	creds.On("ActiveConnection", mock.Anything, "t3", model.PlatformTikTok).Return(nil, errors.New("timeout"))
	jobs.On("MarkFailed", mock.Anything, "orphan", "no active pinterest connection").Return(nil)
	queue.On("Enqueue", mock.Anything, "now", mock.Anything, time.Duration(0)).Return(&model.QueueHandle{}, nil)
	queue.On("Enqueue", mock.Anything, "soon", mock.Anything, 3*time.Minute).Return(&model.QueueHandle{}, nil)

	promoted, failed, err := uc.PromoteDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, promoted)
	assert.Equal(t, 1, failed)
	jobs.AssertExpectations(t)
	queue.AssertExpectations(t)
	queue.AssertNotCalled(t, "Enqueue", mock.Anything, "flaky", mock.Anything, mock.Anything)
}

func TestSchedulerUsecase_CleanupKeepsFailed(t *testing.T) {
	uc, jobs, _, _ := newSchedulerFixture()
	jobs.On("DeleteTerminalBefore", mock.Anything, model.JobStatusCompleted, testNow.Add(-30*24*time.Hour)).Return(int64(4), nil)
	jobs.On("DeleteTerminalBefore", mock.Anything, model.JobStatusCancelled, testNow.Add(-7*24*time.Hour)).Return(int64(1), nil)

	n, err := uc.Cleanup(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	jobs.AssertNotCalled(t, "DeleteTerminalBefore", mock.Anything, model.JobStatusFailed, mock.Anything)
}

func TestSchedulerUsecase_SweepUsesWarningWindow(t *testing.T) {
	uc, _, _, creds := newSchedulerFixture()
	creds.On("SweepExpiring", mock.Anything, 24*time.Hour).Return(1, 2, nil)

	expired, expiring, err := uc.SweepExpiring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 2, expiring)
}

func TestSchedulerUsecase_RecoverStalled(t *testing.T) {
	uc, jobs, queue, _ := newSchedulerFixture()
	jobs.On("ReclaimStale", mock.Anything, testNow.Add(-20*time.Minute)).Return(int64(2), int64(1), nil)
	queue.On("RecoverStalled", mock.Anything, 20*time.Minute).Return(3, nil)

	result, err := uc.RecoverStalled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &RecoveryResult{Requeued: 2, Failed: 1, Recovered: 3}, result)
	jobs.AssertExpectations(t)
	queue.AssertExpectations(t)
}

func TestSchedulerUsecase_RecoverStalledStopsOnDatabaseError(t *testing.T) {
	uc, jobs, queue, _ := newSchedulerFixture()
	jobs.On("ReclaimStale", mock.Anything, mock.Anything).Return(int64(0), int64(0), errors.New("db down"))

	_, err := uc.RecoverStalled(context.Background())
	assert.EqualError(t, err, "db down")
	queue.AssertNotCalled(t, "RecoverStalled", mock.Anything, mock.Anything)
}
