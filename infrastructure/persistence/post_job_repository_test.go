package persistence

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"social-publisher/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newPostJobRepo(t *testing.T) (*PostJobRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewPostJobRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func postJobRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "content_id", "platform", "status", "scheduled_for",
		"attempts", "max_attempts", "last_error", "created_at", "updated_at", "completed_at"})
}

func TestPostJobRepository_Create(t *testing.T) {
	repo, mock := newPostJobRepo(t)
	job := &model.PostJob{ID: "job-1", TenantID: "t1", ContentID: "c1", Platform: model.PlatformTikTok}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO post_jobs")).
		WithArgs("job-1", "t1", "c1", model.PlatformTikTok, model.JobStatusPending, nil, 0, 3, nil,
			fixedNow, fixedNow, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), job))
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Equal(t, model.DefaultMaxAttempts, job.MaxAttempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostJobRepository_GetByID(t *testing.T) {
	repo, mock := newPostJobRepo(t)
	scheduled := fixedNow.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM post_jobs WHERE id = $1")).
		WithArgs("job-1").
		WillReturnRows(postJobRows().AddRow("job-1", "t1", "c1", "tiktok", "FAILED", scheduled,
			3, 3, "boom", fixedNow, fixedNow, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM post_jobs WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	job, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	require.NotNil(t, job.ScheduledFor)
	assert.True(t, scheduled.Equal(*job.ScheduledFor))
	require.NotNil(t, job.LastError)
	assert.Equal(t, "boom", *job.LastError)
	assert.Nil(t, job.CompletedAt)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostJobRepository_FindDue(t *testing.T) {
	repo, mock := newPostJobRepo(t)
	before := fixedNow.Add(5 * time.Minute)

	mock.ExpectQuery(`status = 'PENDING' AND \(scheduled_for IS NULL OR scheduled_for <= \$1\)`).
		WithArgs(before, 100).
		WillReturnRows(postJobRows().
			AddRow("a", "t1", "c1", "tiktok", "PENDING", nil, 0, 3, nil, fixedNow, fixedNow, nil).
			AddRow("b", "t1", "c2", "youtube", "PENDING", fixedNow.Add(time.Minute), 0, 3, nil, fixedNow, fixedNow, nil))

	jobs, err := repo.FindDue(context.Background(), before, 100)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].ID)
	assert.Nil(t, jobs[0].ScheduledFor)
	assert.Equal(t, model.PlatformYouTube, jobs[1].Platform)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostJobRepository_Claim(t *testing.T) {
	repo, mock := newPostJobRepo(t)
	claim := regexp.QuoteMeta("SET status = 'PROCESSING', attempts = attempts + 1")

	mock.ExpectQuery(claim).
		WithArgs("job-1", fixedNow).
		WillReturnRows(postJobRows().AddRow("job-1", "t1", "c1", "tiktok", "PROCESSING", nil, 1, 3, nil, fixedNow, fixedNow, nil))
	mock.ExpectQuery(claim).
		WithArgs("job-1", fixedNow).
		WillReturnError(sql.ErrNoRows)

	job, err := repo.Claim(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, job.Status)
	assert.Equal(t, 1, job.Attempts)

	_, err = repo.Claim(context.Background(), "job-1")
	assert.ErrorIs(t, err, model.ErrJobNotClaimable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostJobRepository_Transitions(t *testing.T) {
	repo, mock := newPostJobRepo(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'COMPLETED'")).
		WithArgs("job-1", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'PENDING', last_error = $2")).
		WithArgs("job-2", "rate limited", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'FAILED'")).
		WithArgs("job-3", "token revoked", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkCompleted(ctx, "job-1"))
	require.NoError(t, repo.MarkPending(ctx, "job-2", "rate limited"))
	assert.ErrorIs(t, repo.MarkFailed(ctx, "job-3", "token revoked"), model.ErrJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostJobRepository_CancelAndReset(t *testing.T) {
	repo, mock := newPostJobRepo(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'CANCELLED'")).
		WithArgs("pending", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'CANCELLED'")).
		WithArgs("done", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("attempts = 0, last_error = NULL")).
		WithArgs("failed", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Cancel(ctx, "pending")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Cancel(ctx, "done")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.ResetForRetry(ctx, "failed")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostJobRepository_DeleteTerminalBefore(t *testing.T) {
	repo, mock := newPostJobRepo(t)
	cutoff := fixedNow.Add(-30 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM post_jobs WHERE status = $1 AND updated_at < $2")).
		WithArgs(model.JobStatusCompleted, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteTerminalBefore(context.Background(), model.JobStatusCompleted, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	_, err = repo.DeleteTerminalBefore(context.Background(), model.JobStatusPending, cutoff)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostJobRepository_CountByStatus(t *testing.T) {
	repo, mock := newPostJobRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("PENDING", 2).
			AddRow("FAILED", 1))

	counts, err := repo.CountByStatus(context.Background(), "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[model.JobStatusPending])
	assert.EqualValues(t, 1, counts[model.JobStatusFailed])
	assert.Zero(t, counts[model.JobStatusCompleted])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostJobRepository_ReclaimStale(t *testing.T) {
	repo, mock := newPostJobRepo(t)
	cutoff := fixedNow.Add(-20 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'FAILED'")).
		WithArgs(cutoff, fixedNow, "processing lease expired on the final attempt").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'PENDING'")).
		WithArgs(cutoff, fixedNow, "processing lease expired").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	requeued, failed, err := repo.ReclaimStale(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), requeued)
	assert.Equal(t, int64(1), failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostJobRepository_ReclaimStaleRollsBackOnError(t *testing.T) {
	repo, mock := newPostJobRepo(t)
	cutoff := fixedNow.Add(-20 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'FAILED'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'PENDING'")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, _, err := repo.ReclaimStale(context.Background(), cutoff)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
