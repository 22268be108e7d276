package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

const postJobColumns = `id, tenant_id, content_id, platform, status, scheduled_for, attempts, max_attempts, last_error, created_at, updated_at, completed_at`

type PostJobRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostJobRepository(db *sql.DB) *PostJobRepository {
	return &PostJobRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPostJob(row rowScanner) (*model.PostJob, error) {
	var (
		job          model.PostJob
		scheduledFor sql.NullTime
		lastError    sql.NullString
		completedAt  sql.NullTime
	)
	err := row.Scan(&job.ID, &job.TenantID, &job.ContentID, &job.Platform, &job.Status, &scheduledFor,
		&job.Attempts, &job.MaxAttempts, &lastError, &job.CreatedAt, &job.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if scheduledFor.Valid {
		t := scheduledFor.Time
		job.ScheduledFor = &t
	}
	if lastError.Valid {
		s := lastError.String
		job.LastError = &s
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

func (r *PostJobRepository) Create(ctx context.Context, job *model.PostJob) error {
	now := r.now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = model.DefaultMaxAttempts
	}
	q := `INSERT INTO post_jobs (` + postJobColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.db.ExecContext(ctx, q, job.ID, job.TenantID, job.ContentID, job.Platform, job.Status,
		job.ScheduledFor, job.Attempts, job.MaxAttempts, job.LastError, job.CreatedAt, job.UpdatedAt, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert post job %s: %w", job.ID, err)
	}
	return nil
}

func (r *PostJobRepository) GetByID(ctx context.Context, id string) (*model.PostJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postJobColumns+` FROM post_jobs WHERE id = $1`, id)
	job, err := scanPostJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post job %s: %w", id, err)
	}
	return job, nil
}

func (r *PostJobRepository) FindDue(ctx context.Context, before time.Time, limit int) ([]*model.PostJob, error) {
	q := `SELECT ` + postJobColumns + ` FROM post_jobs
		WHERE status = 'PENDING' AND (scheduled_for IS NULL OR scheduled_for <= $1)
		ORDER BY COALESCE(scheduled_for, created_at)
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, before, limit)
	if err != nil {
		return nil, fmt.Errorf("find due post jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.PostJob
	for rows.Next() {
		job, err := scanPostJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Claim is a conditional update so only one worker can move a job out of PENDING.
func (r *PostJobRepository) Claim(ctx context.Context, id string) (*model.PostJob, error) {
	q := `UPDATE post_jobs SET status = 'PROCESSING', attempts = attempts + 1, updated_at = $2
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + postJobColumns
	job, err := scanPostJob(r.db.QueryRowContext(ctx, q, id, r.now()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrJobNotClaimable
	}
	if err != nil {
		return nil, fmt.Errorf("claim post job %s: %w", id, err)
	}
	return job, nil
}

func (r *PostJobRepository) MarkCompleted(ctx context.Context, id string) error {
	now := r.now()
	q := `UPDATE post_jobs SET status = 'COMPLETED', last_error = NULL, completed_at = $2, updated_at = $2 WHERE id = $1`
	return r.exec(ctx, "complete", id, q, id, now)
}

func (r *PostJobRepository) MarkPending(ctx context.Context, id string, lastError string) error {
	q := `UPDATE post_jobs SET status = 'PENDING', last_error = $2, updated_at = $3 WHERE id = $1 AND status = 'PROCESSING'`
	return r.exec(ctx, "requeue", id, q, id, lastError, r.now())
}

func (r *PostJobRepository) MarkFailed(ctx context.Context, id string, lastError string) error {
	q := `UPDATE post_jobs SET status = 'FAILED', last_error = $2, updated_at = $3 WHERE id = $1`
	return r.exec(ctx, "fail", id, q, id, lastError, r.now())
}

func (r *PostJobRepository) exec(ctx context.Context, op, id, q string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s post job %s: %w", op, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s post job %s: %w", op, id, model.ErrJobNotFound)
	}
	return nil
}

// Cancel reports false when the job is missing or no longer PENDING.
func (r *PostJobRepository) Cancel(ctx context.Context, id string) (bool, error) {
	q := `UPDATE post_jobs SET status = 'CANCELLED', updated_at = $2 WHERE id = $1 AND status = 'PENDING'`
	return r.conditional(ctx, "cancel", id, q, id, r.now())
}

// ResetForRetry gives a FAILED job a fresh attempt budget.
func (r *PostJobRepository) ResetForRetry(ctx context.Context, id string) (bool, error) {
	q := `UPDATE post_jobs SET status = 'PENDING', attempts = 0, last_error = NULL, completed_at = NULL, updated_at = $2
		WHERE id = $1 AND status = 'FAILED'`
	return r.conditional(ctx, "reset", id, q, id, r.now())
}

func (r *PostJobRepository) conditional(ctx context.Context, op, id, q string, args ...interface{}) (bool, error) {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("%s post job %s: %w", op, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s post job %s: %w", op, id, err)
	}
	return n == 1, nil
}

func (r *PostJobRepository) DeleteTerminalBefore(ctx context.Context, status model.JobStatus, before time.Time) (int64, error) {
	if !status.IsTerminal() {
		return 0, fmt.Errorf("refusing to delete %s jobs", status)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM post_jobs WHERE status = $1 AND updated_at < $2`, status, before)
	if err != nil {
		return 0, fmt.Errorf("delete %s post jobs: %w", status, err)
	}
	return res.RowsAffected()
}

// ReclaimStale treats updated_at of a PROCESSING row as its claim lease: Claim
// stamps it and nothing touches the row again until the attempt settles. Rows on
// their last attempt fail; the rest go back to PENDING for the promotion pass.
func (r *PostJobRepository) ReclaimStale(ctx context.Context, claimedBefore time.Time) (int64, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("reclaim stale post jobs: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.now()
	res, err := tx.ExecContext(ctx, `UPDATE post_jobs SET status = 'FAILED', last_error = $3, updated_at = $2
		WHERE status = 'PROCESSING' AND updated_at < $1 AND attempts >= max_attempts`,
		claimedBefore, now, "processing lease expired on the final attempt")
	if err != nil {
		return 0, 0, fmt.Errorf("fail stale post jobs: %w", err)
	}
	failed, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("fail stale post jobs: %w", err)
	}

	res, err = tx.ExecContext(ctx, `UPDATE post_jobs SET status = 'PENDING', last_error = $3, updated_at = $2
		WHERE status = 'PROCESSING' AND updated_at < $1`,
		claimedBefore, now, "processing lease expired")
	if err != nil {
		return 0, 0, fmt.Errorf("requeue stale post jobs: %w", err)
	}
	requeued, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("requeue stale post jobs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("reclaim stale post jobs: %w", err)
	}
	return requeued, failed, nil
}

// CountByStatus counts jobs per status; an empty tenantID counts every tenant.
func (r *PostJobRepository) CountByStatus(ctx context.Context, tenantID string) (map[model.JobStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM post_jobs WHERE ($1 = '' OR tenant_id = $1) GROUP BY status`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count post jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.JobStatus]int64)
	for rows.Next() {
		var (
			status model.JobStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan post job count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

var _ repository.IPostJob = (*PostJobRepository)(nil)
