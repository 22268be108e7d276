package model

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

const DefaultMaxAttempts = 3

// PostJob tracks one (content, platform) publish intent across its attempts.
type PostJob struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	ContentID    string     `json:"content_id"`
	Platform     Platform   `json:"platform"`
	Status       JobStatus  `json:"status"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	LastError    *string    `json:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// CanRetry reports whether another automatic attempt is allowed.
func (j *PostJob) CanRetry() bool { return j.Attempts < j.MaxAttempts }

// DelayFrom returns max(0, scheduledFor - now).
func (j *PostJob) DelayFrom(now time.Time) time.Duration {
	if j.ScheduledFor == nil {
		return 0
	}
	if d := j.ScheduledFor.Sub(now); d > 0 {
		return d
	}
	return 0
}

// JobEvent is pushed to realtime subscribers whenever a job changes state.
type JobEvent struct {
	Type      string    `json:"type"`
	JobID     string    `json:"job_id"`
	TenantID  string    `json:"tenant_id"`
	Platform  Platform  `json:"platform"`
	Status    JobStatus `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     *string   `json:"error,omitempty"`
	URL       *string   `json:"url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
