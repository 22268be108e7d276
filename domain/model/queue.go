package model

import "time"

type QueueState string

const (
	QueueStateWaiting   QueueState = "waiting"
	QueueStateDelayed   QueueState = "delayed"
	QueueStateActive    QueueState = "active"
	QueueStateCompleted QueueState = "completed"
	QueueStateFailed    QueueState = "failed"
)

// IsLive is true while the entry still represents pending work.
func (s QueueState) IsLive() bool {
	return s == QueueStateWaiting || s == QueueStateDelayed || s == QueueStateActive
}

// QueuePayload is the body carried by a queue entry.
type QueuePayload struct {
	PostJobID   string   `json:"post_job_id"`
	TenantID    string   `json:"tenant_id"`
	ContentID   string   `json:"content_id"`
	Platform    Platform `json:"platform"`
	MaxAttempts int      `json:"max_attempts"`
}

type QueueHandle struct {
	JobID    string     `json:"job_id"`
	State    QueueState `json:"state"`
	ReadyAt  time.Time  `json:"ready_at"`
	Existing bool       `json:"existing"`
}

// QueueEntry is handed to a worker after a successful dequeue.
type QueueEntry struct {
	JobID        string
	Payload      QueuePayload
	AttemptsMade int
	MaxAttempts  int
	EnqueuedAt   time.Time
}

type QueueJobStatus struct {
	JobID        string     `json:"job_id"`
	State        QueueState `json:"state"`
	AttemptsMade int        `json:"attempts_made"`
	FailedReason *string    `json:"failed_reason,omitempty"`
}

type QueueStats struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Delayed   int64 `json:"delayed"`
	Paused    bool  `json:"paused"`
}
