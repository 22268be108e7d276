package dto

import (
	"time"

	"social-publisher/domain/model"
)

// CreateJobRequest schedules content for one or more platforms.
type CreateJobRequest struct {
	ContentID    string     `json:"content_id" binding:"required"`
	Platforms    []string   `json:"platforms" binding:"required,min=1"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	MaxAttempts  int        `json:"max_attempts,omitempty"`
}

type JobResponse struct {
	Job    *model.PostJob        `json:"job"`
	Queue  *model.QueueJobStatus `json:"queue,omitempty"`
	Result *model.PublishResult  `json:"result,omitempty"`
}

type StatsResponse struct {
	Queue *model.QueueStats         `json:"queue"`
	Jobs  map[model.JobStatus]int64 `json:"jobs"`
}

// ConnectRequest registers freshly obtained OAuth tokens for a platform account.
type ConnectRequest struct {
	Platform     string     `json:"platform" binding:"required"`
	AccountID    string     `json:"account_id" binding:"required"`
	AccountName  *string    `json:"account_name,omitempty"`
	PageID       *string    `json:"page_id,omitempty"`
	AccessToken  string     `json:"access_token" binding:"required"`
	RefreshToken *string    `json:"refresh_token,omitempty"`
	TokenExpiry  *time.Time `json:"token_expiry,omitempty"`
	Scopes       string     `json:"scopes"`
}
