package model

import "time"

// PublishResult is written once per successful publish and never updated.
type PublishResult struct {
	ID             string                 `json:"id"               gorm:"primaryKey;type:uuid"`
	PostJobID      string                 `json:"post_job_id"      gorm:"uniqueIndex;not null"`
	Platform       Platform               `json:"platform"         gorm:"type:varchar(32);not null"`
	PlatformPostID string                 `json:"platform_post_id" gorm:"not null"`
	PlatformURL    string                 `json:"platform_url"`
	PublishedAt    time.Time              `json:"published_at"     gorm:"not null"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" gorm:"serializer:json;type:jsonb"`
	CreatedAt      time.Time              `json:"created_at"       gorm:"autoCreateTime"`
}

func (PublishResult) TableName() string { return "publish_results" }

// PublishResponse is what a platform publisher hands back on success.
type PublishResponse struct {
	PlatformPostID string                 `json:"platform_post_id"`
	PlatformURL    string                 `json:"platform_url"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}
