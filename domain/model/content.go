package model

import "time"

type ContentFormat string

const (
	FormatText       ContentFormat = "TEXT"
	FormatImage      ContentFormat = "IMAGE"
	FormatShortVideo ContentFormat = "SHORT_VIDEO"
	FormatLongVideo  ContentFormat = "LONG_VIDEO"
)

func (f ContentFormat) IsVideo() bool {
	return f == FormatShortVideo || f == FormatLongVideo
}

const (
	ContentStatusDraft     = "DRAFT"
	ContentStatusScheduled = "SCHEDULED"
	ContentStatusPublished = "PUBLISHED"
)

// Content is the publishable unit owned by the content store.
type Content struct {
	ID           string        `json:"id"            bson:"_id"`
	TenantID     string        `json:"tenant_id"     bson:"tenantId"`
	Caption      string        `json:"caption"       bson:"caption"`
	Title        string        `json:"title"         bson:"title"`
	Script       string        `json:"script"        bson:"script"`
	MediaURL     string        `json:"media_url"     bson:"mediaUrl"`
	Format       ContentFormat `json:"format"        bson:"format"`
	ThumbnailURL string        `json:"thumbnail_url" bson:"thumbnailUrl"`
	Hashtags     []string      `json:"hashtags"      bson:"hashtags"`
	Status       string        `json:"status"        bson:"status"`
	PublishedAt  *time.Time    `json:"published_at,omitempty" bson:"publishedAt,omitempty"`
}

func (c *Content) HasMedia() bool { return c != nil && c.MediaURL != "" }
