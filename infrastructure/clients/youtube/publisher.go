package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/social"
	"social-publisher/infrastructure/logger"

	"google.golang.org/api/youtube/v3"
)

const (
	DefaultUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos"
	maxTitle         = 100
	maxDescription   = 5000

	watchURL  = "https://www.youtube.com/watch?v=%s"
	shortsURL = "https://www.youtube.com/shorts/%s"
)

// Config holds upload defaults shared by long-form and Shorts publishers.
type Config struct {
	Privacy    string
	CategoryID string
}

// Publisher uploads through the resumable upload protocol. Shorts and regular
// videos share the same upload; they differ only in platform tag and link.
type Publisher struct {
	platform    model.Platform
	urlTemplate string
	opts        social.Options
	cfg         Config
}

func NewPublisher(opts social.Options, cfg Config) *Publisher {
	return newPublisher(model.PlatformYouTube, watchURL, opts, cfg)
}

func NewShortsPublisher(opts social.Options, cfg Config) *Publisher {
	return newPublisher(model.PlatformYouTubeShorts, shortsURL, opts, cfg)
}

func newPublisher(platform model.Platform, urlTemplate string, opts social.Options, cfg Config) *Publisher {
	if cfg.Privacy == "" {
		cfg.Privacy = "public"
	}
	if cfg.CategoryID == "" {
		cfg.CategoryID = "22"
	}
	return &Publisher{
		platform:    platform,
		urlTemplate: urlTemplate,
		opts:        opts.WithDefaults(DefaultUploadURL, 1),
		cfg:         cfg,
	}
}

func (p *Publisher) Platform() model.Platform { return p.platform }

func (p *Publisher) ValidateContent(content *model.Content) model.ValidationResult {
	var c social.Checker
	c.Require(strings.TrimSpace(content.Title) != "", "YouTube requires a title")
	c.MaxLength("Title", content.Title, maxTitle)
	c.MaxLength("Description", social.ComposeCaption(content), maxDescription)
	c.Require(content.HasMedia(), "YouTube requires a video")
	c.Require(content.Format.IsVideo(), "YouTube only supports video content")
	return c.Result()
}

func (p *Publisher) videoResource(content *model.Content) *youtube.Video {
	tags := make([]string, 0, len(content.Hashtags)+1)
	for _, h := range content.Hashtags {
		if h = strings.TrimPrefix(strings.TrimSpace(h), "#"); h != "" {
			tags = append(tags, h)
		}
	}
	if p.platform == model.PlatformYouTubeShorts {
		tags = append(tags, "Shorts")
	}
	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       content.Title,
			Description: social.ComposeCaption(content),
			Tags:        tags,
			CategoryId:  p.cfg.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           p.cfg.Privacy,
			SelfDeclaredMadeForKids: false,
		},
	}
}

// Publish opens a resumable session, then streams the source file from the
// media URL straight into the session without buffering it. Only the session
// request is held to HTTPTimeout; the transfer runs until ctx ends.
func (p *Publisher) Publish(ctx context.Context, creds *model.Credentials, content *model.Content) (*model.PublishResponse, error) {
	api := social.NewAPI(ctx, p.platform, creds.AccessToken, p.opts.HTTPTimeout)

	sessionURL := p.opts.BaseURL + "?uploadType=resumable&part=snippet,status"
	header, err := api.DoJSON(ctx, http.MethodPost, sessionURL, p.videoResource(content), nil)
	if err != nil {
		return nil, err
	}
	location := header.Get("Location")
	if location == "" {
		return nil, model.NewPlatformError(p.platform, 0, "YouTube did not return an upload session")
	}

	media, err := social.OpenMedia(ctx, social.Untimed(p.opts.MediaClient), p.platform, content.MediaURL)
	if err != nil {
		return nil, err
	}
	defer media.Body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, location, media.Body)
	if err != nil {
		return nil, err
	}
	if media.Size > 0 {
		req.ContentLength = media.Size
	}
	req.Header.Set("Content-Type", media.ContentType)

	var uploaded youtube.Video
	upload := social.NewUploadAPI(ctx, p.platform, creds.AccessToken)
	if _, err := upload.Do(req, &uploaded); err != nil {
		return nil, err
	}
	if uploaded.Id == "" {
		return nil, model.NewPlatformError(p.platform, 0, "YouTube upload finished without a video id")
	}

	logger.GetLogger().WithField("platform", p.platform).WithField("video_id", uploaded.Id).Info("youtube upload complete")
	meta := map[string]interface{}{"privacy": p.cfg.Privacy}
	if uploaded.Status != nil {
		meta["upload_status"] = uploaded.Status.UploadStatus
	}
	return &model.PublishResponse{
		PlatformPostID: uploaded.Id,
		PlatformURL:    fmt.Sprintf(p.urlTemplate, uploaded.Id),
		Metadata:       meta,
	}, nil
}

var _ repository.IPublisher = (*Publisher)(nil)
