package pinterest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/social"
)

const (
	DefaultBaseURL = "https://api.pinterest.com"
	maxTitle       = 100
	maxDescription = 500
	mediaPolls     = 60
)

type Publisher struct {
	opts social.Options
}

func NewPublisher(opts social.Options) *Publisher {
	return &Publisher{opts: opts.WithDefaults(DefaultBaseURL, mediaPolls)}
}

func (p *Publisher) Platform() model.Platform { return model.PlatformPinterest }

func (p *Publisher) ValidateContent(content *model.Content) model.ValidationResult {
	var c social.Checker
	c.Require(content.HasMedia(), "Pinterest requires media")
	c.MaxLength("Title", content.Title, maxTitle)
	c.MaxLength("Description", social.ComposeCaption(content), maxDescription)
	c.Require(content.Format != model.FormatLongVideo, "Pinterest does not support long-form video")
	return c.Result()
}

type registerResponse struct {
	MediaID          string            `json:"media_id"`
	UploadURL        string            `json:"upload_url"`
	UploadParameters map[string]string `json:"upload_parameters"`
}

// Publish pins to the board stored on the connection. Images are pulled by
// Pinterest from their URL; videos are registered and uploaded first.
func (p *Publisher) Publish(ctx context.Context, creds *model.Credentials, content *model.Content) (*model.PublishResponse, error) {
	if creds.PageID == "" {
		return nil, model.NewAuthorizationError(model.PlatformPinterest, "Pinterest connection has no board selected")
	}
	api := social.NewAPI(ctx, model.PlatformPinterest, creds.AccessToken, p.opts.HTTPTimeout)

	source := map[string]interface{}{"source_type": "image_url", "url": content.MediaURL}
	meta := map[string]interface{}{"board_id": creds.PageID}
	if content.Format.IsVideo() {
		mediaID, err := p.uploadVideo(ctx, api, content)
		if err != nil {
			return nil, err
		}
		source = map[string]interface{}{"source_type": "video_id", "media_id": mediaID}
		if content.ThumbnailURL != "" {
			source["cover_image_url"] = content.ThumbnailURL
		}
		meta["media_id"] = mediaID
	}

	pin := map[string]interface{}{
		"board_id":     creds.PageID,
		"title":        content.Title,
		"description":  social.ComposeCaption(content),
		"media_source": source,
	}
	var created struct {
		ID string `json:"id"`
	}
	if _, err := api.DoJSON(ctx, http.MethodPost, p.opts.BaseURL+"/v5/pins", pin, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, model.NewPlatformError(model.PlatformPinterest, 0, "Pinterest did not return a pin id")
	}
	return &model.PublishResponse{
		PlatformPostID: created.ID,
		PlatformURL:    fmt.Sprintf("https://www.pinterest.com/pin/%s/", created.ID),
		Metadata:       meta,
	}, nil
}

func (p *Publisher) uploadVideo(ctx context.Context, api *social.API, content *model.Content) (string, error) {
	var reg registerResponse
	if _, err := api.DoJSON(ctx, http.MethodPost, p.opts.BaseURL+"/v5/media", map[string]string{"media_type": "video"}, &reg); err != nil {
		return "", err
	}
	if reg.MediaID == "" || reg.UploadURL == "" {
		return "", model.NewPlatformError(model.PlatformPinterest, 0, "Pinterest did not return an upload target")
	}

	data, contentType, err := social.FetchMedia(ctx, p.opts.MediaClient, model.PlatformPinterest, content.MediaURL)
	if err != nil {
		return "", err
	}
	if err := p.uploadToTarget(ctx, reg, data, contentType); err != nil {
		return "", err
	}

	statusURL := fmt.Sprintf("%s/v5/media/%s", p.opts.BaseURL, url.PathEscape(reg.MediaID))
	err = social.Poll(ctx, model.PlatformPinterest, p.opts.PollInterval, p.opts.MaxPolls, func(int) (bool, error) {
		var status struct {
			Status string `json:"status"`
		}
		if _, err := api.DoJSON(ctx, http.MethodGet, statusURL, nil, &status); err != nil {
			return false, err
		}
		switch status.Status {
		case "succeeded":
			return true, nil
		case "failed":
			return false, model.NewPlatformError(model.PlatformPinterest, 0,
				fmt.Sprintf("Pinterest media %s failed processing", reg.MediaID))
		}
		return false, nil
	})
	if err != nil {
		return "", err
	}
	return reg.MediaID, nil
}

// uploadToTarget posts the file to the pre-signed upload URL. The target is a
// storage bucket, so no bearer token is sent.
func (p *Publisher) uploadToTarget(ctx context.Context, reg registerResponse, data []byte, contentType string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(reg.UploadParameters))
	for k := range reg.UploadParameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, reg.UploadParameters[k]); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("file", "video")
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reg.UploadURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := p.opts.MediaClient.Do(req)
	if err != nil {
		return model.AsPublishError(model.PlatformPinterest, fmt.Errorf("upload %s video: %w", strings.Split(contentType, ";")[0], err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return social.StatusError(model.PlatformPinterest, resp.StatusCode, body)
	}
	return nil
}

var _ repository.IPublisher = (*Publisher)(nil)
