package twitter

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/social"
)

const (
	DefaultAPIURL    = "https://api.twitter.com"
	DefaultUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	DefaultChunkSize = 4 << 20
	maxText          = 280
	processingPolls  = 60
)

type Config struct {
	UploadURL string
	ChunkSize int
}

type Publisher struct {
	opts social.Options
	cfg  Config
}

// NewPublisher takes the v2 API root in opts.BaseURL and the v1.1 media
// upload endpoint in cfg.UploadURL.
func NewPublisher(opts social.Options, cfg Config) *Publisher {
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Publisher{opts: opts.WithDefaults(DefaultAPIURL, processingPolls), cfg: cfg}
}

func (p *Publisher) Platform() model.Platform { return model.PlatformTwitter }

func (p *Publisher) ValidateContent(content *model.Content) model.ValidationResult {
	var c social.Checker
	text := social.ComposeCaption(content)
	c.Require(strings.TrimSpace(text) != "" || content.HasMedia(), "Twitter requires text or media")
	c.MaxLength("Caption", text, maxText)
	c.Require(content.Format != model.FormatLongVideo, "Twitter does not support long-form video")
	return c.Result()
}

type mediaResponse struct {
	MediaID        string `json:"media_id_string"`
	ProcessingInfo *struct {
		State          string `json:"state"`
		CheckAfterSecs int    `json:"check_after_secs"`
		Error          *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"processing_info"`
}

func (p *Publisher) Publish(ctx context.Context, creds *model.Credentials, content *model.Content) (*model.PublishResponse, error) {
	api := social.NewAPI(ctx, model.PlatformTwitter, creds.AccessToken, p.opts.HTTPTimeout)

	body := map[string]interface{}{"text": social.ComposeCaption(content)}
	var mediaID string
	if content.HasMedia() {
		id, err := p.uploadMedia(ctx, api, content)
		if err != nil {
			return nil, err
		}
		mediaID = id
		body["media"] = map[string][]string{"media_ids": {id}}
	}

	var tweet struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if _, err := api.DoJSON(ctx, http.MethodPost, p.opts.BaseURL+"/2/tweets", body, &tweet); err != nil {
		return nil, err
	}
	if tweet.Data.ID == "" {
		return nil, model.NewPlatformError(model.PlatformTwitter, 0, "Twitter did not return a tweet id")
	}
	meta := map[string]interface{}{}
	if mediaID != "" {
		meta["media_id"] = mediaID
	}
	return &model.PublishResponse{
		PlatformPostID: tweet.Data.ID,
		PlatformURL:    "https://x.com/i/web/status/" + tweet.Data.ID,
		Metadata:       meta,
	}, nil
}

// uploadMedia runs the chunked INIT / APPEND / FINALIZE sequence and waits for
// server-side processing when Twitter asks for it.
func (p *Publisher) uploadMedia(ctx context.Context, api *social.API, content *model.Content) (string, error) {
	data, contentType, err := social.FetchMedia(ctx, p.opts.MediaClient, model.PlatformTwitter, content.MediaURL)
	if err != nil {
		return "", err
	}
	category := "tweet_image"
	if content.Format.IsVideo() {
		category = "tweet_video"
	}

	var init mediaResponse
	initForm := url.Values{
		"command":        {"INIT"},
		"total_bytes":    {strconv.Itoa(len(data))},
		"media_type":     {contentType},
		"media_category": {category},
	}
	if _, err := api.PostForm(ctx, p.cfg.UploadURL, initForm, &init); err != nil {
		return "", err
	}
	if init.MediaID == "" {
		return "", model.NewPlatformError(model.PlatformTwitter, 0, "Twitter did not return a media id")
	}

	for i, chunk := range social.Chunks(data, p.cfg.ChunkSize) {
		if err := p.appendChunk(ctx, api, init.MediaID, i, chunk); err != nil {
			return "", err
		}
	}

	var final mediaResponse
	finalForm := url.Values{"command": {"FINALIZE"}, "media_id": {init.MediaID}}
	if _, err := api.PostForm(ctx, p.cfg.UploadURL, finalForm, &final); err != nil {
		return "", err
	}
	if final.ProcessingInfo == nil || final.ProcessingInfo.State == "succeeded" {
		return init.MediaID, nil
	}

	statusURL := fmt.Sprintf("%s?command=STATUS&media_id=%s", p.cfg.UploadURL, url.QueryEscape(init.MediaID))
	err = social.Poll(ctx, model.PlatformTwitter, p.opts.PollInterval, p.opts.MaxPolls, func(int) (bool, error) {
		var status mediaResponse
		if _, err := api.DoJSON(ctx, http.MethodGet, statusURL, nil, &status); err != nil {
			return false, err
		}
		if status.ProcessingInfo == nil {
			return true, nil
		}
		switch status.ProcessingInfo.State {
		case "succeeded":
			return true, nil
		case "failed":
			msg := "Twitter media processing failed"
			if status.ProcessingInfo.Error != nil && status.ProcessingInfo.Error.Message != "" {
				msg = status.ProcessingInfo.Error.Message
			}
			return false, model.NewPlatformError(model.PlatformTwitter, 0, msg)
		}
		return false, nil
	})
	if err != nil {
		return "", err
	}
	return init.MediaID, nil
}

func (p *Publisher) appendChunk(ctx context.Context, api *social.API, mediaID string, index int, chunk []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("command", "APPEND")
	_ = w.WriteField("media_id", mediaID)
	_ = w.WriteField("segment_index", strconv.Itoa(index))
	part, err := w.CreateFormFile("media", "chunk")
	if err != nil {
		return err
	}
	if _, err := part.Write(chunk); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.UploadURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	_, err = api.Do(req, nil)
	return err
}

var _ repository.IPublisher = (*Publisher)(nil)
