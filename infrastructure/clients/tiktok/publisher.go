package tiktok

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/social"
	"social-publisher/infrastructure/logger"
)

const (
	DefaultBaseURL = "https://open.tiktokapis.com"
	maxCaption     = 2200
	statusPolls    = 30
)

type Publisher struct {
	opts    social.Options
	privacy string
}

func NewPublisher(opts social.Options, privacyLevel string) *Publisher {
	if privacyLevel == "" {
		privacyLevel = "PUBLIC_TO_EVERYONE"
	}
	return &Publisher{opts: opts.WithDefaults(DefaultBaseURL, statusPolls), privacy: privacyLevel}
}

func (p *Publisher) Platform() model.Platform { return model.PlatformTikTok }

func (p *Publisher) ValidateContent(content *model.Content) model.ValidationResult {
	var c social.Checker
	c.Require(content.HasMedia(), "TikTok requires a video")
	c.Require(content.Format.IsVideo(), "TikTok only supports video content")
	c.MaxLength("Caption", social.ComposeCaption(content), maxCaption)
	return c.Result()
}

// apiError is the envelope TikTok returns on every response, successful or not.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

type initRequest struct {
	PostInfo struct {
		Title          string `json:"title,omitempty"`
		PrivacyLevel   string `json:"privacy_level"`
		DisableComment bool   `json:"disable_comment"`
	} `json:"post_info"`
	SourceInfo struct {
		Source   string `json:"source"`
		VideoURL string `json:"video_url"`
	} `json:"source_info"`
}

type initResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
	} `json:"data"`
	Error apiError `json:"error"`
}

type statusResponse struct {
	Data struct {
		Status     string  `json:"status"`
		FailReason string  `json:"fail_reason"`
		PostIDs    []int64 `json:"publicaly_available_post_id"`
	} `json:"data"`
	Error apiError `json:"error"`
}

// Publish asks TikTok to pull the video from its URL and waits for the post to go live.
func (p *Publisher) Publish(ctx context.Context, creds *model.Credentials, content *model.Content) (*model.PublishResponse, error) {
	api := social.NewAPI(ctx, model.PlatformTikTok, creds.AccessToken, p.opts.HTTPTimeout)

	var req initRequest
	req.PostInfo.Title = social.ComposeCaption(content)
	req.PostInfo.PrivacyLevel = p.privacy
	req.SourceInfo.Source = "PULL_FROM_URL"
	req.SourceInfo.VideoURL = content.MediaURL

	var initRes initResponse
	if _, err := api.DoJSON(ctx, http.MethodPost, p.opts.BaseURL+"/v2/post/publish/video/init/", req, &initRes); err != nil {
		return nil, err
	}
	if err := checkEnvelope(initRes.Error); err != nil {
		return nil, err
	}
	publishID := initRes.Data.PublishID
	if publishID == "" {
		return nil, model.NewPlatformError(model.PlatformTikTok, 0, "TikTok did not return a publish_id")
	}
	logger.GetLogger().WithField("publish_id", publishID).Debug("tiktok upload initialised")

	var status statusResponse
	err := social.Poll(ctx, model.PlatformTikTok, p.opts.PollInterval, p.opts.MaxPolls, func(int) (bool, error) {
		status = statusResponse{}
		body := map[string]string{"publish_id": publishID}
		if _, err := api.DoJSON(ctx, http.MethodPost, p.opts.BaseURL+"/v2/post/publish/status/fetch/", body, &status); err != nil {
			return false, err
		}
		if err := checkEnvelope(status.Error); err != nil {
			return false, err
		}
		switch status.Data.Status {
		case "PUBLISH_COMPLETE":
			return true, nil
		case "FAILED":
			reason := status.Data.FailReason
			if reason == "" {
				reason = "unknown reason"
			}
			return false, model.NewPlatformError(model.PlatformTikTok, 0, "TikTok publish failed: "+reason)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	res := &model.PublishResponse{
		PlatformPostID: publishID,
		Metadata:       map[string]interface{}{"publish_id": publishID},
	}
	if len(status.Data.PostIDs) > 0 {
		postID := strconv.FormatInt(status.Data.PostIDs[0], 10)
		res.PlatformPostID = postID
		res.PlatformURL = fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", creds.AccountID, postID)
	}
	return res, nil
}

func checkEnvelope(e apiError) error {
	if e.Code == "" || e.Code == "ok" {
		return nil
	}
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Code == "access_token_invalid" || e.Code == "scope_not_authorized" {
		return model.NewAuthorizationError(model.PlatformTikTok, msg)
	}
	return model.NewPlatformError(model.PlatformTikTok, 0, msg)
}

var _ repository.IPublisher = (*Publisher)(nil)
