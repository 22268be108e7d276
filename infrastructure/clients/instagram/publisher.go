package instagram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/social"
	"social-publisher/infrastructure/logger"

	"github.com/google/go-querystring/query"
)

const (
	DefaultGraphURL = "https://graph.facebook.com/v19.0"
	maxCaption      = 2200
	containerPolls  = 60
)

type Publisher struct {
	opts social.Options
}

func NewPublisher(opts social.Options) *Publisher {
	return &Publisher{opts: opts.WithDefaults(DefaultGraphURL, containerPolls)}
}

func (p *Publisher) Platform() model.Platform { return model.PlatformInstagram }

func (p *Publisher) ValidateContent(content *model.Content) model.ValidationResult {
	var c social.Checker
	c.Require(content.HasMedia(), "Instagram requires a media URL")
	c.MaxLength("Caption", social.ComposeCaption(content), maxCaption)
	return c.Result()
}

type containerParams struct {
	ImageURL  string `url:"image_url,omitempty"`
	VideoURL  string `url:"video_url,omitempty"`
	MediaType string `url:"media_type,omitempty"`
	Caption   string `url:"caption,omitempty"`
	CoverURL  string `url:"cover_url,omitempty"`
}

type idResponse struct {
	ID string `json:"id"`
}

// Publish creates a media container, waits for Instagram to finish processing
// it, publishes it and looks up the permalink.
func (p *Publisher) Publish(ctx context.Context, creds *model.Credentials, content *model.Content) (*model.PublishResponse, error) {
	api := social.NewAPI(ctx, model.PlatformInstagram, creds.AccessToken, p.opts.HTTPTimeout)
	igUser := url.PathEscape(creds.AccountID)

	params := containerParams{Caption: social.ComposeCaption(content)}
	switch content.Format {
	case model.FormatShortVideo:
		params.MediaType = "REELS"
		params.VideoURL = content.MediaURL
		params.CoverURL = content.ThumbnailURL
	case model.FormatLongVideo:
		params.MediaType = "VIDEO"
		params.VideoURL = content.MediaURL
		params.CoverURL = content.ThumbnailURL
	default:
		params.ImageURL = content.MediaURL
	}
	form, err := query.Values(params)
	if err != nil {
		return nil, err
	}

	var container idResponse
	if _, err := api.PostForm(ctx, fmt.Sprintf("%s/%s/media", p.opts.BaseURL, igUser), form, &container); err != nil {
		return nil, err
	}
	if container.ID == "" {
		return nil, model.NewPlatformError(model.PlatformInstagram, 0, "Instagram did not return a container id")
	}

	statusURL := fmt.Sprintf("%s/%s?fields=status_code", p.opts.BaseURL, url.PathEscape(container.ID))
	err = social.Poll(ctx, model.PlatformInstagram, p.opts.PollInterval, p.opts.MaxPolls, func(attempt int) (bool, error) {
		var status struct {
			StatusCode string `json:"status_code"`
		}
		if _, err := api.DoJSON(ctx, http.MethodGet, statusURL, nil, &status); err != nil {
			return false, err
		}
		switch status.StatusCode {
		case "FINISHED", "PUBLISHED":
			return true, nil
		case "ERROR", "EXPIRED":
			return false, model.NewPlatformError(model.PlatformInstagram, 0,
				fmt.Sprintf("Instagram container %s ended with status %s", container.ID, status.StatusCode))
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	var media idResponse
	publishForm := url.Values{"creation_id": {container.ID}}
	if _, err := api.PostForm(ctx, fmt.Sprintf("%s/%s/media_publish", p.opts.BaseURL, igUser), publishForm, &media); err != nil {
		return nil, err
	}

	res := &model.PublishResponse{
		PlatformPostID: media.ID,
		Metadata:       map[string]interface{}{"container_id": container.ID, "media_type": params.MediaType},
	}
	var link struct {
		Permalink string `json:"permalink"`
	}
	permalinkURL := fmt.Sprintf("%s/%s?fields=permalink", p.opts.BaseURL, url.PathEscape(media.ID))
	if _, err := api.DoJSON(ctx, http.MethodGet, permalinkURL, nil, &link); err != nil {
		// already published; a missing link is not worth a retry
		logger.GetLogger().WithField("media_id", media.ID).WithField("error", err).Warn("instagram permalink lookup failed")
	}
	res.PlatformURL = link.Permalink
	return res, nil
}

var _ repository.IPublisher = (*Publisher)(nil)
