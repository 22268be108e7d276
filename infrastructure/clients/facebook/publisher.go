package facebook

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/social"

	"github.com/google/go-querystring/query"
)

const (
	DefaultGraphURL = "https://graph.facebook.com/v19.0"
	maxCaption      = 63206
)

type Publisher struct {
	opts social.Options
}

func NewPublisher(opts social.Options) *Publisher {
	return &Publisher{opts: opts.WithDefaults(DefaultGraphURL, 1)}
}

func (p *Publisher) Platform() model.Platform { return model.PlatformFacebook }

func (p *Publisher) ValidateContent(content *model.Content) model.ValidationResult {
	var c social.Checker
	caption := social.ComposeCaption(content)
	c.Require(strings.TrimSpace(caption) != "" || content.HasMedia(), "Facebook requires a caption or media")
	c.MaxLength("Caption", caption, maxCaption)
	return c.Result()
}

type feedParams struct {
	Message string `url:"message"`
}

type photoParams struct {
	URL     string `url:"url"`
	Caption string `url:"caption,omitempty"`
}

type videoParams struct {
	FileURL     string `url:"file_url"`
	Title       string `url:"title,omitempty"`
	Description string `url:"description,omitempty"`
}

type postResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

// Publish posts to the connection's page using the page access token.
func (p *Publisher) Publish(ctx context.Context, creds *model.Credentials, content *model.Content) (*model.PublishResponse, error) {
	if creds.PageID == "" {
		return nil, model.NewAuthorizationError(model.PlatformFacebook, "Facebook connection has no page selected")
	}
	pageToken, err := p.pageToken(ctx, creds)
	if err != nil {
		return nil, err
	}
	api := social.NewAPI(ctx, model.PlatformFacebook, pageToken, p.opts.HTTPTimeout)
	page := url.PathEscape(creds.PageID)
	caption := social.ComposeCaption(content)

	var (
		edge   string
		params interface{}
		kind   string
	)
	switch {
	case !content.HasMedia():
		edge, kind = "feed", "text"
		params = feedParams{Message: caption}
	case content.Format.IsVideo():
		edge, kind = "videos", "video"
		params = videoParams{FileURL: content.MediaURL, Title: content.Title, Description: caption}
	default:
		edge, kind = "photos", "photo"
		params = photoParams{URL: content.MediaURL, Caption: caption}
	}
	form, err := query.Values(params)
	if err != nil {
		return nil, err
	}

	var res postResponse
	if _, err := api.PostForm(ctx, fmt.Sprintf("%s/%s/%s", p.opts.BaseURL, page, edge), form, &res); err != nil {
		return nil, err
	}
	if res.ID == "" {
		return nil, model.NewPlatformError(model.PlatformFacebook, 0, "Facebook did not return a post id")
	}

	postID := res.ID
	if res.PostID != "" {
		postID = res.PostID
	}
	link := "https://www.facebook.com/" + postID
	if kind == "video" {
		link = fmt.Sprintf("https://www.facebook.com/%s/videos/%s", creds.PageID, res.ID)
	}
	return &model.PublishResponse{
		PlatformPostID: postID,
		PlatformURL:    link,
		Metadata:       map[string]interface{}{"page_id": creds.PageID, "type": kind},
	}, nil
}

// pageToken exchanges the stored user token for the page's own token.
func (p *Publisher) pageToken(ctx context.Context, creds *model.Credentials) (string, error) {
	api := social.NewAPI(ctx, model.PlatformFacebook, creds.AccessToken, p.opts.HTTPTimeout)
	var page struct {
		ID          string `json:"id"`
		AccessToken string `json:"access_token"`
	}
	endpoint := fmt.Sprintf("%s/%s?fields=access_token", p.opts.BaseURL, url.PathEscape(creds.PageID))
	if _, err := api.DoJSON(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return "", err
	}
	if page.AccessToken == "" {
		return "", model.NewAuthorizationError(model.PlatformFacebook,
			fmt.Sprintf("no page access token for page %s; reconnect Facebook with page permissions", creds.PageID))
	}
	return page.AccessToken, nil
}

var _ repository.IPublisher = (*Publisher)(nil)
