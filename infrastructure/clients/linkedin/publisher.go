package linkedin

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/social"
)

const (
	DefaultBaseURL = "https://api.linkedin.com"
	DefaultVersion = "202406"
	maxCommentary  = 3000
)

type Publisher struct {
	opts    social.Options
	version string
}

func NewPublisher(opts social.Options, version string) *Publisher {
	if version == "" {
		version = DefaultVersion
	}
	return &Publisher{opts: opts.WithDefaults(DefaultBaseURL, 1), version: version}
}

func (p *Publisher) Platform() model.Platform { return model.PlatformLinkedIn }

func (p *Publisher) ValidateContent(content *model.Content) model.ValidationResult {
	var c social.Checker
	text := social.ComposeCaption(content)
	c.Require(strings.TrimSpace(text) != "" || content.HasMedia(), "LinkedIn requires text or media")
	c.MaxLength("Caption", text, maxCommentary)
	return c.Result()
}

func (p *Publisher) api(ctx context.Context, token string) *social.API {
	api := social.NewAPI(ctx, model.PlatformLinkedIn, token, p.opts.HTTPTimeout)
	api.Header = http.Header{
		"Linkedin-Version":          {p.version},
		"X-Restli-Protocol-Version": {"2.0.0"},
	}
	return api
}

// author turns an account id into a member urn unless it already is an urn
// (organization pages are stored with their full urn).
func author(accountID string) string {
	if strings.HasPrefix(accountID, "urn:li:") {
		return accountID
	}
	return "urn:li:person:" + accountID
}

type uploadInstruction struct {
	UploadURL string `json:"uploadUrl"`
	FirstByte int64  `json:"firstByte"`
	LastByte  int64  `json:"lastByte"`
}

func (p *Publisher) Publish(ctx context.Context, creds *model.Credentials, content *model.Content) (*model.PublishResponse, error) {
	api := p.api(ctx, creds.AccessToken)
	owner := author(creds.AccountID)

	post := map[string]interface{}{
		"author":     owner,
		"commentary": social.ComposeCaption(content),
		"visibility": "PUBLIC",
		"distribution": map[string]interface{}{
			"feedDistribution":               "MAIN_FEED",
			"targetEntities":                 []string{},
			"thirdPartyDistributionChannels": []string{},
		},
		"lifecycleState":            "PUBLISHED",
		"isReshareDisabledByAuthor": false,
	}

	var mediaURN string
	if content.HasMedia() {
		data, _, err := social.FetchMedia(ctx, p.opts.MediaClient, model.PlatformLinkedIn, content.MediaURL)
		if err != nil {
			return nil, err
		}
		if content.Format.IsVideo() {
			mediaURN, err = p.uploadVideo(ctx, api, owner, data)
		} else {
			mediaURN, err = p.uploadImage(ctx, api, owner, data)
		}
		if err != nil {
			return nil, err
		}
		media := map[string]interface{}{"id": mediaURN}
		if content.Title != "" {
			media["title"] = content.Title
		}
		post["content"] = map[string]interface{}{"media": media}
	}

	header, err := api.DoJSON(ctx, http.MethodPost, p.opts.BaseURL+"/rest/posts", post, nil)
	if err != nil {
		return nil, err
	}
	postURN := header.Get("X-Restli-Id")
	if postURN == "" {
		return nil, model.NewPlatformError(model.PlatformLinkedIn, 0, "LinkedIn did not return a post urn")
	}
	meta := map[string]interface{}{"author": owner}
	if mediaURN != "" {
		meta["media_urn"] = mediaURN
	}
	return &model.PublishResponse{
		PlatformPostID: postURN,
		PlatformURL:    "https://www.linkedin.com/feed/update/" + postURN,
		Metadata:       meta,
	}, nil
}

func (p *Publisher) uploadImage(ctx context.Context, api *social.API, owner string, data []byte) (string, error) {
	var init struct {
		Value struct {
			UploadURL string `json:"uploadUrl"`
			Image     string `json:"image"`
		} `json:"value"`
	}
	body := map[string]interface{}{"initializeUploadRequest": map[string]string{"owner": owner}}
	if _, err := api.DoJSON(ctx, http.MethodPost, p.opts.BaseURL+"/rest/images?action=initializeUpload", body, &init); err != nil {
		return "", err
	}
	if _, err := p.put(ctx, api, init.Value.UploadURL, data); err != nil {
		return "", err
	}
	return init.Value.Image, nil
}

// uploadVideo follows the upload instructions byte range by byte range and
// finalizes with the collected ETags.
func (p *Publisher) uploadVideo(ctx context.Context, api *social.API, owner string, data []byte) (string, error) {
	var init struct {
		Value struct {
			Video              string              `json:"video"`
			UploadToken        string              `json:"uploadToken"`
			UploadInstructions []uploadInstruction `json:"uploadInstructions"`
		} `json:"value"`
	}
	body := map[string]interface{}{"initializeUploadRequest": map[string]interface{}{
		"owner":           owner,
		"fileSizeBytes":   len(data),
		"uploadCaptions":  false,
		"uploadThumbnail": false,
	}}
	if _, err := api.DoJSON(ctx, http.MethodPost, p.opts.BaseURL+"/rest/videos?action=initializeUpload", body, &init); err != nil {
		return "", err
	}

	etags := make([]string, 0, len(init.Value.UploadInstructions))
	for _, in := range init.Value.UploadInstructions {
		if in.FirstByte < 0 || in.LastByte >= int64(len(data)) || in.FirstByte > in.LastByte {
			return "", model.NewPlatformError(model.PlatformLinkedIn, 0,
				fmt.Sprintf("LinkedIn upload instruction out of range: %d-%d of %d bytes", in.FirstByte, in.LastByte, len(data)))
		}
		header, err := p.put(ctx, api, in.UploadURL, data[in.FirstByte:in.LastByte+1])
		if err != nil {
			return "", err
		}
		etags = append(etags, header.Get("ETag"))
	}

	finalize := map[string]interface{}{"finalizeUploadRequest": map[string]interface{}{
		"video":           init.Value.Video,
		"uploadToken":     init.Value.UploadToken,
		"uploadedPartIds": etags,
	}}
	if _, err := api.DoJSON(ctx, http.MethodPost, p.opts.BaseURL+"/rest/videos?action=finalizeUpload", finalize, nil); err != nil {
		return "", err
	}
	return init.Value.Video, nil
}

func (p *Publisher) put(ctx context.Context, api *social.API, uploadURL string, data []byte) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	return api.Do(req, nil)
}

var _ repository.IPublisher = (*Publisher)(nil)
