package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-publisher/domain/model"

	"golang.org/x/oauth2"
)

// API wraps an HTTP client bound to one platform. Non-2xx responses come back
// as *model.PublishError carrying the platform's own message.
type API struct {
	Platform model.Platform
	Client   *http.Client
	Header   http.Header
}

// NewBearerClient returns a client that sends the access token as a bearer header.
func NewBearerClient(ctx context.Context, accessToken string, timeout time.Duration) *http.Client {
	base := &http.Client{Timeout: timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	client.Timeout = timeout
	return client
}

func NewAPI(ctx context.Context, platform model.Platform, accessToken string, timeout time.Duration) *API {
	return &API{Platform: platform, Client: NewBearerClient(ctx, accessToken, timeout)}
}

// NewUploadAPI is NewAPI without an overall client timeout. Streamed uploads
// take as long as the file needs; the request context bounds them.
func NewUploadAPI(ctx context.Context, platform model.Platform, accessToken string) *API {
	return NewAPI(ctx, platform, accessToken, 0)
}

// Untimed returns a copy of c with no overall timeout, for response bodies
// that are streamed into an upload.
func Untimed(c *http.Client) *http.Client {
	if c == nil {
		return &http.Client{}
	}
	cp := *c
	cp.Timeout = 0
	return &cp
}

// DoJSON sends body as JSON (when non-nil) and decodes the response into out (when non-nil).
func (a *API) DoJSON(ctx context.Context, method, rawURL string, body, out interface{}) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", a.Platform, err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	return a.Do(req, out)
}

// PostForm sends an urlencoded form.
func (a *API) PostForm(ctx context.Context, rawURL string, form url.Values, out interface{}) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.Do(req, out)
}

func (a *API) Do(req *http.Request, out interface{}) (http.Header, error) {
	for k, vs := range a.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, model.AsPublishError(a.Platform, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Header, model.AsPublishError(a.Platform, fmt.Errorf("read %s response: %w", a.Platform, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Header, StatusError(a.Platform, resp.StatusCode, raw)
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.Header, model.NewPlatformError(a.Platform, resp.StatusCode,
				fmt.Sprintf("unexpected %s response: %s", a.Platform, truncate(string(raw), 300)))
		}
	}
	return resp.Header, nil
}

// StatusError turns a failed response into a PublishError. 401 means the stored
// token is no longer accepted and the connection has to be re-authorized.
func StatusError(platform model.Platform, status int, body []byte) *model.PublishError {
	msg := ExtractMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("%s returned HTTP %d", platform, status)
	}
	if status == http.StatusUnauthorized {
		pe := model.NewAuthorizationError(platform, msg)
		pe.StatusCode = status
		return pe
	}
	return model.NewPlatformError(platform, status, msg)
}

// ExtractMessage pulls a human readable message out of the error envelopes
// used by the supported platforms.
func ExtractMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
		// Twitter v2 / LinkedIn / Pinterest
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Title   string `json:"title"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return truncate(strings.TrimSpace(string(body)), 300)
	}
	if len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var plain string
		if json.Unmarshal(envelope.Error, &plain) == nil && plain != "" {
			return plain
		}
	}
	switch {
	case envelope.Detail != "":
		return envelope.Detail
	case envelope.Message != "":
		return envelope.Message
	case len(envelope.Errors) > 0 && envelope.Errors[0].Message != "":
		return envelope.Errors[0].Message
	case envelope.Title != "":
		return envelope.Title
	}
	return truncate(strings.TrimSpace(string(body)), 300)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
