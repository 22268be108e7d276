package social

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-publisher/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeCaption(t *testing.T) {
	c := &model.Content{Caption: " New drop ", Hashtags: []string{"go", "#dev", " "}}
	assert.Equal(t, "New drop\n\n#go #dev", ComposeCaption(c))
	assert.Equal(t, "#go", ComposeCaption(&model.Content{Hashtags: []string{"go"}}))
	assert.Equal(t, "plain", ComposeCaption(&model.Content{Caption: "plain"}))
}

func TestChecker_CountsRunes(t *testing.T) {
	var c Checker
	c.MaxLength("Caption", "héllo🙂", 6)
	assert.True(t, c.Result().Valid)

	c.MaxLength("Caption", "héllo🙂!", 6)
	c.Require(false, "TikTok requires a video")
	res := c.Result()
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Caption exceeds 6 characters (7)", "TikTok requires a video"}, res.Errors)
}

func TestAPI_SendsBearerAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json; charset=UTF-8", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id":"42"}`))
	}))
	defer srv.Close()

	api := NewAPI(context.Background(), model.PlatformLinkedIn, "tok-1", 5*time.Second)
	var out struct {
		ID string `json:"id"`
	}
	_, err := api.DoJSON(context.Background(), http.MethodPost, srv.URL, map[string]string{"a": "b"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "42", out.ID)
}

func TestAPI_ErrorMessagesAreVerbatim(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   model.ErrorKind
		msg    string
	}{
		{"graph", 400, `{"error":{"message":"(#100) Invalid parameter","type":"OAuthException"}}`, model.ErrorKindPlatform, "(#100) Invalid parameter"},
		{"twitter", 403, `{"detail":"You are not permitted to perform this action.","title":"Forbidden"}`, model.ErrorKindPlatform, "You are not permitted to perform this action."},
		{"linkedin", 422, `{"message":"Invalid author urn","status":422}`, model.ErrorKindPlatform, "Invalid author urn"},
		{"expired token", 401, `{"error":{"message":"Session has expired"}}`, model.ErrorKindAuthorization, "Session has expired"},
		{"plain text", 502, `Bad Gateway`, model.ErrorKindPlatform, "Bad Gateway"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			api := NewAPI(context.Background(), model.PlatformFacebook, "tok", time.Second)
			_, err := api.DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil)
			var pe *model.PublishError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tc.kind, pe.Kind)
			assert.Equal(t, tc.msg, pe.Message)
			assert.Equal(t, tc.status, pe.StatusCode)
		})
	}
}

func TestPoll(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Poll(ctx, model.PlatformInstagram, time.Millisecond, 60, func(attempt int) (bool, error) {
		calls++
		return attempt == 60, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 60, calls)

	err = Poll(ctx, model.PlatformTikTok, time.Millisecond, 3, func(int) (bool, error) { return false, nil })
	var pe *model.PublishError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, model.ErrorKindTimeout, pe.Kind)
	assert.True(t, pe.Retryable())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = Poll(cancelled, model.PlatformTikTok, time.Hour, 3, func(int) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchMediaAndChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	data, ct, err := FetchMedia(context.Background(), srv.Client(), model.PlatformTwitter, srv.URL+"/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", ct)
	assert.Equal(t, [][]byte{[]byte("0123"), []byte("4567"), []byte("89")}, Chunks(data, 4))

	_, _, err = FetchMedia(context.Background(), srv.Client(), model.PlatformTwitter, srv.URL+"/missing")
	var pe *model.PublishError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusNotFound, pe.StatusCode)
}
