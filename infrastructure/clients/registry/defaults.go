package registry

import (
	"net/http"
	"time"

	"social-publisher/infrastructure/clients/facebook"
	"social-publisher/infrastructure/clients/instagram"
	"social-publisher/infrastructure/clients/linkedin"
	"social-publisher/infrastructure/clients/pinterest"
	"social-publisher/infrastructure/clients/social"
	"social-publisher/infrastructure/clients/tiktok"
	"social-publisher/infrastructure/clients/twitter"
	"social-publisher/infrastructure/clients/youtube"
)

// Endpoints carries the per-platform settings read from configuration.
type Endpoints struct {
	TikTokBaseURL     string
	GraphBaseURL      string
	YouTubeUploadURL  string
	TwitterAPIURL     string
	TwitterUploadURL  string
	LinkedInBaseURL   string
	LinkedInVersion   string
	PinterestBaseURL  string
	PollInterval      time.Duration
	HTTPTimeout       time.Duration
	TikTokPrivacy     string
	YouTubePrivacy    string
	YouTubeCategoryID string
	MediaClient       *http.Client
}

// NewDefaultRegistry registers a publisher for every supported platform.
func NewDefaultRegistry(e Endpoints) *Registry {
	opts := func(base string) social.Options {
		return social.Options{
			BaseURL:      base,
			PollInterval: e.PollInterval,
			HTTPTimeout:  e.HTTPTimeout,
			MediaClient:  e.MediaClient,
		}
	}
	yt := youtube.Config{Privacy: e.YouTubePrivacy, CategoryID: e.YouTubeCategoryID}

	return NewRegistry(
		tiktok.NewPublisher(opts(e.TikTokBaseURL), e.TikTokPrivacy),
		instagram.NewPublisher(opts(e.GraphBaseURL)),
		youtube.NewPublisher(opts(e.YouTubeUploadURL), yt),
		youtube.NewShortsPublisher(opts(e.YouTubeUploadURL), yt),
		facebook.NewPublisher(opts(e.GraphBaseURL)),
		twitter.NewPublisher(opts(e.TwitterAPIURL), twitter.Config{UploadURL: e.TwitterUploadURL}),
		linkedin.NewPublisher(opts(e.LinkedInBaseURL), e.LinkedInVersion),
		pinterest.NewPublisher(opts(e.PinterestBaseURL)),
	)
}
