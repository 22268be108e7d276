package social

import (
	"net/http"
	"time"
)

// Options configures a platform publisher's endpoints and polling budget.
type Options struct {
	BaseURL      string
	PollInterval time.Duration
	MaxPolls     int
	HTTPTimeout  time.Duration
	// MediaClient downloads source media. It never carries platform tokens.
	MediaClient *http.Client
}

// WithDefaults fills unset fields; polling defaults to every 5s.
func (o Options) WithDefaults(baseURL string, maxPolls int) Options {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.MaxPolls <= 0 {
		o.MaxPolls = maxPolls
	}
	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = 2 * time.Minute
	}
	if o.MediaClient == nil {
		o.MediaClient = &http.Client{Timeout: 10 * time.Minute}
	}
	return o
}
