package configuration

import (
	"time"

	"social-publisher/domain/model"
)

// DefaultRateLimits are the per-platform budgets used when the config file does not override them.
var DefaultRateLimits = map[model.Platform]model.RateLimitConfig{
	model.PlatformTikTok:        {MaxRequests: 20, Window: time.Hour, DailyLimit: 1000},
	model.PlatformInstagram:     {MaxRequests: 25, Window: time.Hour, DailyLimit: 200},
	model.PlatformYouTube:       {MaxRequests: 10000, Window: 24 * time.Hour, DailyLimit: 10000},
	model.PlatformYouTubeShorts: {MaxRequests: 10000, Window: 24 * time.Hour, DailyLimit: 10000},
	model.PlatformFacebook:      {MaxRequests: 200, Window: time.Hour, DailyLimit: 4800},
	model.PlatformTwitter:       {MaxRequests: 300, Window: 3 * time.Hour, DailyLimit: 2400},
	model.PlatformLinkedIn:      {MaxRequests: 100, Window: time.Hour, DailyLimit: 1000},
	model.PlatformPinterest:     {MaxRequests: 1000, Window: time.Hour, DailyLimit: 10000},
}

func applyDefaults(C *Config) {
	q := &C.Queue
	if q.Driver == "" {
		q.Driver = "redis"
	}
	if q.Prefix == "" {
		q.Prefix = "publish"
	}
	if q.BackoffBase <= 0 {
		q.BackoffBase = 60 * time.Second
	}
	if q.CompletedRetention <= 0 {
		q.CompletedRetention = time.Hour
	}
	if q.FailedRetention <= 0 {
		q.FailedRetention = 7 * 24 * time.Hour
	}

	w := &C.Worker
	if w.Concurrency <= 0 {
		w.Concurrency = 5
	}
	if w.JobsPerMinute <= 0 {
		w.JobsPerMinute = 30
	}
	if w.PollInterval <= 0 {
		w.PollInterval = time.Second
	}
	if w.ShutdownGrace <= 0 {
		w.ShutdownGrace = 30 * time.Second
	}

	s := &C.Scheduler
	if s.PromotionInterval <= 0 {
		s.PromotionInterval = time.Minute
	}
	if s.Lookahead <= 0 {
		s.Lookahead = 5 * time.Minute
	}
	if s.PromotionBatch <= 0 {
		s.PromotionBatch = 500
	}
	if s.CleanupInterval <= 0 {
		s.CleanupInterval = 24 * time.Hour
	}
	if s.CompletedTTL <= 0 {
		s.CompletedTTL = 30 * 24 * time.Hour
	}
	if s.CancelledTTL <= 0 {
		s.CancelledTTL = 7 * 24 * time.Hour
	}
	if s.ExpiryInterval <= 0 {
		s.ExpiryInterval = time.Hour
	}
	if s.ExpiryWarning <= 0 {
		s.ExpiryWarning = 24 * time.Hour
	}
	if s.RecoveryInterval <= 0 {
		s.RecoveryInterval = 5 * time.Minute
	}
	if s.StaleAfter <= 0 {
		s.StaleAfter = 20 * time.Minute
	}

	p := &C.Platforms
	if p.TikTokBaseURL == "" {
		p.TikTokBaseURL = "https://open.tiktokapis.com"
	}
	if p.GraphBaseURL == "" {
		p.GraphBaseURL = "https://graph.facebook.com/v19.0"
	}
	if p.YouTubeUploadURL == "" {
		p.YouTubeUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos"
	}
	if p.TwitterAPIURL == "" {
		p.TwitterAPIURL = "https://api.twitter.com"
	}
	if p.TwitterUploadURL == "" {
		p.TwitterUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	}
	if p.LinkedInBaseURL == "" {
		p.LinkedInBaseURL = "https://api.linkedin.com"
	}
	if p.LinkedInVersion == "" {
		p.LinkedInVersion = "202406"
	}
	if p.PinterestBaseURL == "" {
		p.PinterestBaseURL = "https://api.pinterest.com"
	}
	if p.PollInterval <= 0 {
		p.PollInterval = 5 * time.Second
	}
	if p.HTTPTimeout <= 0 {
		p.HTTPTimeout = 2 * time.Minute
	}
	if p.TikTokPrivacy == "" {
		p.TikTokPrivacy = "PUBLIC_TO_EVERYONE"
	}
	if p.YouTubePrivacy == "" {
		p.YouTubePrivacy = "public"
	}
	if p.YouTubeCategoryID == "" {
		p.YouTubeCategoryID = "22"
	}

	if C.Notification.Driver == "" {
		C.Notification.Driver = "log"
	}
	if C.Pubsub.TopicID == "" {
		C.Pubsub.TopicID = "social-notifications"
	}
	if C.ServiceBus.QueueName == "" {
		C.ServiceBus.QueueName = "social-notifications"
	}
	if C.Content.Store == "" {
		C.Content.Store = "postgres"
	}
	if C.Content.Mongo.Database == "" {
		C.Content.Mongo.Database = "social_publisher"
	}
	if C.Content.Mongo.Collection == "" {
		C.Content.Mongo.Collection = "contents"
	}
}

// RateLimitConfigs merges configured overrides onto DefaultRateLimits.
func RateLimitConfigs(C *Config) map[model.Platform]model.RateLimitConfig {
	out := make(map[model.Platform]model.RateLimitConfig, len(DefaultRateLimits))
	for p, cfg := range DefaultRateLimits {
		out[p] = cfg
	}
	for name, override := range C.RateLimits {
		p, ok := model.ParsePlatform(name)
		if !ok {
			continue
		}
		cfg := out[p]
		if override.MaxRequests > 0 {
			cfg.MaxRequests = override.MaxRequests
		}
		if override.Window > 0 {
			cfg.Window = override.Window
		}
		if override.DailyLimit > 0 {
			cfg.DailyLimit = override.DailyLimit
		}
		out[p] = cfg
	}
	return out
}
