package model

import "time"

type RateLimitConfig struct {
	MaxRequests int           `json:"maxRequests"`
	Window      time.Duration `json:"window"`
	DailyLimit  int           `json:"dailyLimit"`
}

type RateLimitStatus struct {
	Platform        Platform      `json:"platform"`
	TenantID        string        `json:"tenant_id"`
	WindowRemaining int           `json:"window_remaining"`
	WindowResetIn   time.Duration `json:"window_reset_in"`
	DailyRemaining  int           `json:"daily_remaining"`
	DailyResetIn    time.Duration `json:"daily_reset_in"`
	IsLimited       bool          `json:"is_limited"`
}
