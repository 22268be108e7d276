package model

import "time"

// SocialConnection stores an encrypted credential set for one platform account.
type SocialConnection struct {
	ID                    int64      `json:"id"`
	TenantID              string     `json:"tenant_id"`
	Platform              Platform   `json:"platform"`
	AccountID             string     `json:"account_id"`
	AccountName           *string    `json:"account_name,omitempty"`
	PageID                *string    `json:"page_id,omitempty"` // facebook page or pinterest board
	AccessTokenEncrypted  string     `json:"-"`
	RefreshTokenEncrypted *string    `json:"-"`
	TokenExpiry           *time.Time `json:"token_expiry,omitempty"`
	IsActive              bool       `json:"is_active"`
	Scopes                string     `json:"scopes"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// IsExpired is true when the token expiry is set and not after now.
func (c *SocialConnection) IsExpired(now time.Time) bool {
	return c.TokenExpiry != nil && !c.TokenExpiry.After(now)
}

// ExpiresWithin is true when the token expires before now+window.
func (c *SocialConnection) ExpiresWithin(now time.Time, window time.Duration) bool {
	return c.TokenExpiry != nil && !c.TokenExpiry.After(now.Add(window))
}

// Credentials are the decrypted tokens handed to a publisher. Never persisted.
type Credentials struct {
	Platform     Platform
	AccountID    string
	PageID       string
	AccessToken  string
	RefreshToken string
}
