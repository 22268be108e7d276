package model

import "time"

type NotificationKind string

const (
	NotificationConnectionExpiring NotificationKind = "connection_expiring"
	NotificationConnectionExpired  NotificationKind = "connection_expired"
)

type Recipient struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}

type Notification struct {
	Kind      NotificationKind       `json:"kind"`
	TenantID  string                 `json:"tenant_id"`
	Recipient *Recipient             `json:"recipient,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}
