package repository

import (
	"context"

	"social-publisher/domain/model"
)

// INotifier delivers notifications. Delivery failures are logged by the
// implementation and never returned to the caller.
type INotifier interface {
	Notify(ctx context.Context, notification model.Notification)
}

type ITenantAdmin interface {
	GetAdmin(ctx context.Context, tenantID string) (*model.Recipient, error)
}
