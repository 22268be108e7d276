package repository

import (
	"context"
	"time"

	"social-publisher/domain/model"
)

type ISocialConnection interface {
	// GetActiveConnection returns the newest active connection or model.ErrConnectionNotFound.
	GetActiveConnection(ctx context.Context, tenantID string, platform model.Platform) (*model.SocialConnection, error)
	Upsert(ctx context.Context, conn *model.SocialConnection) error
	Deactivate(ctx context.Context, id int64) error
	// ListExpiring returns active connections whose token expires at or before the given instant.
	ListExpiring(ctx context.Context, before time.Time) ([]*model.SocialConnection, error)
}
