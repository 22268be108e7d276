package repository

import (
	"context"

	"social-publisher/domain/model"
)

type IPublishResult interface {
	Create(ctx context.Context, result *model.PublishResult) error
	GetByPostJobID(ctx context.Context, postJobID string) (*model.PublishResult, error)
}
