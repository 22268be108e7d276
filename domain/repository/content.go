package repository

import (
	"context"
	"time"

	"social-publisher/domain/model"
)

type IContent interface {
	GetContent(ctx context.Context, id string) (*model.Content, error)
	SetPublished(ctx context.Context, id string, publishedAt time.Time) error
}
