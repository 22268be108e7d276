package repository

import (
	"context"

	"social-publisher/domain/model"
)

type IPublisher interface {
	Platform() model.Platform
	ValidateContent(content *model.Content) model.ValidationResult
	Publish(ctx context.Context, creds *model.Credentials, content *model.Content) (*model.PublishResponse, error)
}

type IPublisherRegistry interface {
	// Lookup fails with model.ErrUnsupportedPlatform when nothing is registered for platform.
	Lookup(platform model.Platform) (IPublisher, error)
	Platforms() []model.Platform
}
