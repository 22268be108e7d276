package persistence

import (
	"context"
	"errors"
	"fmt"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PublishResultRepository struct{ db *gorm.DB }

func NewPublishResultRepository(db *gorm.DB) *PublishResultRepository {
	return &PublishResultRepository{db: db}
}

// EnsurePublishResultSchema migrates the publish_results table on whichever store backs it.
func EnsurePublishResultSchema(db *gorm.DB) error {
	return db.AutoMigrate(&model.PublishResult{})
}

func (r *PublishResultRepository) Create(ctx context.Context, result *model.PublishResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("insert publish result for job %s: %w", result.PostJobID, err)
	}
	return nil
}

// GetByPostJobID returns nil without error when the job has not published yet.
func (r *PublishResultRepository) GetByPostJobID(ctx context.Context, postJobID string) (*model.PublishResult, error) {
	var result model.PublishResult
	err := r.db.WithContext(ctx).Where("post_job_id = ?", postJobID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get publish result for job %s: %w", postJobID, err)
	}
	return &result, nil
}

var _ repository.IPublishResult = (*PublishResultRepository)(nil)
