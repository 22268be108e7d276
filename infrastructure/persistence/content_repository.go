package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"github.com/lib/pq"
)

type ContentRepository struct{ db *sql.DB }

func NewContentRepository(db *sql.DB) *ContentRepository { return &ContentRepository{db: db} }

func (r *ContentRepository) GetContent(ctx context.Context, id string) (*model.Content, error) {
	q := `SELECT id, tenant_id, caption, title, script, media_url, format, thumbnail_url, hashtags, status, published_at
		FROM contents WHERE id=$1`
	c := &model.Content{}
	var (
		title, script, mediaURL, thumb sql.NullString
		publishedAt                    sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.TenantID, &c.Caption, &title, &script, &mediaURL,
		&c.Format, &thumb, pq.Array(&c.Hashtags), &c.Status, &publishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("content %s: %w", id, model.ErrContentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get content %s: %w", id, err)
	}
	c.Title, c.Script, c.MediaURL, c.ThumbnailURL = title.String, script.String, mediaURL.String, thumb.String
	if publishedAt.Valid {
		t := publishedAt.Time
		c.PublishedAt = &t
	}
	return c, nil
}

func (r *ContentRepository) SetPublished(ctx context.Context, id string, publishedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE contents SET status=$2, published_at=$3 WHERE id=$1`, id, model.ContentStatusPublished, publishedAt)
	if err != nil {
		return fmt.Errorf("mark content %s published: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("content %s: %w", id, model.ErrContentNotFound)
	}
	return nil
}

var _ repository.IContent = (*ContentRepository)(nil)
