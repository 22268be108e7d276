package persistence

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"social-publisher/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentRepository_GetContent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewContentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM contents WHERE id=$1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "caption", "title", "script", "media_url",
			"format", "thumbnail_url", "hashtags", "status", "published_at"}).
			AddRow("c1", "t1", "Launch day", "Launch", nil, "https://cdn.example.com/v.mp4",
				"SHORT_VIDEO", nil, "{launch,golang}", "SCHEDULED", nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM contents WHERE id=$1")).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	c, err := repo.GetContent(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, model.FormatShortVideo, c.Format)
	assert.Equal(t, []string{"launch", "golang"}, c.Hashtags)
	assert.Empty(t, c.Script)
	assert.Nil(t, c.PublishedAt)

	_, err = repo.GetContent(context.Background(), "gone")
	assert.ErrorIs(t, err, model.ErrContentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_SetPublished(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewContentRepository(db)
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE contents SET status=$2, published_at=$3 WHERE id=$1")).
		WithArgs("c1", model.ContentStatusPublished, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contents")).
		WithArgs("gone", model.ContentStatusPublished, at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetPublished(context.Background(), "c1", at))
	assert.ErrorIs(t, repo.SetPublished(context.Background(), "gone", at), model.ErrContentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantAdminRepository_GetAdmin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTenantAdminRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tenant_members")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "email", "name"}).AddRow("u1", "ops@example.com", "Ops"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tenant_members")).
		WithArgs("t2").
		WillReturnError(sql.ErrNoRows)

	admin, err := repo.GetAdmin(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, &model.Recipient{UserID: "u1", Email: "ops@example.com", Name: "Ops"}, admin)

	admin, err = repo.GetAdmin(context.Background(), "t2")
	require.NoError(t, err)
	assert.Nil(t, admin)
	assert.NoError(t, mock.ExpectationsWereMet())
}
