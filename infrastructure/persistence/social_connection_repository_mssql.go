package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

type SocialConnectionRepositoryMSSQL struct{ db *sql.DB }

func NewSocialConnectionRepositoryMSSQL(db *sql.DB) *SocialConnectionRepositoryMSSQL {
	return &SocialConnectionRepositoryMSSQL{db: db}
}

func (r *SocialConnectionRepositoryMSSQL) GetActiveConnection(ctx context.Context, tenantID string, platform model.Platform) (*model.SocialConnection, error) {
	q := `SELECT TOP 1 ` + connectionColumns + ` FROM dbo.[social_connections]
WHERE tenant_id=@p1 AND platform=@p2 AND is_active=1
ORDER BY created_at DESC`
	c, err := scanConnection(r.db.QueryRowContext(ctx, q, tenantID, string(platform)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s for tenant %s: %w", platform, tenantID, model.ErrConnectionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s connection (mssql): %w", platform, err)
	}
	return c, nil
}

func (r *SocialConnectionRepositoryMSSQL) Upsert(ctx context.Context, c *model.SocialConnection) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.IsActive = true

	// the driver needs typed nulls for optional columns
	var accountName, pageID, refresh sql.NullString
	if c.AccountName != nil {
		accountName = sql.NullString{String: *c.AccountName, Valid: true}
	}
	if c.PageID != nil {
		pageID = sql.NullString{String: *c.PageID, Valid: true}
	}
	if c.RefreshTokenEncrypted != nil {
		refresh = sql.NullString{String: *c.RefreshTokenEncrypted, Valid: true}
	}
	var expiry sql.NullTime
	if c.TokenExpiry != nil {
		expiry = sql.NullTime{Time: *c.TokenExpiry, Valid: true}
	}

	q := `MERGE dbo.[social_connections] AS target
USING (VALUES (@p1, @p2, @p3)) AS src(tenant_id, platform, account_id)
ON target.tenant_id = src.tenant_id AND target.platform = src.platform AND target.account_id = src.account_id
WHEN MATCHED THEN UPDATE SET
    account_name=@p4,
    page_id=@p5,
    access_token_encrypted=@p6,
    refresh_token_encrypted=@p7,
    token_expiry=@p8,
    is_active=1,
    scopes=@p9,
    updated_at=@p11
WHEN NOT MATCHED THEN
    INSERT (tenant_id, platform, account_id, account_name, page_id, access_token_encrypted, refresh_token_encrypted, token_expiry, is_active, scopes, created_at, updated_at)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,1,@p9,@p10,@p11)
OUTPUT inserted.id;`
	err := r.db.QueryRowContext(ctx, q, c.TenantID, string(c.Platform), c.AccountID, accountName, pageID,
		c.AccessTokenEncrypted, refresh, expiry, c.Scopes, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("upsert %s connection (mssql): %w", c.Platform, err)
	}
	return nil
}

func (r *SocialConnectionRepositoryMSSQL) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[social_connections] SET is_active=0, updated_at=@p2 WHERE id=@p1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate connection %d (mssql): %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deactivate connection %d: %w", id, model.ErrConnectionNotFound)
	}
	return nil
}

func (r *SocialConnectionRepositoryMSSQL) ListExpiring(ctx context.Context, before time.Time) ([]*model.SocialConnection, error) {
	q := `SELECT ` + connectionColumns + ` FROM dbo.[social_connections]
WHERE is_active=1 AND token_expiry IS NOT NULL AND token_expiry <= @p1
ORDER BY token_expiry`
	rows, err := r.db.QueryContext(ctx, q, before)
	if err != nil {
		return nil, fmt.Errorf("list expiring connections (mssql): %w", err)
	}
	return collectConnections(rows)
}

var _ repository.ISocialConnection = (*SocialConnectionRepositoryMSSQL)(nil)
