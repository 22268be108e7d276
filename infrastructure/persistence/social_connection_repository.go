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

const connectionColumns = `id, tenant_id, platform, account_id, account_name, page_id, access_token_encrypted, refresh_token_encrypted, token_expiry, is_active, scopes, created_at, updated_at`

type SocialConnectionRepository struct{ db *sql.DB }

func NewSocialConnectionRepository(db *sql.DB) *SocialConnectionRepository {
	return &SocialConnectionRepository{db: db}
}

func scanConnection(row rowScanner) (*model.SocialConnection, error) {
	c := &model.SocialConnection{}
	var (
		accountName, pageID, refresh sql.NullString
		expiry                       sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.TenantID, &c.Platform, &c.AccountID, &accountName, &pageID,
		&c.AccessTokenEncrypted, &refresh, &expiry, &c.IsActive, &c.Scopes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if accountName.Valid {
		v := accountName.String
		c.AccountName = &v
	}
	if pageID.Valid {
		v := pageID.String
		c.PageID = &v
	}
	if refresh.Valid {
		v := refresh.String
		c.RefreshTokenEncrypted = &v
	}
	if expiry.Valid {
		t := expiry.Time
		c.TokenExpiry = &t
	}
	return c, nil
}

func (r *SocialConnectionRepository) GetActiveConnection(ctx context.Context, tenantID string, platform model.Platform) (*model.SocialConnection, error) {
	q := `SELECT ` + connectionColumns + ` FROM social_connections
		WHERE tenant_id=$1 AND platform=$2 AND is_active
		ORDER BY created_at DESC LIMIT 1`
	c, err := scanConnection(r.db.QueryRowContext(ctx, q, tenantID, platform))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s for tenant %s: %w", platform, tenantID, model.ErrConnectionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s connection: %w", platform, err)
	}
	return c, nil
}

// Upsert reactivates an existing (tenant, platform, account) row instead of adding a second one.
func (r *SocialConnectionRepository) Upsert(ctx context.Context, c *model.SocialConnection) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.IsActive = true
	q := `INSERT INTO social_connections (tenant_id, platform, account_id, account_name, page_id, access_token_encrypted, refresh_token_encrypted, token_expiry, is_active, scopes, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,TRUE,$9,$10,$11)
		  ON CONFLICT (tenant_id, platform, account_id) DO UPDATE SET
			account_name=EXCLUDED.account_name,
			page_id=EXCLUDED.page_id,
			access_token_encrypted=EXCLUDED.access_token_encrypted,
			refresh_token_encrypted=EXCLUDED.refresh_token_encrypted,
			token_expiry=EXCLUDED.token_expiry,
			is_active=TRUE,
			scopes=EXCLUDED.scopes,
			updated_at=EXCLUDED.updated_at
		  RETURNING id`
	err := r.db.QueryRowContext(ctx, q, c.TenantID, c.Platform, c.AccountID, c.AccountName, c.PageID,
		c.AccessTokenEncrypted, c.RefreshTokenEncrypted, c.TokenExpiry, c.Scopes, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("upsert %s connection: %w", c.Platform, err)
	}
	return nil
}

func (r *SocialConnectionRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE social_connections SET is_active=FALSE, updated_at=$2 WHERE id=$1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate connection %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deactivate connection %d: %w", id, model.ErrConnectionNotFound)
	}
	return nil
}

func (r *SocialConnectionRepository) ListExpiring(ctx context.Context, before time.Time) ([]*model.SocialConnection, error) {
	q := `SELECT ` + connectionColumns + ` FROM social_connections
		WHERE is_active AND token_expiry IS NOT NULL AND token_expiry <= $1
		ORDER BY token_expiry`
	rows, err := r.db.QueryContext(ctx, q, before)
	if err != nil {
		return nil, fmt.Errorf("list expiring connections: %w", err)
	}
	return collectConnections(rows)
}

func collectConnections(rows *sql.Rows) ([]*model.SocialConnection, error) {
	defer rows.Close()
	var out []*model.SocialConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ repository.ISocialConnection = (*SocialConnectionRepository)(nil)
