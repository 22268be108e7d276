package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

type TenantAdminRepository struct{ db *sql.DB }

func NewTenantAdminRepository(db *sql.DB) *TenantAdminRepository {
	return &TenantAdminRepository{db: db}
}

// GetAdmin returns the tenant's earliest admin, or nil when it has none.
func (r *TenantAdminRepository) GetAdmin(ctx context.Context, tenantID string) (*model.Recipient, error) {
	q := `SELECT user_id, email, COALESCE(name, '') FROM tenant_members
		WHERE tenant_id=$1 AND role='admin'
		ORDER BY created_at LIMIT 1`
	var rcpt model.Recipient
	err := r.db.QueryRowContext(ctx, q, tenantID).Scan(&rcpt.UserID, &rcpt.Email, &rcpt.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin for tenant %s: %w", tenantID, err)
	}
	return &rcpt, nil
}

var _ repository.ITenantAdmin = (*TenantAdminRepository)(nil)
