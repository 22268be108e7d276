package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSocialConnectionSchemaMSSQL creates the social_connections table for SQL Server if it does not exist.
func EnsureSocialConnectionSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.social_connections') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[social_connections] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        tenant_id NVARCHAR(128) NOT NULL,
        platform NVARCHAR(32) NOT NULL,
        account_id NVARCHAR(255) NOT NULL,
        account_name NVARCHAR(255) NULL,
        page_id NVARCHAR(255) NULL,
        access_token_encrypted NVARCHAR(MAX) NOT NULL,
        refresh_token_encrypted NVARCHAR(MAX) NULL,
        token_expiry DATETIME2 NULL,
        is_active BIT NOT NULL DEFAULT 1,
        scopes NVARCHAR(MAX) NOT NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_social_connections_account ON dbo.[social_connections](tenant_id, platform, account_id);
END`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create social_connections (mssql): %w", err)
	}

	addIfMissing := func(table, column, ddl string) error {
		q := fmt.Sprintf(`IF COL_LENGTH('%s', '%s') IS NULL BEGIN %s END`, table, column, ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure column %s.%s: %w", table, column, err)
		}
		return nil
	}
	return addIfMissing("dbo.social_connections", "page_id", "ALTER TABLE dbo.[social_connections] ADD page_id NVARCHAR(255) NULL")
}
