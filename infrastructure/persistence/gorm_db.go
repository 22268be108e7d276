package persistence

import (
	"database/sql"
	"fmt"

	"social-publisher/infrastructure/configuration"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MySQLDSN formats go-sql-driver style DSNs for the mysql result store.
func MySQLDSN(cfg configuration.Db) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// NewResultStoreDB opens the gorm handle behind the publish result repository.
// The postgres store shares the primary connection pool.
func NewResultStoreDB(store string, psql *sql.DB) (*gorm.DB, error) {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
	}
	switch store {
	case "", "postgres":
		if psql == nil {
			return nil, fmt.Errorf("postgres result store requires a database connection")
		}
		return gorm.Open(postgres.New(postgres.Config{Conn: psql}), cfg)
	case "mysql":
		return gorm.Open(mysql.Open(MySQLDSN(configuration.C.Database.Mysql)), cfg)
	default:
		return nil, fmt.Errorf("unknown result store %q", store)
	}
}
