package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shashiranjanraj/vendo/config"
)

// Connect opens the configured database (DB_DRIVER / DATABASE_DSN).
// Returns an error instead of calling log.Fatal so the caller can
// shut down gracefully.
func Connect() (*gorm.DB, error) {
	return Open(config.DatabaseDriver(), config.DatabaseDSN())
}

// Open opens driver/dsn and configures the connection pool.
func Open(driver, dsn string) (*gorm.DB, error) {
	dialector, err := buildDialector(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: build dialector: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent), // use pkg/logger, not GORM's own
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: get sql.DB: %w", err)
	}

	if driver == "sqlite" {
		// SQLite has a single writer; one connection avoids SQLITE_BUSY
		// under concurrent purchases and keeps :memory: databases shared.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(2 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	return db, nil
}

func buildDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres, mysql, sqlserver)", driver)
	}
}
