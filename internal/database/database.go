// Package database opens the gorm connection used by the gorepo CLI.
package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Alp4ka/gorepo/gormprom"
	"github.com/Alp4ka/gorepo/gormzerolog"
	"github.com/Alp4ka/gorepo/internal/config"
)

// Dialector returns the gorm dialector for the configured driver.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open connects to the database, logs statements through logger and, when
// metrics is not nil, records statement metrics.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger, metrics *gormprom.Metrics) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	return open(ctx, dialector, cfg, logger, metrics)
}

// open closes the pool again when any step after gorm.Open fails.
func open(ctx context.Context, dialector gorm.Dialector, cfg config.DatabaseConfig, logger zerolog.Logger, metrics *gormprom.Metrics) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormzerolog.New(logger, gormzerolog.Config{SlowThreshold: cfg.SlowThreshold}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if metrics != nil {
		if err = gormprom.Instrument(db, metrics); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Debug().
		Str("driver", cfg.Driver).
		Msg("database connection established")

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
