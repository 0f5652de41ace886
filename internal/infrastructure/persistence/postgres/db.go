// Package postgres implements the persistence interfaces on PostgreSQL
// through GORM. The database is the single synchronization point for
// concurrent score mutations and review transitions.
package postgres

import (
	"context"
	"time"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sentrasec/sentra/internal/config"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// DBConnection manages the GORM database handle lifecycle.
type DBConnection struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewDBConnection opens the PostgreSQL connection pool, applies pool
// settings from configuration and runs schema migrations.
func NewDBConnection(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*DBConnection, error) {
	if cfg == nil {
		return nil, errors.ErrInvalidRequest("database configuration is required")
	}

	log.Info(ctx, "Connecting to PostgreSQL",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
		logger.String("database", cfg.Database),
	)

	db, err := gorm.Open(gormpostgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.ErrPersistence("connect", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.ErrPersistence("connect", err)
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info(ctx, "PostgreSQL connection established")
	return &DBConnection{db: db, logger: log}, nil
}

// DB exposes the underlying GORM handle for repository construction.
func (c *DBConnection) DB() *gorm.DB {
	return c.db
}

// HealthCheck verifies database connectivity for readiness probes.
func (c *DBConnection) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return errors.ErrPersistence("health check", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.ErrPersistence("health check", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *DBConnection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&profileDBM{},
		&scoreHistoryDBM{},
		&activityDBM{},
		&threatDBM{},
		&notificationDBM{},
		&predictionDBM{},
	); err != nil {
		return errors.ErrPersistence("migrate", err)
	}
	return nil
}
