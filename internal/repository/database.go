// Package repository provides data access layer using GORM for database operations.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aimd54/arcade-hub/internal/config"
	"github.com/aimd54/arcade-hub/internal/models"
	apperrors "github.com/aimd54/arcade-hub/internal/pkg/errors"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

// DB holds the database connection.
type DB struct {
	*gorm.DB
}

// NewDB creates a new database connection for the configured driver.
func NewDB(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		return NewPostgresDB(&cfg.Postgres, log)
	case "sqlite":
		return OpenSQLite(cfg.SQLite.Path, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewPostgresDB connects to PostgreSQL.
func NewPostgresDB(cfg *config.PostgresConfig, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("Connected to PostgreSQL")

	return &DB{db}, nil
}

// OpenSQLite opens an embedded SQLite database. Path ":memory:" gives a
// private in-memory database.
//
// The pool is pinned to one connection: SQLite allows a single writer, and an
// in-memory database exists only on the connection that created it.
func OpenSQLite(path string, log *logger.Logger) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}

	log.Info().Str("path", path).Msg("Opened SQLite database")

	return &DB{db}, nil
}

func gormConfig(log *logger.Logger) *gorm.Config {
	var gormLogLevel gormlogger.LogLevel
	switch log.GetLogger().GetLevel() {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		gormLogLevel = gormlogger.Info
	case zerolog.Disabled:
		gormLogLevel = gormlogger.Silent
	default:
		gormLogLevel = gormlogger.Warn
	}

	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	}
}

// AutoMigrate runs database migrations for all models.
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(models.All()...)
}

// Close closes the database connection.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database is healthy.
func (db *DB) Health() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// ScoresLockKey serializes score submissions to game. Writers of a game's
// stats row take StatsLockKey last, after their own key, so two writers
// never wait on each other in opposite order.
func ScoresLockKey(game string) string { return "scores:" + game }

// StatsLockKey serializes every recount of a game's stats row.
func StatsLockKey(game string) string { return "stats:" + game }

// InteractionLockKey serializes toggles of one (kind, user, game) relation.
func InteractionLockKey(kind InteractionKind, user, game string) string {
	return fmt.Sprintf("%s:%s:%s", kind, user, game)
}

// locked runs fn inside one transaction that holds the write lock named by key.
// PostgreSQL takes a transaction-scoped advisory lock; SQLite already
// serializes writers through its single connection.
func (db *DB) locked(ctx context.Context, key string, fn func(tx *DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked := &DB{tx}
		if err := locked.advisoryLock(key); err != nil {
			return err
		}
		return fn(locked)
	})
}

// advisoryLock takes key for the rest of the current transaction.
func (db *DB) advisoryLock(key string) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
		return storageError("acquire lock "+key, err)
	}
	return nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, apperrors.ErrStorage, err)
}
