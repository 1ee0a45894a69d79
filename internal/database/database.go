package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/entities"
)

type Database struct {
	DB     *gorm.DB
	Driver string
}

// Models lists every table owned by the service, in migration order.
var Models = []any{
	&entities.Author{},
	&entities.Category{},
	&entities.Book{},
	&entities.User{},
	&entities.BorrowRecord{},
	&entities.BookAuthor{},
	&entities.BookCategory{},
	&entities.Staff{},
	&entities.AuditEvent{},
}

// NewDatabase opens the configured store and migrates the schema.
func NewDatabase(cfg config.Database) (*Database, error) {
	dialector, driver, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db, Driver: driver}
	if err := database.Migrate(); err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", driver)

	return database, nil
}

// NewSQLite is a shorthand for a sqlite store at path with a silent gorm logger.
func NewSQLite(path string) (*Database, error) {
	return NewDatabase(config.Database{Driver: config.DriverSQLite, Path: path, LogLevel: "silent"})
}

// Migrate creates or updates all tables.
func (d *Database) Migrate() error {
	if err := d.DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping checks connectivity of the underlying pool.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(cfg config.Database) (gorm.Dialector, string, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", config.DriverSQLite, "sqlite3":
		if cfg.Path == "" {
			return nil, "", fmt.Errorf("database path is required for sqlite")
		}
		// Foreign keys stay off: reference checks are done explicitly inside transactions.
		return sqlite.Open(withBusyTimeout(cfg.Path)), config.DriverSQLite, nil
	case config.DriverPostgres, "postgresql", "pgx":
		if cfg.URL == "" {
			return nil, "", fmt.Errorf("DATABASE_URL is required for postgres")
		}
		return postgres.Open(cfg.URL), config.DriverPostgres, nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

func withBusyTimeout(path string) string {
	if strings.Contains(path, "_busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}
