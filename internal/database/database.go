package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sport-sections-api/internal/models"
)

const sqliteScheme = "sqlite://"

// Connect opens the relational store. DSNs prefixed with sqlite:// use the embedded
// SQLite driver, anything else is handed to PostgreSQL.
func Connect(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database dsn must not be empty")
	}

	if strings.HasPrefix(dsn, sqliteScheme) {
		return ConnectSQLite(strings.TrimPrefix(dsn, sqliteScheme))
	}

	return ConnectPostgres(dsn)
}

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// ConnectSQLite opens a SQLite database file (or in-memory database) with foreign keys on.
func ConnectSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path must not be empty")
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	db, err := gorm.Open(sqlite.Open(path+separator+"_foreign_keys=on"), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	return db, nil
}

// gormConfig turns driver errors into gorm sentinels such as gorm.ErrDuplicatedKey.
func gormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Section{},
		&models.Application{},
		&models.Priority{},
		&models.ActivityLog{},
	)
}
