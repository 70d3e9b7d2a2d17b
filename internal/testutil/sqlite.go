// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/sport-sections-api/internal/database"
	"github.com/noah-isme/sport-sections-api/internal/models"
)

// NewSQLite returns a migrated, isolated in-memory database. A single connection keeps
// transactions from tripping over SQLite's shared-cache table locks.
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.ConnectSQLite(dsn)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user whose password is "secret123".
func CreateUser(t testing.TB, db *gorm.DB, email string, moderator bool) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{Email: email, PasswordHash: string(hash), IsStaff: moderator}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// CreateSection inserts an active section with the given title.
func CreateSection(t testing.TB, db *gorm.DB, title string) models.Section {
	t.Helper()

	section := models.Section{
		Title:       title,
		Description: models.DefaultSectionDescription,
		Location:    models.DefaultSectionLocation,
		Instructor:  models.DefaultSectionInstructor,
		Duration:    models.DefaultSectionDuration,
		Date:        time.Now().UTC(),
	}
	require.NoError(t, db.Create(&section).Error)
	return section
}
