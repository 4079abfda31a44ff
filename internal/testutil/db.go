// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"context"
	"testing"

	"facilityops/internal/database"
	"facilityops/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with every table migrated.
// A single connection keeps the in-memory database alive and shared.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, name string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: name + "@facilityops.test", Role: role}
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)
	return user
}

// CreateProperty inserts a property; code may be empty.
func CreateProperty(t *testing.T, db *gorm.DB, code, name string) *model.Property {
	t.Helper()
	property := &model.Property{Code: code, Name: name}
	require.NoError(t, db.Create(property).Error)
	return property
}

// CreateItemMaster inserts an active catalog entry.
func CreateItemMaster(t *testing.T, db *gorm.DB, name, category, unit string, unitLimit int) *model.ItemMaster {
	t.Helper()
	item := &model.ItemMaster{Name: name, CategoryName: category, Unit: unit, UnitLimit: unitLimit, IsActive: true}
	require.NoError(t, db.Create(item).Error)
	return item
}
