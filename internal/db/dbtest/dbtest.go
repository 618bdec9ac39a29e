// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"bakery/internal/db"
)

// New returns a migrated in-memory database with roles seeded.
//
// The pool is capped at one connection: the in-memory database lives on that
// connection, and concurrent transactions queue for it instead of failing
// with SQLITE_BUSY.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.EnsureRoles(context.Background(), gormDB); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	return gormDB
}
