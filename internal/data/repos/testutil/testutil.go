package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/pak23399/TSchedule/internal/data/db"
	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens a migrated database for one test: Postgres when TEST_POSTGRES_DSN
// is set, otherwise a private in-memory sqlite.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}

	var (
		gdb *gorm.DB
		err error
	)
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		gdb, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		gdb, err = gorm.Open(sqlite.Open("file::memory:"), cfg)
		if err == nil {
			sqlDB, derr := gdb.DB()
			if derr != nil {
				tb.Fatalf("sqlite handle: %v", derr)
			}
			sqlDB.SetMaxOpenConns(1)
			tb.Cleanup(func() { _ = sqlDB.Close() })
		}
	}
	if err != nil {
		tb.Fatalf("failed to init test db: %v", err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return gdb
}

// Tx begins a transaction that is rolled back when the test ends. While it
// is open, sqlite callers must use the returned handle.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// SeedRule inserts a rule with defaults for any zero field.
func SeedRule(tb testing.TB, ctx context.Context, tx *gorm.DB, rule schedule.EventRule) *schedule.EventRule {
	tb.Helper()
	if rule.OwnerID == "" {
		rule.OwnerID = "owner-1"
	}
	if rule.EventType == "" {
		rule.EventType = schedule.EventTypeNormal
	}
	if rule.Title == "" {
		rule.Title = "rule"
	}
	if rule.ActiveFrom == "" {
		rule.ActiveFrom = "2024-01-01"
	}
	if rule.ActiveTo == "" {
		rule.ActiveTo = "2024-01-31"
	}
	if rule.StartTime == "" {
		rule.StartTime = "10:00:00"
	}
	if rule.EndTime == "" {
		rule.EndTime = "11:00:00"
	}
	if err := tx.WithContext(ctx).Create(&rule).Error; err != nil {
		tb.Fatalf("seed rule: %v", err)
	}
	return &rule
}
