// Package dbtest opens isolated sqlite databases carrying the engine
// schema for repository and engine tests.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a fresh database with every engine table created. Each call gets
// its own named in-memory database so tests never share rows.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:engine_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	return open(t, dsn, 1)
}

// OpenFile returns a file-backed WAL database that several connections can
// write to at once. Transactions begin IMMEDIATE and wait on the busy timeout,
// so concurrent writers queue the way row locks queue them on postgres.
func OpenFile(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "engine.db")
	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	return open(t, dsn, 4)
}

func open(t testing.TB, dsn string, maxConns int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// Create inserts every value, failing the test on the first error.
func Create(t testing.TB, db *gorm.DB, values ...any) {
	t.Helper()
	for _, value := range values {
		require.NoError(t, db.Create(value).Error)
	}
}
