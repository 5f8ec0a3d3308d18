package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newBufferedLogger() (*CustomGormLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewGormLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return l, buf
}

func TestCustomGormLogger_Trace(t *testing.T) {
	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("logs query errors", func(t *testing.T) {
		l, buf := newBufferedLogger()
		l.Trace(context.Background(), time.Now(), sqlFn, errors.New("boom"))
		assert.Contains(t, buf.String(), "GORM query error")
	})

	t.Run("ignores record not found", func(t *testing.T) {
		l, buf := newBufferedLogger()
		l.Trace(context.Background(), time.Now(), sqlFn, gorm.ErrRecordNotFound)
		assert.Empty(t, buf.String())
	})

	t.Run("logs slow queries", func(t *testing.T) {
		l, buf := newBufferedLogger()
		l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
		assert.Contains(t, buf.String(), "GORM slow query")
	})

	t.Run("silent mode", func(t *testing.T) {
		l, buf := newBufferedLogger()
		silent := l.LogMode(logger.Silent)
		silent.Trace(context.Background(), time.Now(), sqlFn, errors.New("boom"))
		assert.Empty(t, buf.String())
	})
}

func TestMigrate_CreatesFollowConstraints(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))

	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Follow{}, "idx_follow_pair"))

	alice := models.User{Username: "alice", Password: "x"}
	require.NoError(t, db.Create(&alice).Error)

	self := models.Follow{FollowerID: alice.ID, FolloweeID: alice.ID}
	assert.Error(t, db.Create(&self).Error, "check constraint must reject self follow")
}
