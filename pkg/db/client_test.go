package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T, opts ...gorm.Option) *gorm.DB {
	t.Helper()
	opts = append([]gorm.Option{&gorm.Config{SkipDefaultTransaction: true}}, opts...)
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), opts...)
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func countNamed(t *testing.T, conn *gorm.DB, name string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&testModel{}).Where("name = ?", name).Count(&n).Error)
	return n
}

func TestWithTxCommitsOrRollsBack(t *testing.T) {
	conn := newTestDB(t)
	client := NewFromConn(conn)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "kept"}).Error
	}))
	require.EqualValues(t, 1, countNamed(t, conn, "kept"))

	boom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&testModel{Name: "dropped"}).Error)
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, countNamed(t, conn, "dropped"))
}

func TestNewOpensSQLite(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, config.DBConfig{Driver: DriverSQLite, DSN: "file:" + t.Name() + "?mode=memory"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(ctx))
	require.Equal(t, "sqlite", client.DB().Dialector.Name())
	require.Equal(t, time.UTC, NowUTC().Location())
}

func TestDialectorFor(t *testing.T) {
	require.Equal(t, "sqlite", dialectorFor(config.DBConfig{Driver: DriverSQLite, DSN: "file::memory:"}).Name())
	require.Equal(t, "postgres", dialectorFor(config.DBConfig{DSN: "postgres://localhost/clipstream"}).Name())
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	conn := newTestDB(t)
	client := NewFromConn(conn)

	require.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&testModel{Name: "lost"}).Error)
			panic("boom")
		})
	})
	var count int64
	require.NoError(t, conn.Model(&testModel{}).Where("name = ?", "lost").Count(&count).Error)
	require.Zero(t, count)
}

func TestQueryLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	conn := newTestDB(t, &gorm.Config{Logger: newQueryLogger(logg, time.Hour)})
	require.Error(t, conn.Exec("SELECT * FROM missing_table").Error)
	require.Contains(t, buf.String(), "query failed")
	require.Contains(t, buf.String(), "missing_table")

	buf.Reset()
	var found testModel
	require.ErrorIs(t, conn.First(&found, 999).Error, gorm.ErrRecordNotFound)
	require.Empty(t, buf.String())

	conn = conn.Session(&gorm.Session{Logger: newQueryLogger(logg, time.Nanosecond)})
	require.NoError(t, conn.Find(&[]testModel{}).Error)
	require.Contains(t, buf.String(), "slow query")
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	require.Error(t, err)
}
