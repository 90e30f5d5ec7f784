package migrate

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/db"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

func emptySQLite(t *testing.T) *db.Client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db.NewFromConn(conn)
}

func TestMaybeRunDevSyncsSQLiteSchema(t *testing.T) {
	client := emptySQLite(t)
	logg := logger.New(logger.Options{ServiceName: "migrate-test", Output: io.Discard})

	cfg := &config.Config{}
	cfg.App.Env = config.AppEnvDev
	cfg.DB.Driver = db.DriverSQLite

	require.NoError(t, MaybeRunDev(context.Background(), cfg, logg, client))
	require.False(t, client.DB().Migrator().HasTable(&models.Publish{}), "auto migrate flag off")

	cfg.FeatureFlags.AutoMigrate = true
	require.NoError(t, MaybeRunDev(context.Background(), cfg, logg, client))
	for _, model := range []any{&models.Account{}, &models.Publish{}, &models.Comment{}, &models.OutboxEvent{}} {
		require.True(t, client.DB().Migrator().HasTable(model))
	}
}

func TestAutoMigrateRequiresClient(t *testing.T) {
	require.Error(t, AutoMigrate(context.Background(), nil))
}
