package database_test

import (
	"path/filepath"
	"testing"

	"taskhub/internal/config"
	"taskhub/internal/database"
	"taskhub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	cfg := &config.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "taskhub.db"),
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, database.Migrate(db))

	assert.True(t, db.Migrator().HasTable(&model.User{}))
	assert.True(t, db.Migrator().HasTable(&model.Task{}))
	assert.True(t, db.Migrator().HasTable(&model.Notification{}))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open(&config.Config{DBDriver: "mongo"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
}
