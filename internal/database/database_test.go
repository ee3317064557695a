package database

import (
	"testing"

	"chatapp/backend/internal/config"
	"chatapp/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	dsn, err := normalizeMySQLDSN("root:secret@tcp(localhost:3306)/chat")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	dsn, err = normalizeMySQLDSN("root:secret@tcp(localhost:3306)/chat?charset=latin1")
	require.NoError(t, err)
	assert.Contains(t, dsn, "charset=latin1")

	_, err = normalizeMySQLDSN("not a dsn")
	assert.Error(t, err)
}

func TestConnect_SQLiteMigrates(t *testing.T) {
	cfg := &config.Config{
		DBDriver:    config.DriverSQLite,
		DatabaseURL: "file::memory:",
		JWTSecret:   "s",
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	defer Close(db)

	for _, table := range []interface{}{&models.User{}, &models.Profile{}, &models.Friendship{}, &models.Message{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Friendship{}, "idx_friendship_pair"))
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "oracle", DatabaseURL: "x"})
	assert.Error(t, err)
}
