package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/chat")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.False(t, cfg.MailEnabled())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "JWT_SECRET=file-secret\nDATABASE_URL=file::memory:\nDB_DRIVER=SQLite\nJWT_TTL=30m\nCORS_ALLOWED_ORIGINS=http://a.test, http://b.test\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "file-secret", cfg.JWTSecret)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{JWTSecret: "s", DBDriver: DriverMySQL, DatabaseURL: "dsn"}, true},
		{"missing secret", Config{DBDriver: DriverMySQL, DatabaseURL: "dsn"}, false},
		{"unknown driver", Config{JWTSecret: "s", DBDriver: "oracle", DatabaseURL: "dsn"}, false},
		{"missing url", Config{JWTSecret: "s", DBDriver: DriverPostgres}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
