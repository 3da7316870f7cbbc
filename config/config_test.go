package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "127.0.0.1:3306", cfg.Database.Host)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "http://localhost:8000", cfg.Client.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Client.Timeout)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AGRISENSE_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("AGRISENSE_SERVER_PORT", "9090")
	t.Setenv("AGRISENSE_CLIENT_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.Equal(t, ":9090", cfg.Server.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	content := "database:\n  name: farm\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "farm", cfg.Database.Name)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dsn := DatabaseConfig{User: "root", Password: "pw", Host: "db:3306", Name: "agrisense"}.DSN()
	assert.Contains(t, dsn, "root:pw@tcp(db:3306)/agrisense?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
