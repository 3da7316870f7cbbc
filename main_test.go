package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-agrisense/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("AGRISENSE_AUTH_JWT_SECRET", "")
	path := filepath.Join(dir, "agrisense.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestServerCmdConfigFlag(t *testing.T) {
	cmd := newServerCmd()
	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Empty(t, flag.DefValue)
}

func TestServerCmdRejectsMissingSecret(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: memory\n")

	cmd := newServerCmd()
	cmd.SetArgs([]string{"--config", path})
	err := cmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, config.ErrMissingJWTSecret)
}

func TestServerCmdUnreadableConfig(t *testing.T) {
	cmd := newServerCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestServerCmdStopsWithContext(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	path := writeConfig(t, fmt.Sprintf(
		"server:\n  port: %d\ndatabase:\n  driver: memory\nauth:\n  jwt_secret: test-secret\nlog:\n  level: error\n", port))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newServerCmd()
	cmd.SetArgs([]string{"--config", path})
	assert.NoError(t, cmd.ExecuteContext(ctx))
}
