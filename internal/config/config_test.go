package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "mongoose.db", cfg.DB.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, "main", cfg.Publish.Branch)
	require.Equal(t, "mongoose/activity_log.json", cfg.Publish.Path)
	require.True(t, cfg.Pipeline.Active)
	require.Equal(t, 3, cfg.Pipeline.MaxRetries)
	require.False(t, cfg.Publish.Configured())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MONGOOSE_SERVER_PORT", "9090")
	t.Setenv("MONGOOSE_TRANSPORT_MODE", "http")
	t.Setenv("MONGOOSE_AUTH_TOKEN", "secret")
	t.Setenv("MONGOOSE_PUBLISH_TOKEN", "ghp_test")
	t.Setenv("MONGOOSE_PUBLISH_REPOSITORY", "owner/repo")
	t.Setenv("MONGOOSE_PIPELINE_ACTIVE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "secret", cfg.Auth.Token)
	require.True(t, cfg.Publish.Configured())
	require.False(t, cfg.Pipeline.Active)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("MONGOOSE_SERVER_PORT", "not-a-port")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7070
publish:
  token: from-file
  repository: owner/repo
  branch: release
`), 0o644))
	t.Setenv("MONGOOSE_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "release", cfg.Publish.Branch)
	require.True(t, cfg.Publish.Configured())
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o644))
	t.Setenv("MONGOOSE_CONFIG_PATH", path)
	t.Setenv("MONGOOSE_SERVER_PORT", "6060")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 6060, cfg.Server.Port)
}
