package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadOptionalMissingFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	cfg := NewDefaultApp()
	cfg.DataDir = "/tmp/manuscripts"
	require.NoError(t, LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg))
	require.Equal(t, 30*time.Second, cfg.AutosaveInterval)
	require.Equal(t, filepath.Join("/tmp/manuscripts", "refs"), cfg.RefsDir)
}

func TestLoadExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MANUSCRIPTS_TEST_DIR", dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: ${MANUSCRIPTS_TEST_DIR}/data
autosave_interval: 10s
wrap_width: 72
log_level: debug
`), 0o644))

	cfg := NewDefaultApp()
	require.NoError(t, Load(path, cfg))
	require.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	require.Equal(t, 10*time.Second, cfg.AutosaveInterval)
	require.Equal(t, 60*time.Second, cfg.ExportTimeout)
	require.Equal(t, 72, cfg.WrapWidth)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, filepath.Join(dir, "data", "manuscripts.log"), cfg.LogPath())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "receiver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 70000\n"), 0o644))

	cfg := NewDefaultReceiver()
	err := Load(path, cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "config validation failed")

	require.Error(t, Load(filepath.Join(t.TempDir(), "missing.yaml"), NewDefaultReceiver()))
}

func TestReceiverDefaults(t *testing.T) {
	t.Parallel()
	cfg := NewDefaultReceiver()
	require.NoError(t, cfg.Validate())
	require.Equal(t, ":8765", cfg.Address())
	require.False(t, cfg.AuthRequired())
	cfg.Password = "secret"
	require.True(t, cfg.AuthRequired())
}
