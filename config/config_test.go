package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("NOTEBOX_LOG_LEVEL", "")
	t.Setenv("NOTEBOX_LOG_FILE", "")
	t.Setenv("NOTEBOX_BACKUP_DIR", "")

	conf, err := Load(home, filepath.Join(home, FileName))
	require.NoError(t, err)

	assert.Equal(t, "info", conf.Log.Level)
	assert.Equal(t, filepath.Join(home, "backups"), conf.Backup.Dir)
	assert.Equal(t, 24*time.Hour, conf.Backup.Interval)
	assert.Equal(t, 10, conf.Backup.Keep)
}

func TestLoadFileAndEnv(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, FileName)

	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
backup:
  interval: 1h30m
  keep: 3
lock:
  password_hash: abc
`), 0600))

	t.Setenv("NOTEBOX_LOG_LEVEL", "")
	t.Setenv("NOTEBOX_LOG_FILE", "")
	t.Setenv("NOTEBOX_BACKUP_DIR", "/tmp/elsewhere")
	t.Setenv("NOTEBOX_PASSWORD", "hunter2")

	conf, err := Load(home, path)
	require.NoError(t, err)

	assert.Equal(t, "debug", conf.Log.Level)
	assert.Equal(t, 90*time.Minute, conf.Backup.Interval)
	assert.Equal(t, 3, conf.Backup.Keep)
	assert.Equal(t, "abc", conf.Lock.PasswordHash)
	assert.Equal(t, "/tmp/elsewhere", conf.Backup.Dir)
	assert.Equal(t, "hunter2", conf.Password)
	assert.Equal(t, filepath.Join(home, "exports"), conf.Export.Dir)
}

func TestLoadMalformed(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, FileName)
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0600))

	_, err := Load(home, path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "nested", FileName)
	t.Setenv("NOTEBOX_PASSWORD", "")
	t.Setenv("NOTEBOX_BACKUP_DIR", "")

	conf := Default(home)
	conf.Lock.PasswordHash = "hash"
	conf.Password = "never stored"
	require.NoError(t, Save(path, conf))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "never stored")

	loaded, err := Load(home, path)
	require.NoError(t, err)
	assert.Equal(t, "hash", loaded.Lock.PasswordHash)
	assert.Equal(t, conf.Backup, loaded.Backup)
}

func TestLoadEnv(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env"), []byte("NOTEBOX_TEST_VALUE=from-file\n"), 0600))
	t.Setenv("NOTEBOX_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("NOTEBOX_TEST_VALUE"))

	require.NoError(t, LoadEnv(home))
	assert.Equal(t, "from-file", os.Getenv("NOTEBOX_TEST_VALUE"))
}
