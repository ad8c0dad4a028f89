package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "iec101-gateway", cfg.App.Name)
	assert.Equal(t, ":2404", cfg.TCP.Addr)
	assert.Equal(t, 1, cfg.Protocol.AddressWidth)
	assert.Equal(t, 8, cfg.Protocol.SniffPrefix)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, "iec101:journal", cfg.Redis.JournalKey)
	assert.Equal(t, 1024, cfg.Journal.QueueSize)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	content := `
tcp:
  addr: ":9000"
  readTimeout: 30s
protocol:
  addressWidth: 2
redis:
  enabled: true
  journalMax: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("IOT_TCP_ADDR", ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.TCP.Addr)
	assert.Equal(t, 30*time.Second, cfg.TCP.ReadTimeout)
	assert.Equal(t, 2, cfg.Protocol.AddressWidth)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, int64(50), cfg.Redis.JournalMax)
}

func TestLoad_RejectsAddressWidth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("protocol:\n  addressWidth: 3\n"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
