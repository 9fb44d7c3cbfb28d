package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.VaultDir)
	assert.NotEmpty(t, cfg.DeviceKeyFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 200000, cfg.StegoChunkSize)
	assert.Equal(t, 6, cfg.UnlockAttemptsPerMin)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VEILITH_VAULT_DIR", "/tmp/vault")
	t.Setenv("VEILITH_LOG_LEVEL", "debug")
	t.Setenv("VEILITH_STEGO_CHUNK_SIZE", "1000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/vault", cfg.VaultDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1000, cfg.StegoChunkSize)
}

func TestValidate(t *testing.T) {
	base := Config{
		VaultDir:             "/tmp/vault",
		DeviceKeyFile:        "/tmp/device.key",
		LogLevel:             "info",
		Environment:          "production",
		StegoChunkSize:       200000,
		UnlockAttemptsPerMin: 6,
	}
	require.NoError(t, base.Validate())

	broken := base
	broken.VaultDir = ""
	assert.Error(t, broken.Validate())

	broken = base
	broken.DeviceKeyFile = ""
	assert.Error(t, broken.Validate())

	broken = base
	broken.StegoChunkSize = 0
	assert.Error(t, broken.Validate())

	broken = base
	broken.UnlockAttemptsPerMin = -1
	assert.Error(t, broken.Validate())
}
