package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application-layer settings. The cryptographic parameters
// of the container format are fixed by the format itself and deliberately
// absent here.
type Config struct {
	// VaultDir is where stego image sets and containers are written.
	VaultDir string
	// DeviceKeyFile is the path of the file-backed device secret.
	DeviceKeyFile string
	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string
	// Environment selects production behavior ("production" disables the
	// debug channel entirely).
	Environment string
	// StegoChunkSize is the per-image split for multi-image embedding.
	StegoChunkSize int
	// UnlockAttemptsPerMin throttles Open calls at the service surface.
	UnlockAttemptsPerMin int
}

// Load reads configuration from the environment (prefix VEILITH) and an
// optional config file named by VEILITH_CONFIG. Missing values fall back to
// defaults rooted under the user's home; invalid values fail fast.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VEILITH")
	v.AutomaticEnv()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("vault_dir", filepath.Join(home, ".veilith", "vault"))
	v.SetDefault("device_key_file", filepath.Join(home, ".veilith", "device.key"))
	v.SetDefault("log_level", "info")
	v.SetDefault("environment", "production")
	v.SetDefault("stego_chunk_size", 200000)
	v.SetDefault("unlock_attempts_per_min", 6)

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
	}

	cfg := &Config{
		VaultDir:             v.GetString("vault_dir"),
		DeviceKeyFile:        v.GetString("device_key_file"),
		LogLevel:             v.GetString("log_level"),
		Environment:          v.GetString("environment"),
		StegoChunkSize:       v.GetInt("stego_chunk_size"),
		UnlockAttemptsPerMin: v.GetInt("unlock_attempts_per_min"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the few hard rules the service layer depends on.
func (c *Config) Validate() error {
	if c.VaultDir == "" {
		return fmt.Errorf("vault_dir is required")
	}
	if c.DeviceKeyFile == "" {
		return fmt.Errorf("device_key_file is required")
	}
	if c.StegoChunkSize <= 0 {
		return fmt.Errorf("stego_chunk_size must be positive (got %d)", c.StegoChunkSize)
	}
	if c.UnlockAttemptsPerMin <= 0 {
		return fmt.Errorf("unlock_attempts_per_min must be positive (got %d)", c.UnlockAttemptsPerMin)
	}
	return nil
}
