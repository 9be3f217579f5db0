package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ccarrizosa/EspSensor/internal/config"
	"github.com/ccarrizosa/EspSensor/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()

	configContent := []byte(`
device_config = "/tmp/espsensor/config.json"
sleep_interval = 600
max_attempts = 3
backoff = 2
portal_timeout = 120
telemetry = true
telemetry_db = "/tmp/espsensor/telemetry.db"
verbose = true
`)
	configPath := filepath.Join(tempDir, "espsensor.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("ESPSENSOR_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/espsensor/config.json", cfg.DeviceConfig)
	assert.Equal(t, 600, cfg.SleepInterval)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2, cfg.Backoff)
	assert.Equal(t, 120, cfg.PortalTimeout)
	assert.True(t, cfg.Telemetry, "Expected Telemetry true")
	assert.Equal(t, "/tmp/espsensor/telemetry.db", cfg.TelemetryDB)
	assert.True(t, cfg.Verbose, "Expected Verbose true")
}

func TestLoadDefaults(t *testing.T) {
	// Point at a nonexistent file so a host /etc/espsensor.toml cannot leak in
	t.Setenv("ESPSENSOR_CONFIG", filepath.Join(t.TempDir(), "espsensor.toml"))

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultDeviceConfig, cfg.DeviceConfig)
	assert.Equal(t, config.DefaultSleepInterval, cfg.SleepInterval)
	assert.Equal(t, config.DefaultRetryDivisor, cfg.RetryDivisor)
	assert.Equal(t, config.DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, config.DefaultBackoff, cfg.Backoff)
	assert.Equal(t, config.DefaultPortalTimeout, cfg.PortalTimeout)
	assert.Equal(t, config.DefaultPortalAddress, cfg.PortalAddress)
	assert.False(t, cfg.Telemetry, "Expected default Telemetry false")
	assert.False(t, cfg.Debug, "Expected default Debug false")
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	tempDir := t.TempDir()

	configContent := []byte(`
This is not a valid TOML file
`)
	configPath := filepath.Join(tempDir, "espsensor.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("ESPSENSOR_CONFIG", configPath)

	_, err = config.Load()
	require.Error(t, err)
	assert.Equal(t, errors.ErrReadConfig, errors.CodeOf(err))
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero sleep interval", "sleep_interval = 0"},
		{"negative backoff", "backoff = -1"},
		{"zero attempts", "max_attempts = 0"},
		{"zero portal timeout", "portal_timeout = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "espsensor.toml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.content), 0o600))
			t.Setenv("ESPSENSOR_CONFIG", configPath)

			_, err := config.Load()
			require.Error(t, err)
			assert.Equal(t, errors.ErrInvalidConfig, errors.CodeOf(err))
		})
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "espsensor.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("sleep_interval = 600\n"), 0o600))
	t.Setenv("ESPSENSOR_CONFIG", configPath)

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"espsensor", "--sleep-interval", "900", "--no-sleep"}

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.SleepInterval)
	assert.True(t, cfg.NoSleep)
}
