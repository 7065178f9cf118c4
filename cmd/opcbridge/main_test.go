package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigAppliesDeviceProfileDefaults(t *testing.T) {
	profilePath := writeTemp(t, "devprofiles.yaml", `
- hardware_type: "hyperserialpico-v1"
  protocol: awa
  pixel_format: RGB
  baud_rate: 2000000
`)
	configPath := writeTemp(t, "config.json", `{
		"outputs": [
			{"port": "/dev/ttyUSB0", "hardware_type": "hyperserialpico-v1", "led_count": 8}
		]
	}`)

	cfg, err := loadConfig(configPath, profilePath)
	require.NoError(t, err)
	require.Len(t, cfg.Outputs, 1)
	assert.EqualValues(t, "awa", cfg.Outputs[0].Protocol)
	assert.EqualValues(t, "RGB", cfg.Outputs[0].PixelFormat)
	assert.Equal(t, 2000000, cfg.Outputs[0].BaudRate)
}

func TestLoadConfigRejectsMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)
}

func TestLoadConfigWithoutProfileStillValidatesNormally(t *testing.T) {
	configPath := writeTemp(t, "config.json", `{
		"outputs": [
			{"port": "/dev/ttyUSB0", "protocol": "adalight", "baud_rate": 115200, "led_count": 8}
		]
	}`)
	cfg, err := loadConfig(configPath, filepath.Join(t.TempDir(), "no-such-profiles.yaml"))
	require.NoError(t, err)
	assert.Len(t, cfg.Outputs, 1)
}
