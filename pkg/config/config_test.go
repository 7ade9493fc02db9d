package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1000, cfg.Decoder.DefaultSampleInterval)
	assert.Equal(t, 128, cfg.Decoder.DefaultSampleCount)
	assert.False(t, cfg.Decoder.StrictHeader)
	assert.Equal(t, 32, cfg.Volume.Slices)
	assert.InDelta(t, 0.99, cfg.Volume.ClipFactor, 1e-12)
	assert.Equal(t, "CoolToWarm", cfg.Transfer.Preset)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Wiggle.MaxPoints, cfg.Wiggle.MaxPoints)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "geovis.yaml")

	cfg := DefaultConfig()
	cfg.Decoder.StrictHeader = true
	cfg.Volume.Stride = 7
	cfg.Transfer.CustomPresets = map[string][]PresetPoint{
		"Mono": {{X: 0, Color: "#000000", A: 0}, {X: 1, Color: "#00ff00", A: 1}},
	}
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, loaded.Decoder.StrictHeader)
	assert.Equal(t, 7, loaded.Volume.Stride)
	require.Len(t, loaded.Transfer.CustomPresets["Mono"], 2)
	assert.Equal(t, "#00ff00", loaded.Transfer.CustomPresets["Mono"][1].Color)
}

func TestLoadConfigPartialOverridesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wiggle:\n  maxTraces: 12\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Wiggle.MaxTraces)
	assert.Equal(t, 800, cfg.Wiggle.MaxPoints)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("volume:\n  clipFactor: 3\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("decoder: [unterminated"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
