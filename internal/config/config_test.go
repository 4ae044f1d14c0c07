package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 250*time.Millisecond, time.Duration(cfg.Input.ClickThreshold))
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[input]
click_threshold = "400ms"

[mesh]
feature_angle = 35.0

[watch]
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, time.Duration(cfg.Input.ClickThreshold))
	assert.Equal(t, 35.0, cfg.Mesh.FeatureAngle)
	assert.Equal(t, 1e-6, cfg.Mesh.WeldTolerance)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, "#FFFF00", cfg.Display.SelectionColor)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad duration": "[input]\nclick_threshold = \"soon\"\n",
		"bad angle":    "[mesh]\nfeature_angle = 200.0\n",
		"bad color":    "[display]\nselection_color = \"yellow\"\n",
		"bad toml":     "[input\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Log.File = "/tmp/facelabel.log"
	cfg.Watch.Debounce = Duration(time.Second)

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#FF8000")
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{255, 128, 0}, c)

	_, err = ParseColor("#12")
	assert.Error(t, err)
}
