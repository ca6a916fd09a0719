package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "nodebridge", cfg.Logger.ServiceName)
	assert.Equal(t, 2*time.Second, cfg.Bridge.FlushTimeout)
	assert.Equal(t, "HTML", cfg.Bridge.RootTag)
	assert.Equal(t, 1.0, cfg.Bridge.DefaultPixelRatio)
	assert.Equal(t, 1024, cfg.Renderer.ViewportWidth)
	assert.True(t, cfg.Renderer.Record)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: debug
bridge:
  flush_timeout: 250ms
renderer:
  viewport_width: 320
`), 0o600))

	t.Setenv("NODEBRIDGE_RENDERER_VIEWPORT_HEIGHT", "240")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Bridge.FlushTimeout)
	assert.Equal(t, 320, cfg.Renderer.ViewportWidth)
	assert.Equal(t, 240, cfg.Renderer.ViewportHeight)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Bridge.FlushTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Bridge.RootTag = ""
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Renderer.ViewportHeight = -1
	assert.Error(t, cfg.Validate())
}
