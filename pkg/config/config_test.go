package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudorandom/arcmap/pkg/arcengine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arcmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	s := cfg.Scheduler()
	assert.Equal(t, arcengine.DefaultLoopSeconds, s.LoopSeconds)
	assert.Equal(t, arcengine.DefaultMaxConcurrent, s.MaxConcurrent)
	assert.Equal(t, arcengine.DefaultStyle(), cfg.ArcStyle())
	assert.Equal(t, arcengine.SnapshotOptions{PathSamples: arcengine.DefaultPathSamples, FallbackEvent: true}, cfg.SnapshotOptions())
}

func TestLoadNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
data:
  events: /tmp/events.json
  cache: false
animation:
  loop_seconds: 30
  max_concurrent: 10
style:
  low: "#000000"
feeds:
  mqtt:
    broker: tcp://localhost:1883
    topic: arcs
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/events.json", cfg.Data.Events)
	assert.False(t, cfg.Data.Cache)
	assert.Equal(t, 30.0, cfg.Animation.LoopSeconds)
	assert.Equal(t, 10, cfg.Animation.MaxConcurrent)
	assert.Equal(t, arcengine.DefaultTravelSeconds, cfg.Animation.TravelSeconds, "unset keys keep defaults")
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, cfg.ArcStyle().Low)
	assert.Equal(t, "tcp://localhost:1883", cfg.Feeds.MQTT.Broker)
	assert.Equal(t, "arcs", cfg.Feeds.MQTT.Topic)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "animation:\n  loop_seconds: 30\n")
	t.Setenv("ARCMAP_ANIM_LOOP_SECONDS", "90")
	t.Setenv("ARCMAP_FEEDS_WS_URL", "wss://example.com/stream")
	t.Setenv("ARCMAP_WINDOW_FULLSCREEN", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.Animation.LoopSeconds)
	assert.Equal(t, "wss://example.com/stream", cfg.Feeds.WebSocket.URL)
	assert.True(t, cfg.Window.Fullscreen)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "config file not found")

	_, err = Load(writeConfig(t, "animation: [not, a, map]\n"))
	assert.ErrorContains(t, err, "parsing config YAML")

	_, err = Load(writeConfig(t, "animation:\n  fade_seconds: -1\n"))
	assert.ErrorIs(t, err, ErrInvalidTiming)

	_, err = Load(writeConfig(t, "style:\n  glow: purple\n"))
	assert.ErrorIs(t, err, ErrInvalidColor)

	t.Setenv("ARCMAP_ANIM_MAX_CONCURRENT", "many")
	_, err = Load("")
	assert.ErrorContains(t, err, "parse env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero loop", func(c *Config) { c.Animation.LoopSeconds = 0 }, ErrInvalidTiming},
		{"negative tolerance", func(c *Config) { c.Animation.WrapTolerance = -0.5 }, ErrInvalidTiming},
		{"zero tolerance", func(c *Config) { c.Animation.WrapTolerance = 0 }, nil},
		{"no arcs", func(c *Config) { c.Animation.MaxConcurrent = 0 }, ErrInvalidSize},
		{"no samples", func(c *Config) { c.Animation.PathSamples = 0 }, ErrInvalidSize},
		{"no live window", func(c *Config) { c.Feeds.WindowSize = 0 }, ErrInvalidSize},
		{"empty window", func(c *Config) { c.Window.Height = 0 }, ErrInvalidSize},
		{"negative capture", func(c *Config) { c.Window.CaptureEvery = -1 }, ErrInvalidTiming},
		{"zero pixel ratio", func(c *Config) { c.Style.PixelRatio = 0 }, ErrInvalidSize},
		{"bad high", func(c *Config) { c.Style.High = "#12345" }, ErrInvalidColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#ff8000", color.RGBA{255, 128, 0, 255}, true},
		{"00C878", color.RGBA{0, 200, 120, 255}, true},
		{"  #010203 ", color.RGBA{1, 2, 3, 255}, true},
		{"#fff", color.RGBA{}, false},
		{"#gggggg", color.RGBA{}, false},
		{"", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got, tt.in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidColor, tt.in)
		}
	}
	assert.Equal(t, "#00c878", hexColor(color.RGBA{0, 200, 120, 255}))
}
