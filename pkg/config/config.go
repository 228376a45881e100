// Package config loads arcmap settings: built-in defaults, then an optional YAML file,
// then ARCMAP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/sudorandom/arcmap/pkg/arcengine"
	"github.com/sudorandom/arcmap/pkg/feeds"
	"github.com/sudorandom/arcmap/pkg/sources"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ARCMAP_"

var (
	ErrInvalidTiming = errors.New("timings must be positive")
	ErrInvalidColor  = errors.New("colors must be #rrggbb")
	ErrInvalidSize   = errors.New("sizes must be at least 1")
)

type Config struct {
	Data      DataConfig      `yaml:"data" envPrefix:"DATA_"`
	Animation AnimationConfig `yaml:"animation" envPrefix:"ANIM_"`
	Style     StyleConfig     `yaml:"style" envPrefix:"STYLE_"`
	Window    WindowConfig    `yaml:"window" envPrefix:"WINDOW_"`
	Feeds     FeedsConfig     `yaml:"feeds" envPrefix:"FEEDS_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
}

type DataConfig struct {
	Events  string `yaml:"events" env:"EVENTS"`
	Targets string `yaml:"targets" env:"TARGETS"`
	Basemap string `yaml:"basemap" env:"BASEMAP"`
	GeoIP   string `yaml:"geoip" env:"GEOIP"`
	Cache   bool   `yaml:"cache" env:"CACHE"`
}

type AnimationConfig struct {
	LoopSeconds   float64 `yaml:"loop_seconds" env:"LOOP_SECONDS"`
	TravelSeconds float64 `yaml:"travel_seconds" env:"TRAVEL_SECONDS"`
	FadeSeconds   float64 `yaml:"fade_seconds" env:"FADE_SECONDS"`
	WrapTolerance float64 `yaml:"wrap_tolerance" env:"WRAP_TOLERANCE"`
	MaxConcurrent int     `yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	PathSamples   int     `yaml:"path_samples" env:"PATH_SAMPLES"`
	Fallback      bool    `yaml:"fallback" env:"FALLBACK"`
}

type StyleConfig struct {
	Low        string  `yaml:"low" env:"LOW"`
	High       string  `yaml:"high" env:"HIGH"`
	Glow       string  `yaml:"glow" env:"GLOW"`
	PixelRatio float64 `yaml:"pixel_ratio" env:"PIXEL_RATIO"`
}

type WindowConfig struct {
	Width        int     `yaml:"width" env:"WIDTH"`
	Height       int     `yaml:"height" env:"HEIGHT"`
	Fullscreen   bool    `yaml:"fullscreen" env:"FULLSCREEN"`
	FollowWindow bool    `yaml:"follow_window" env:"FOLLOW"`
	CaptureDir   string  `yaml:"capture_dir" env:"CAPTURE_DIR"`
	CaptureEvery float64 `yaml:"capture_every_seconds" env:"CAPTURE_EVERY_SECONDS"`
}

type FeedsConfig struct {
	WindowSize int             `yaml:"window_size" env:"WINDOW_SIZE"`
	WebSocket  WebSocketConfig `yaml:"websocket" envPrefix:"WS_"`
	MQTT       MQTTConfig      `yaml:"mqtt" envPrefix:"MQTT_"`
}

type WebSocketConfig struct {
	URL       string `yaml:"url" env:"URL"`
	Subscribe string `yaml:"subscribe" env:"SUBSCRIBE"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker" env:"BROKER"`
	Topic    string `yaml:"topic" env:"TOPIC"`
	ClientID string `yaml:"client_id" env:"CLIENT_ID"`
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen" env:"LISTEN"`
}

func Default() *Config {
	return &Config{
		Data: DataConfig{
			Events:  sources.DefaultEventsPath,
			Targets: sources.DefaultTargetsPath,
			Basemap: sources.NaturalEarthLandURL,
			Cache:   true,
		},
		Animation: AnimationConfig{
			LoopSeconds:   arcengine.DefaultLoopSeconds,
			TravelSeconds: arcengine.DefaultTravelSeconds,
			FadeSeconds:   arcengine.DefaultFadeSeconds,
			WrapTolerance: arcengine.DefaultWrapTolerance,
			MaxConcurrent: arcengine.DefaultMaxConcurrent,
			PathSamples:   arcengine.DefaultPathSamples,
			Fallback:      true,
		},
		Style: StyleConfig{
			Low:        hexColor(arcengine.ColorLow),
			High:       hexColor(arcengine.ColorHigh),
			Glow:       hexColor(arcengine.ColorGlow),
			PixelRatio: 1,
		},
		Window: WindowConfig{Width: 1920, Height: 1080},
		Feeds:  FeedsConfig{WindowSize: feeds.DefaultWindowSize},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if path is not empty)
// and the environment, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv applies ARCMAP_* variables on top of target. Unset variables leave the
// existing values alone.
func ParseEnv(target *Config) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	a := c.Animation
	if a.LoopSeconds <= 0 || a.TravelSeconds <= 0 || a.FadeSeconds <= 0 || a.WrapTolerance < 0 {
		return fmt.Errorf("animation: %w", ErrInvalidTiming)
	}
	if a.MaxConcurrent < 1 || a.PathSamples < 1 {
		return fmt.Errorf("animation: %w", ErrInvalidSize)
	}
	if c.Feeds.WindowSize < 1 {
		return fmt.Errorf("feeds.window_size: %w", ErrInvalidSize)
	}
	if c.Window.Width < 1 || c.Window.Height < 1 {
		return fmt.Errorf("window: %w", ErrInvalidSize)
	}
	if c.Window.CaptureEvery < 0 {
		return fmt.Errorf("window.capture_every_seconds: %w", ErrInvalidTiming)
	}
	if c.Style.PixelRatio <= 0 {
		return fmt.Errorf("style.pixel_ratio: %w", ErrInvalidSize)
	}
	for name, v := range map[string]string{"low": c.Style.Low, "high": c.Style.High, "glow": c.Style.Glow} {
		if _, err := ParseHexColor(v); err != nil {
			return fmt.Errorf("style.%s: %w", name, err)
		}
	}
	return nil
}

// Scheduler builds a LoopScheduler from the animation settings.
func (c *Config) Scheduler() *arcengine.LoopScheduler {
	a := c.Animation
	return &arcengine.LoopScheduler{
		LoopSeconds:   a.LoopSeconds,
		TravelSeconds: a.TravelSeconds,
		FadeSeconds:   a.FadeSeconds,
		MaxConcurrent: a.MaxConcurrent,
		WrapTolerance: a.WrapTolerance,
	}
}

// ArcStyle converts the style section; it must have passed Validate.
func (c *Config) ArcStyle() arcengine.Style {
	low, _ := ParseHexColor(c.Style.Low)
	high, _ := ParseHexColor(c.Style.High)
	glow, _ := ParseHexColor(c.Style.Glow)
	return arcengine.Style{Low: low, High: high, Glow: glow, PixelRatio: c.Style.PixelRatio}
}

func (c *Config) SnapshotOptions() arcengine.SnapshotOptions {
	return arcengine.SnapshotOptions{
		PathSamples:   c.Animation.PathSamples,
		FallbackEvent: c.Animation.Fallback,
	}
}

// ParseHexColor parses "#rrggbb" (the leading # is optional).
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("%q: %w", s, ErrInvalidColor)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%q: %w", s, ErrInvalidColor)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
