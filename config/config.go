// Package config resolves the run configuration from a TOML file and command-line flags
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/mapshot/asset"
	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/dataset"
	"github.com/lixenwraith/mapshot/scene"
)

// Duration decodes TOML strings such as "30s" or "250ms"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type RenderConfig struct {
	Width          int      `toml:"width"`
	Height         int      `toml:"height"`
	FPS            int      `toml:"fps"`
	Background     string   `toml:"background"` // Used for maps that name none
	LaunchTimeout  Duration `toml:"launch_timeout"`
	CaptureTimeout Duration `toml:"capture_timeout"`
}

type SamplingConfig struct {
	XStep      int      `toml:"x_step"`
	YStep      int      `toml:"y_step"`
	IntervalMs int      `toml:"interval_ms"`
	Quality    int      `toml:"quality"`
	Extract    []string `toml:"extract"` // Item kinds annotated besides life
	Seed       uint64   `toml:"seed"`    // 0 draws a random seed
}

type OutputConfig struct {
	Format            string  `toml:"format"`
	Path              string  `toml:"path"`
	ValidationPortion float64 `toml:"validation_portion"`
}

type PostConfig struct {
	Enabled bool    `toml:"enabled"`
	Players string  `toml:"players"`
	Count   int     `toml:"count"`
	Range   float64 `toml:"range"`
}

type AudioConfig struct {
	Enabled bool    `toml:"enabled"`
	Volume  float64 `toml:"volume"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

type MonitorConfig struct {
	Addr string `toml:"addr"` // Empty disables the monitor
}

// Config is the complete run configuration
type Config struct {
	Maps     []string       `toml:"maps"`
	Assets   string         `toml:"assets"` // Empty uses only built-in maps
	Render   RenderConfig   `toml:"render"`
	Sampling SamplingConfig `toml:"sampling"`
	Output   OutputConfig   `toml:"output"`
	Post     PostConfig     `toml:"post"`
	Audio    AudioConfig    `toml:"audio"`
	Log      LogConfig      `toml:"log"`
	Monitor  MonitorConfig  `toml:"monitor"`
}

// Default returns the configuration used when no file or flag overrides a field
func Default() *Config {
	return &Config{
		Maps: []string{asset.DemoMapID},
		Render: RenderConfig{
			Width:          constant.DefaultRenderWidth,
			Height:         constant.DefaultRenderHeight,
			FPS:            60,
			Background:     constant.DefaultBackground,
			LaunchTimeout:  Duration{constant.LaunchTimeout},
			CaptureTimeout: Duration{constant.CaptureTimeout},
		},
		Sampling: SamplingConfig{
			XStep:   constant.DefaultRenderWidth / 2,
			YStep:   constant.DefaultRenderHeight / 2,
			Quality: constant.JPEGQuality,
		},
		Output: OutputConfig{
			Format:            "tfrecord",
			Path:              ".",
			ValidationPortion: constant.ValidationPortion,
		},
		Post: PostConfig{
			Count: 1,
			Range: constant.PlayerRange,
		},
		Audio: AudioConfig{Volume: 0.5},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Load decodes path over Default; an empty path returns the defaults
// Keys the file sets that Config does not know are a configuration error
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrConfiguration, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys %s", core.ErrConfiguration, path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

var mapIDPattern = regexp.MustCompile(`^[0-9]+(\.img)?$`)

// Validate checks every option before anything is launched
// All problems are reported together, each wrapping core.ErrConfiguration
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{core.ErrConfiguration}, args...)...))
	}

	if len(c.Maps) == 0 {
		fail("no maps to sample")
	}
	for _, id := range c.Maps {
		if !mapIDPattern.MatchString(id) {
			fail("map id %q must be digits with an optional .img suffix", id)
		}
	}
	if c.Assets != "" {
		if err := requireDir(c.Assets); err != nil {
			fail("assets: %v", err)
		}
	}

	r := c.Render
	if r.Width <= 0 || r.Height <= 0 {
		fail("render resolution %dx%d", r.Width, r.Height)
	}
	if r.FPS <= 0 || r.FPS > 1000 {
		fail("render fps %d", r.FPS)
	}
	if _, err := asset.ParseColor(r.Background); err != nil {
		errs = append(errs, err)
	}
	if r.LaunchTimeout.Duration <= 0 || r.CaptureTimeout.Duration <= 0 {
		fail("render timeouts must be positive")
	}

	s := c.Sampling
	if s.XStep == 0 || s.YStep == 0 {
		fail("sampling step %dx%d", s.XStep, s.YStep)
	}
	if s.IntervalMs < 0 {
		fail("sampling interval %dms", s.IntervalMs)
	}
	if s.Quality < 1 || s.Quality > 100 {
		fail("jpeg quality %d", s.Quality)
	}
	if _, err := c.ExtractKinds(); err != nil {
		errs = append(errs, err)
	}

	if _, err := dataset.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if err := requireDir(c.Output.Path); err != nil {
		fail("output: %v", err)
	}
	if p := c.Output.ValidationPortion; p < 0 || p > 1 {
		fail("validation portion %v", p)
	}

	if c.Post.Enabled {
		if err := requireDir(c.Post.Players); err != nil {
			fail("players: %v", err)
		}
		if c.Post.Count <= 0 {
			fail("player count %d", c.Post.Count)
		}
		if c.Post.Range <= 0.5 || c.Post.Range > 1 {
			fail("player range %v must be in (0.5, 1]", c.Post.Range)
		}
	}

	if v := c.Audio.Volume; v < 0 || v > 1 {
		fail("audio volume %v", v)
	}
	return errors.Join(errs...)
}

// ExtractKinds resolves the extra item kinds the walker annotates
func (c *Config) ExtractKinds() ([]scene.ItemKind, error) {
	kinds := make([]scene.ItemKind, 0, len(c.Sampling.Extract))
	for _, name := range c.Sampling.Extract {
		k, ok := scene.ParseItemKind(strings.ToLower(name))
		if !ok {
			return nil, fmt.Errorf("%w: unknown item kind %q", core.ErrConfiguration, name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// FrameInterval converts FPS into the engine frame period
func (c *Config) FrameInterval() time.Duration {
	if c.Render.FPS <= 0 {
		return constant.FrameUpdateInterval
	}
	return time.Second / time.Duration(c.Render.FPS)
}

// Interval returns the pause between grid cells
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Sampling.IntervalMs) * time.Millisecond
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
