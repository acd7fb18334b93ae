package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/scene"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoad_OverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.toml", `
maps = ["100000000", "104040000.img"]

[render]
width = 800
launch_timeout = "5s"

[sampling]
x_step = 200
extract = ["npc", "Portal"]

[output]
format = "darknet"
path = "`+filepath.ToSlash(dir)+`"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Render.Width != 800 || cfg.Render.Height != 768 {
		t.Errorf("Expected 800x768, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Render.LaunchTimeout.Duration != 5*time.Second {
		t.Errorf("Expected 5s launch timeout, got %s", cfg.Render.LaunchTimeout)
	}
	if cfg.Sampling.XStep != 200 || cfg.Sampling.YStep != 384 {
		t.Errorf("Unexpected steps %dx%d", cfg.Sampling.XStep, cfg.Sampling.YStep)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}

	kinds, err := cfg.ExtractKinds()
	if err != nil {
		t.Fatalf("ExtractKinds failed: %v", err)
	}
	if len(kinds) != 2 || kinds[0] != scene.ItemNpc || kinds[1] != scene.ItemPortal {
		t.Errorf("Unexpected kinds %v", kinds)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"Syntax", "maps = [\n"},
		{"UnknownKey", "[render]\ndepth = 3\n"},
		{"BadDuration", "[render]\ncapture_timeout = \"soon\"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, dir, tc.name+".toml", tc.content)
			if _, err := Load(path); !errors.Is(err, core.ErrConfiguration) {
				t.Errorf("Expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"MapID", func(c *Config) { c.Maps = []string{"henesys"} }, "henesys"},
		{"NoMaps", func(c *Config) { c.Maps = nil }, "no maps"},
		{"Resolution", func(c *Config) { c.Render.Width = 0 }, "resolution"},
		{"Background", func(c *Config) { c.Render.Background = "notacolor" }, "notacolor"},
		{"Step", func(c *Config) { c.Sampling.YStep = 0 }, "step"},
		{"Interval", func(c *Config) { c.Sampling.IntervalMs = -1 }, "interval"},
		{"Quality", func(c *Config) { c.Sampling.Quality = 101 }, "quality"},
		{"Kind", func(c *Config) { c.Sampling.Extract = []string{"cloud"} }, "cloud"},
		{"Format", func(c *Config) { c.Output.Format = "voc" }, "voc"},
		{"OutputDir", func(c *Config) { c.Output.Path = "/nonexistent/mapshot" }, "output"},
		{"Players", func(c *Config) { c.Post.Enabled = true; c.Post.Players = "/nonexistent/players" }, "players"},
		{"Range", func(c *Config) { c.Post.Enabled = true; c.Post.Players = "."; c.Post.Range = 0.4 }, "range"},
		{"Volume", func(c *Config) { c.Audio.Volume = 2 }, "volume"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, core.ErrConfiguration) {
				t.Fatalf("Expected ErrConfiguration, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseFlags_Override(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.toml", "[render]\nwidth = 640\nheight = 480\n")

	cfg, err := ParseFlags("mapshot", []string{
		"-config", path,
		"-height", "360",
		"-maps", "100000000, 200000000",
		"-players", dir,
		"-audio",
	})
	if err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if cfg.Render.Width != 640 || cfg.Render.Height != 360 {
		t.Errorf("Expected 640x360, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if strings.Join(cfg.Maps, "|") != "100000000|200000000" {
		t.Errorf("Unexpected maps %v", cfg.Maps)
	}
	if !cfg.Post.Enabled || cfg.Post.Players != dir {
		t.Errorf("Expected post-processing enabled with %s", dir)
	}
	if !cfg.Audio.Enabled {
		t.Error("Expected audio enabled")
	}
	if cfg.Output.Format != "tfrecord" {
		t.Errorf("Expected unset flag to keep default format, got %s", cfg.Output.Format)
	}
}

func TestFrameInterval(t *testing.T) {
	cfg := Default()
	cfg.Render.FPS = 50
	if got := cfg.FrameInterval(); got != 20*time.Millisecond {
		t.Errorf("Expected 20ms, got %s", got)
	}
}
