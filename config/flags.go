package config

import (
	"flag"
	"strings"
)

// ParseFlags loads the file named by -config and applies explicitly set flags on top
func ParseFlags(name string, args []string) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	var (
		path     = fs.String("config", "", "TOML configuration file")
		maps     = fs.String("maps", "", "Comma-separated map ids, first one is sampled first")
		assets   = fs.String("assets", "", "Map descriptor directory")
		format   = fs.String("format", "", "Output format: tfrecord, coco, darknet")
		out      = fs.String("out", "", "Output directory")
		width    = fs.Int("width", 0, "Render width")
		height   = fs.Int("height", 0, "Render height")
		xStep    = fs.Int("x-step", 0, "Horizontal camera step")
		yStep    = fs.Int("y-step", 0, "Vertical camera step")
		interval = fs.Int("interval", 0, "Pause between cells in milliseconds")
		players  = fs.String("players", "", "Player sprite directory, enables post-processing")
		extract  = fs.String("extract", "", "Comma-separated extra item kinds: npc, portal, foothold, ladder")
		logLevel = fs.String("log-level", "", "Log level")
		monitor  = fs.String("monitor", "", "Progress monitor listen address")
		audio    = fs.Bool("audio", false, "Play map BGM while sampling")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := Load(*path)
	if err != nil {
		return nil, err
	}

	// Only flags present on the command line override the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "maps":
			cfg.Maps = splitList(*maps)
		case "assets":
			cfg.Assets = *assets
		case "format":
			cfg.Output.Format = *format
		case "out":
			cfg.Output.Path = *out
		case "width":
			cfg.Render.Width = *width
		case "height":
			cfg.Render.Height = *height
		case "x-step":
			cfg.Sampling.XStep = *xStep
		case "y-step":
			cfg.Sampling.YStep = *yStep
		case "interval":
			cfg.Sampling.IntervalMs = *interval
		case "players":
			cfg.Post.Enabled = true
			cfg.Post.Players = *players
		case "extract":
			cfg.Sampling.Extract = splitList(*extract)
		case "log-level":
			cfg.Log.Level = *logLevel
		case "monitor":
			cfg.Monitor.Addr = *monitor
		case "audio":
			cfg.Audio.Enabled = *audio
		}
	})
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
