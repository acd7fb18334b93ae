package asset

import (
	"fmt"
	"image/color"

	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/mapshot/core"
)

// Map is a decoded map descriptor
type Map struct {
	ID         string  `toml:"id"`
	Name       string  `toml:"name"`
	Background string  `toml:"background"`
	BGM        float64 `toml:"bgm"` // Tone frequency in Hz, 0 = silent

	World Bounds `toml:"world"`

	Life     []Life  `toml:"life"`
	Portals  []Shape `toml:"portal"`
	Foothold []Shape `toml:"foothold"`
	Ladders  []Shape `toml:"ladder"`
	Tiles    []Shape `toml:"tile"`
}

// Bounds is the world rectangle in world coordinates
type Bounds struct {
	X      int `toml:"x"`
	Y      int `toml:"y"`
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Rect converts bounds into a core rect
func (b Bounds) Rect() core.Rect {
	return core.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// Life is a mob or npc spawn point
type Life struct {
	ID     int     `toml:"id"`
	Name   string  `toml:"name"`
	Kind   string  `toml:"kind"` // "mob" or "npc"
	X      int     `toml:"x"`
	Y      int     `toml:"y"`
	Color  string  `toml:"color"`
	Patrol int     `toml:"patrol"` // Horizontal patrol half-width in pixels
	Speed  float64 `toml:"speed"`  // Patrol speed in pixels per second
	Frames []Frame `toml:"frames"`
}

// Frame is one animation pose, box relative to the spawn point
type Frame struct {
	X       int `toml:"x"`
	Y       int `toml:"y"`
	Width   int `toml:"width"`
	Height  int `toml:"height"`
	DelayMs int `toml:"delay_ms"`
}

// Shape is a static rectangle: tile, portal, foothold or ladder
type Shape struct {
	Name   string `toml:"name"`
	X      int    `toml:"x"`
	Y      int    `toml:"y"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Color  string `toml:"color"`
	InMap  bool   `toml:"in_map"`
}

// Validate rejects descriptors the engine cannot render
func (m *Map) Validate() error {
	if m.World.Width <= 0 || m.World.Height <= 0 {
		return fmt.Errorf("%w: map %s has empty world bounds %dx%d", core.ErrResource, m.ID, m.World.Width, m.World.Height)
	}
	for i, l := range m.Life {
		if len(l.Frames) == 0 {
			return fmt.Errorf("%w: map %s life[%d] %q has no frames", core.ErrResource, m.ID, i, l.Name)
		}
		if l.Kind != "" && l.Kind != "mob" && l.Kind != "npc" {
			return fmt.Errorf("%w: map %s life[%d] has unknown kind %q", core.ErrResource, m.ID, i, l.Kind)
		}
	}
	return nil
}

// ParseColor resolves a W3C color name or #rrggbb into RGBA
func ParseColor(name string) (color.RGBA, error) {
	c := tcell.GetColor(name)
	if !c.Valid() {
		return color.RGBA{}, fmt.Errorf("%w: unknown color %q", core.ErrConfiguration, name)
	}
	r, g, b := c.RGB()
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}, nil
}
