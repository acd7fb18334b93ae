package engine

import (
	"fmt"
	"image/color"
	"io"

	"github.com/gogpu/gg"

	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/scene"
)

var (
	overlayPanel = color.RGBA{A: 0xa0}
	overlayText  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	overlayView  = color.RGBA{R: 0xff, G: 0xd7, A: 0xff}
)

// render draws the visible scene and the UI overlay into a PNG
func (e *MapEngine) render(w io.Writer) error {
	if e.current == nil {
		return fmt.Errorf("%w: no scene to render", core.ErrResource)
	}
	clip := e.camera.ClipRect()

	dc := gg.NewContext(clip.Width, clip.Height)
	defer dc.Close()

	dc.ClearWithColor(gg.FromColor(e.current.background))
	if err := paint(dc, e.current.root, clip); err != nil {
		return fmt.Errorf("paint scene: %w", err)
	}
	if err := e.drawOverlay(dc, clip); err != nil {
		return fmt.Errorf("paint overlay: %w", err)
	}
	return dc.EncodePNG(w)
}

// paint fills every item box intersecting clip in scene order
func paint(dc *gg.Context, node *scene.Node, clip core.Rect) error {
	for _, child := range node.Children {
		if err := paint(dc, child, clip); err != nil {
			return err
		}
	}
	for _, it := range node.Slots {
		b := it.Bounds()
		if v := b.Intersect(clip); v.Width <= 0 || v.Height <= 0 {
			continue
		}
		dc.SetColor(rgba(it.Color))
		dc.DrawRectangle(float64(b.X-clip.X), float64(b.Y-clip.Y), float64(b.Width), float64(b.Height))
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	return nil
}

// drawOverlay paints the map name and a minimap with the viewport marker
func (e *MapEngine) drawOverlay(dc *gg.Context, clip core.Rect) error {
	const margin = 8.0

	world := e.current.desc.World.Rect()
	scale := constant.MinimapScale
	if float64(world.Width)*scale > constant.MinimapMaxWidth {
		scale = constant.MinimapMaxWidth / float64(world.Width)
	}
	mw, mh := float64(world.Width)*scale, float64(world.Height)*scale

	// Skip the minimap when it would cover most of a tiny frame
	if mw+2*margin < float64(clip.Width)/2 && mh+2*margin < float64(clip.Height)/2 {
		mx := float64(clip.Width) - mw - margin
		my := margin

		dc.SetColor(overlayPanel)
		dc.DrawRectangle(mx, my, mw, mh)
		if err := dc.Fill(); err != nil {
			return err
		}

		dc.SetColor(overlayView)
		dc.SetLineWidth(1)
		dc.DrawRectangle(
			mx+float64(clip.X-world.X)*scale,
			my+float64(clip.Y-world.Y)*scale,
			float64(clip.Width)*scale,
			float64(clip.Height)*scale,
		)
		if err := dc.Stroke(); err != nil {
			return err
		}
	}

	if e.face != nil {
		dc.SetFont(e.face)
		dc.SetColor(overlayText)
		dc.DrawString(e.current.desc.Name, margin, margin+constant.OverlayFontSize)
	}
	return nil
}
