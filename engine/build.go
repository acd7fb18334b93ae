package engine

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/lixenwraith/mapshot/asset"
	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/scene"
)

// Fallback fills per item kind when a descriptor omits the color
var defaultColors = map[scene.ItemKind]string{
	scene.ItemLife:       "red",
	scene.ItemNpc:        "yellow",
	scene.ItemPortal:     "aqua",
	scene.ItemFoothold:   "gray",
	scene.ItemLadderRope: "tan",
	scene.ItemTile:       "olive",
}

// patrol moves a life item back and forth around its spawn point
type patrol struct {
	item  *scene.Item
	baseX int
	half  int
	speed float64
}

// offset returns the horizontal displacement after elapsed, a triangle wave in [-half, half]
func (p patrol) offset(elapsed time.Duration) int {
	if p.half <= 0 || p.speed <= 0 {
		return 0
	}
	span := 2 * float64(p.half)
	pos := math.Mod(p.speed*elapsed.Seconds()+float64(p.half), 2*span)
	if pos > span {
		pos = 2*span - pos
	}
	return int(pos) - p.half
}

// loadedMap is a scene built from a descriptor, ready to become live
type loadedMap struct {
	desc       *asset.Map
	root       *scene.Node
	patrols    []patrol
	background color.RGBA
}

// buildScene converts a map descriptor into a scene graph
// Container order is paint order: tiles first, life last
func buildScene(m *asset.Map) (*loadedMap, error) {
	bgName := m.Background
	if bgName == "" {
		bgName = constant.DefaultBackground
	}
	bg, err := asset.ParseColor(bgName)
	if err != nil {
		return nil, fmt.Errorf("map %s background: %w", m.ID, err)
	}

	lm := &loadedMap{desc: m, background: bg}

	tiles, err := shapeItems(m.Tiles, scene.ItemTile)
	if err != nil {
		return nil, err
	}
	footholds, err := shapeItems(m.Foothold, scene.ItemFoothold)
	if err != nil {
		return nil, err
	}
	ladders, err := shapeItems(m.Ladders, scene.ItemLadderRope)
	if err != nil {
		return nil, err
	}
	portals, err := shapeItems(m.Portals, scene.ItemPortal)
	if err != nil {
		return nil, err
	}

	var mobs, npcs []*scene.Item
	for _, l := range m.Life {
		kind := scene.ItemLife
		if l.Kind == "npc" {
			kind = scene.ItemNpc
		}
		fill, err := itemColor(l.Color, kind)
		if err != nil {
			return nil, fmt.Errorf("map %s life %q: %w", m.ID, l.Name, err)
		}

		frames := make([]scene.AnimationFrame, len(l.Frames))
		for i, f := range l.Frames {
			frames[i] = scene.AnimationFrame{
				Box:   core.Rect{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
				Delay: time.Duration(f.DelayMs) * time.Millisecond,
			}
		}

		it := &scene.Item{
			ID:       l.ID,
			Kind:     kind,
			Name:     l.Name,
			X:        l.X,
			Y:        l.Y,
			Animator: scene.NewAnimator(frames),
			Color:    fill,
		}
		if kind == scene.ItemNpc {
			it.Index = len(npcs)
			npcs = append(npcs, it)
			continue
		}
		it.Index = len(mobs)
		mobs = append(mobs, it)
		if l.Patrol > 0 && l.Speed > 0 {
			lm.patrols = append(lm.patrols, patrol{item: it, baseX: l.X, half: l.Patrol, speed: l.Speed})
		}
	}

	lm.root = scene.NewGroup(m.ID,
		scene.NewGroup("map",
			scene.NewContainer("tile", tiles...),
			scene.NewContainer("foothold", footholds...),
			scene.NewContainer("ladder", ladders...),
			scene.NewContainer("portal", portals...),
		),
		scene.NewGroup("life",
			scene.NewContainer("npc", npcs...),
			scene.NewContainer("mob", mobs...),
		),
	)
	return lm, nil
}

func shapeItems(shapes []asset.Shape, kind scene.ItemKind) ([]*scene.Item, error) {
	items := make([]*scene.Item, 0, len(shapes))
	for i, s := range shapes {
		fill, err := itemColor(s.Color, kind)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", kind, i, err)
		}
		name := s.Name
		if name == "" {
			name = kind.String()
		}
		items = append(items, &scene.Item{
			ID:    i,
			Kind:  kind,
			Name:  name,
			Index: i,
			X:     s.X,
			Y:     s.Y,
			Box:   core.Rect{Width: s.Width, Height: s.Height},
			InMap: s.InMap,
			Color: fill,
		})
	}
	return items, nil
}

func itemColor(name string, kind scene.ItemKind) ([4]uint8, error) {
	if name == "" {
		name = defaultColors[kind]
	}
	c, err := asset.ParseColor(name)
	if err != nil {
		return [4]uint8{}, err
	}
	return [4]uint8{c.R, c.G, c.B, c.A}, nil
}
