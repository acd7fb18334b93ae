package scene

import "github.com/lixenwraith/mapshot/core"

// NodeKind tags the two node variants of the scene graph
type NodeKind uint8

const (
	// KindGroup nodes only hold child nodes
	KindGroup NodeKind = iota
	// KindContainer nodes hold an ordered list of item slots
	KindContainer
)

// ItemKind tags what a leaf item represents
type ItemKind uint8

const (
	ItemOther ItemKind = iota
	ItemLife
	ItemNpc
	ItemPortal
	ItemFoothold
	ItemLadderRope
	ItemTile
	ItemBack
)

var itemKindNames = [...]string{
	ItemOther:      "other",
	ItemLife:       "life",
	ItemNpc:        "npc",
	ItemPortal:     "portal",
	ItemFoothold:   "foothold",
	ItemLadderRope: "ladder",
	ItemTile:       "tile",
	ItemBack:       "back",
}

func (k ItemKind) String() string {
	if int(k) < len(itemKindNames) {
		return itemKindNames[k]
	}
	return "unknown"
}

// ParseItemKind resolves an item kind by its lower-case name
func ParseItemKind(name string) (ItemKind, bool) {
	for k, n := range itemKindNames {
		if n == name {
			return ItemKind(k), true
		}
	}
	return ItemOther, false
}

// Node is a scene graph node; Kind decides which of Children/Slots is meaningful
type Node struct {
	Name     string
	Kind     NodeKind
	Children []*Node
	Slots    []*Item
}

// NewGroup creates a group node
func NewGroup(name string, children ...*Node) *Node {
	return &Node{Name: name, Kind: KindGroup, Children: children}
}

// NewContainer creates a container node
func NewContainer(name string, slots ...*Item) *Node {
	return &Node{Name: name, Kind: KindContainer, Slots: slots}
}

// Item is a leaf of the scene graph
// World position (X, Y) is the item origin; the drawn box is relative to it
type Item struct {
	ID    int
	Kind  ItemKind
	Name  string
	Index int
	Tags  []string

	X, Y int

	// Box is the static box relative to the origin, used when Animator is nil
	Box core.Rect

	// Animator drives the per-frame box of animated items
	Animator *Animator

	// InMap marks portals that teleport within the same map
	InMap bool

	// Color is the fill used by the reference rasterizer (RGBA)
	Color [4]uint8
}

// Bounds returns the item's world-space box for the current animation frame
func (it *Item) Bounds() core.Rect {
	box := it.Box
	if it.Animator != nil {
		box = it.Animator.Current()
	}
	return core.Rect{X: it.X + box.X, Y: it.Y + box.Y, Width: box.Width, Height: box.Height}
}
