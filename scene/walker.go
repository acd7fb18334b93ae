package scene

import "github.com/lixenwraith/mapshot/core"

// Walker extracts annotatable items from a scene graph
// Must run on the render goroutine inside the draw step: boxes come from the live animation frame
type Walker struct {
	kinds map[ItemKind]bool
}

// WalkerOption configures a Walker
type WalkerOption func(*Walker)

// WithKinds extracts additional item kinds besides life items
func WithKinds(kinds ...ItemKind) WalkerOption {
	return func(w *Walker) {
		for _, k := range kinds {
			w.kinds[k] = true
		}
	}
}

// NewWalker creates a walker that extracts life items as Mob targets
func NewWalker(opts ...WalkerOption) *Walker {
	w := &Walker{kinds: map[ItemKind]bool{ItemLife: true}}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk traverses depth-first and returns world-space targets in visit order
func (w *Walker) Walk(root *Node) []core.TargetItem {
	var items []core.TargetItem
	w.walk(root, &items)
	return items
}

func (w *Walker) walk(node *Node, items *[]core.TargetItem) {
	if node == nil {
		return
	}
	switch node.Kind {
	case KindContainer:
		for _, it := range node.Slots {
			if it == nil || !w.kinds[it.Kind] {
				continue
			}
			*items = append(*items, core.TargetItem{
				ID:    it.ID,
				Class: ClassOf(it),
				Box:   it.Bounds(),
				Name:  it.Name,
				Index: it.Index,
				Tags:  it.Tags,
			})
		}
	default:
		for _, child := range node.Children {
			w.walk(child, items)
		}
	}
}

// ClassOf maps a scene item to its detection class
func ClassOf(it *Item) core.ObjectClass {
	switch it.Kind {
	case ItemLife:
		return core.ClassMob
	case ItemNpc:
		return core.ClassNpc
	case ItemPortal:
		if it.InMap {
			return core.ClassInMapPortal
		}
		return core.ClassCrossMapPortal
	case ItemFoothold:
		return core.ClassFoothold
	case ItemLadderRope:
		return core.ClassLadderRope
	}
	return core.ClassUnknown
}
