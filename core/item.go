package core

// Rect is an axis-aligned integer box, origin at top-left
type Rect struct {
	X, Y          int
	Width, Height int
}

// Right returns the exclusive right edge
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge
func (r Rect) Bottom() int { return r.Y + r.Height }

// Area returns width*height as float64 to avoid overflow on large worlds
func (r Rect) Area() float64 {
	return float64(r.Width) * float64(r.Height)
}

// Offset returns the rect translated by (-dx, -dy)
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, Width: r.Width, Height: r.Height}
}

// Intersect clips r against bounds edge by edge
// Width or height may come out <= 0 when the rects do not overlap
func (r Rect) Intersect(bounds Rect) Rect {
	x0, y0 := max(r.X, bounds.X), max(r.Y, bounds.Y)
	x1, y1 := min(r.Right(), bounds.Right()), min(r.Bottom(), bounds.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// TargetItem is one labeled object, in world or image space depending on stage
type TargetItem struct {
	ID    int
	Class ObjectClass
	Box   Rect

	// Inherited from the scene item the target was extracted from
	Name  string
	Index int
	Tags  []string
}
