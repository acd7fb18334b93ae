package engine

import (
	"sync"

	"github.com/lixenwraith/mapshot/core"
)

// Camera tracks the viewport center inside the world rect
// Guarded by a mutex: moved by the sampler, read by the render goroutine
type Camera struct {
	mu      sync.RWMutex
	centerX int
	centerY int
	world   core.Rect
	width   int
	height  int
}

// NewCamera creates a camera centered on the world
func NewCamera(world core.Rect, width, height int) *Camera {
	c := &Camera{world: world, width: width, height: height}
	c.centerX = world.X + world.Width/2
	c.centerY = world.Y + world.Height/2
	c.clamp()
	return c
}

// SetCenter moves the camera then clamps so the viewport stays inside the world
func (c *Camera) SetCenter(x, y int) {
	c.mu.Lock()
	c.centerX, c.centerY = x, y
	c.clamp()
	c.mu.Unlock()
}

// SetWorld replaces the world rect and re-centers
func (c *Camera) SetWorld(world core.Rect) {
	c.mu.Lock()
	c.world = world
	c.centerX = world.X + world.Width/2
	c.centerY = world.Y + world.Height/2
	c.clamp()
	c.mu.Unlock()
}

// SetScreenSize changes the viewport size
func (c *Camera) SetScreenSize(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	c.clamp()
	c.mu.Unlock()
}

// Center returns the current center in world coordinates
func (c *Camera) Center() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.centerX, c.centerY
}

// World returns the world rect
func (c *Camera) World() core.Rect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.world
}

// ScreenSize returns the viewport size
func (c *Camera) ScreenSize() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height
}

// ClipRect returns the world-space rect currently visible
func (c *Camera) ClipRect() core.Rect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return core.Rect{
		X:      c.centerX - c.width/2,
		Y:      c.centerY - c.height/2,
		Width:  c.width,
		Height: c.height,
	}
}

// clamp requires mu held
func (c *Camera) clamp() {
	c.centerX = clampAxis(c.centerX, c.world.X, c.world.Width, c.width)
	c.centerY = clampAxis(c.centerY, c.world.Y, c.world.Height, c.height)
}

// clampAxis keeps [center-view/2, center-view/2+view) inside [origin, origin+size)
// A view larger than the world centers on it
func clampAxis(center, origin, size, view int) int {
	if view >= size {
		return origin + size/2
	}
	lo := origin + view/2
	hi := origin + size - (view - view/2)
	return min(max(center, lo), hi)
}
