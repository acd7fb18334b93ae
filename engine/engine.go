package engine

import (
	"io"

	"github.com/lixenwraith/mapshot/asset"
	"github.com/lixenwraith/mapshot/scene"
)

// Engine is the render engine capability driven by the render controller
// Every method except Camera and Stop must be called from the render goroutine
type Engine interface {
	// Init builds the scene and runs one frame synchronously
	Init() error
	// SetResolution sets the screen size in pixels
	SetResolution(width, height int) error
	// Camera returns the world camera; safe for concurrent use
	Camera() *Camera
	// Scene returns the root of the live scene graph
	Scene() *scene.Node
	// SetDrawHook installs a callback invoked once per frame inside the draw step
	SetDrawHook(hook DrawHook)
	// LoadMap starts loading another map; SceneRunning turns true once it is live
	LoadMap(m *asset.Map) error
	// SceneRunning reports whether the current scene is loaded and updating
	SceneRunning() bool
	// Run blocks running the frame loop until Stop
	Run() error
	// Stop ends Run; safe to call from any goroutine, idempotent
	Stop()
}

// Frame is the per-frame view handed to the draw hook
type Frame interface {
	Scene() *scene.Node
	Camera() *Camera
	// RenderOffscreen renders the full scene plus overlay UI and writes it as PNG
	RenderOffscreen(w io.Writer) error
}

// DrawHook is called on the render goroutine during each draw step
type DrawHook func(f Frame)

// Factory constructs an engine for the initial map
type Factory func(m *asset.Map) (Engine, error)
