package engine

import (
	"fmt"
	"image/color"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gg/text"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/lixenwraith/mapshot/asset"
	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/logger"
	"github.com/lixenwraith/mapshot/scene"
)

// MapEngine is a headless software engine rendering map descriptors
// Reference collaborator for the render controller; not a game renderer
type MapEngine struct {
	current *loadedMap
	pending *loadedMap

	camera *Camera
	hook   DrawHook
	face   text.Face
	width  int
	height int

	clock    TimeProvider
	interval time.Duration
	last     time.Time
	elapsed  time.Duration

	running  atomic.Bool
	frames   atomic.Uint64
	stopChan chan struct{}
	stopOnce sync.Once

	log *logrus.Entry
}

// Option configures a MapEngine
type Option func(*MapEngine)

// WithTimeProvider replaces the frame clock
func WithTimeProvider(tp TimeProvider) Option {
	return func(e *MapEngine) { e.clock = tp }
}

// WithFrameInterval sets the frame period of Run
func WithFrameInterval(d time.Duration) Option {
	return func(e *MapEngine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithLogger sets the engine log entry
func WithLogger(log *logrus.Entry) Option {
	return func(e *MapEngine) { e.log = log }
}

// NewFactory returns a Factory producing MapEngines with the given options
func NewFactory(opts ...Option) Factory {
	return func(m *asset.Map) (Engine, error) {
		return NewMapEngine(m, opts...)
	}
}

// NewMapEngine creates an engine for m; the scene is built by Init
func NewMapEngine(m *asset.Map, opts ...Option) (*MapEngine, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: no map to render", core.ErrConfiguration)
	}
	lm, err := buildScene(m)
	if err != nil {
		return nil, err
	}
	e := &MapEngine{
		pending:  lm,
		clock:    SystemTime{},
		interval: constant.FrameUpdateInterval,
		width:    constant.DefaultRenderWidth,
		height:   constant.DefaultRenderHeight,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.For("engine")
	}
	e.camera = NewCamera(m.World.Rect(), e.width, e.height)
	return e, nil
}

// Init loads the overlay font, swaps in the map and runs the first frame
func (e *MapEngine) Init() error {
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		// Overlay text is cosmetic; frames are still produced without it
		e.log.WithError(err).Warn("Overlay font unavailable")
	} else {
		e.face = src.Face(constant.OverlayFontSize)
	}
	e.last = e.clock.Now()
	e.step()
	if e.current == nil {
		return fmt.Errorf("%w: engine produced no scene", core.ErrResource)
	}
	return nil
}

// SetResolution sets the screen size in pixels
func (e *MapEngine) SetResolution(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: resolution %dx%d", core.ErrConfiguration, width, height)
	}
	e.width, e.height = width, height
	e.camera.SetScreenSize(width, height)
	return nil
}

// Camera returns the world camera
func (e *MapEngine) Camera() *Camera { return e.camera }

// Scene returns the live scene root, nil before Init
func (e *MapEngine) Scene() *scene.Node {
	if e.current == nil {
		return nil
	}
	return e.current.root
}

// SetDrawHook installs the per-frame callback
func (e *MapEngine) SetDrawHook(hook DrawHook) { e.hook = hook }

// LoadMap builds the new scene now and swaps it in on the next frame
func (e *MapEngine) LoadMap(m *asset.Map) error {
	if m == nil {
		return fmt.Errorf("%w: no map to load", core.ErrConfiguration)
	}
	lm, err := buildScene(m)
	if err != nil {
		return err
	}
	e.pending = lm
	e.running.Store(false)
	return nil
}

// SceneRunning reports whether the last requested map is live
func (e *MapEngine) SceneRunning() bool { return e.running.Load() }

// MapID returns the id of the live map
func (e *MapEngine) MapID() string {
	if e.current == nil {
		return ""
	}
	return e.current.desc.ID
}

// Frames returns the number of frames stepped so far
func (e *MapEngine) Frames() uint64 { return e.frames.Load() }

// Run steps frames on a fixed interval until Stop
func (e *MapEngine) Run() error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return nil
		case <-ticker.C:
			e.step()
		}
	}
}

// Stop ends Run
func (e *MapEngine) Stop() {
	e.stopOnce.Do(func() {
		e.running.Store(false)
		close(e.stopChan)
	})
}

// step advances one frame: map swap or scene update, then the draw hook
func (e *MapEngine) step() {
	now := e.clock.Now()
	dt := now.Sub(e.last)
	e.last = now

	if e.pending != nil {
		e.current = e.pending
		e.pending = nil
		e.elapsed = 0
		e.camera.SetWorld(e.current.desc.World.Rect())
		e.running.Store(true)
		e.log.WithField("map", e.current.desc.ID).Debug("Scene loaded")
	} else {
		e.update(dt)
	}
	e.frames.Add(1)

	if e.hook != nil {
		e.hook(frame{e})
	}
}

func (e *MapEngine) update(dt time.Duration) {
	if e.current == nil || dt <= 0 {
		return
	}
	e.elapsed += dt
	for _, p := range e.current.patrols {
		p.item.X = p.baseX + p.offset(e.elapsed)
	}
	advance(e.current.root, dt)
}

func advance(node *scene.Node, dt time.Duration) {
	for _, child := range node.Children {
		advance(child, dt)
	}
	for _, it := range node.Slots {
		if it.Animator != nil {
			it.Animator.Advance(dt)
		}
	}
}

// frame is the draw hook view of a MapEngine
type frame struct{ e *MapEngine }

func (f frame) Scene() *scene.Node                { return f.e.Scene() }
func (f frame) Camera() *Camera                   { return f.e.camera }
func (f frame) RenderOffscreen(w io.Writer) error { return f.e.render(w) }

func rgba(c [4]uint8) color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}
