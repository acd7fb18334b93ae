package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/mapshot/asset"
	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/engine"
	"github.com/lixenwraith/mapshot/logger"
	"github.com/lixenwraith/mapshot/scene"
)

// MapSource resolves map ids to descriptors
type MapSource interface {
	Load(id string) (*asset.Map, error)
}

// Controller owns the render goroutine and brokers captures and map switches to it
// All cross-goroutine traffic goes through one-slot channels, the camera mutex and atomics
type Controller struct {
	maps    MapSource
	factory engine.Factory
	walker  *scene.Walker
	log     *logrus.Entry

	launchTimeout  time.Duration
	captureTimeout time.Duration

	// mu guards the fields below
	mu      sync.Mutex
	state   State
	current *asset.Map
	termErr error
	eng     engine.Engine
	camera  *engine.Camera

	capturePending atomic.Bool
	frames         atomic.Uint64

	captureReq chan captureRequest
	switchReq  chan switchRequest

	// switching is owned by the render goroutine
	switching *switchRequest

	done     chan struct{}
	doneOnce sync.Once
}

// Option configures a Controller
type Option func(*Controller)

// WithWalker replaces the default life-only scene walker
func WithWalker(w *scene.Walker) Option {
	return func(c *Controller) { c.walker = w }
}

// WithTimeouts overrides launch and capture wait bounds; zero keeps the default
func WithTimeouts(launch, capture time.Duration) Option {
	return func(c *Controller) {
		if launch > 0 {
			c.launchTimeout = launch
		}
		if capture > 0 {
			c.captureTimeout = capture
		}
	}
}

// WithLogger sets the controller log entry
func WithLogger(log *logrus.Entry) Option {
	return func(c *Controller) { c.log = log }
}

// NewController creates a controller in NotLaunched state
func NewController(maps MapSource, factory engine.Factory, opts ...Option) *Controller {
	c := &Controller{
		maps:           maps,
		factory:        factory,
		walker:         scene.NewWalker(),
		launchTimeout:  constant.LaunchTimeout,
		captureTimeout: constant.CaptureTimeout,
		state:          StateNotLaunched,
		captureReq:     make(chan captureRequest, 1),
		switchReq:      make(chan switchRequest, 1),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.For("render")
	}
	return c
}

// LoadMap resolves the initial map before launch
func (c *Controller) LoadMap(id string) error {
	m, err := c.maps.Load(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateNotLaunched {
		return fmt.Errorf("%w: LoadMap in %s, use SwitchMap", ErrInvalidState, c.state)
	}
	c.current = m
	return nil
}

// Launch starts the render goroutine and waits until it serves frames
func (c *Controller) Launch(ctx context.Context, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: screen size %dx%d", core.ErrConfiguration, width, height)
	}

	c.mu.Lock()
	m := c.current
	if m == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no map loaded", core.ErrConfiguration)
	}
	if !c.transition(StateLaunching) {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: Launch in %s", ErrInvalidState, state)
	}
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"map": m.ID, "width": width, "height": height}).Info("Launching render loop")

	ready := make(chan error, 1)
	core.Go(func() { c.renderLoop(m, width, height, ready) })

	timer := time.NewTimer(c.launchTimeout)
	defer timer.Stop()

	select {
	case err := <-ready:
		if err != nil {
			err = fmt.Errorf("launch render loop: %w", err)
			c.abort(err)
			return err
		}
	case <-ctx.Done():
		err := fmt.Errorf("%w: launch: %v", core.ErrHang, ctx.Err())
		c.abort(err)
		return err
	case <-timer.C:
		err := fmt.Errorf("%w: render loop not ready after %s", core.ErrHang, c.launchTimeout)
		c.abort(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.transition(StateRunning) {
		return fmt.Errorf("%w: launch abandoned in %s", ErrNotRunning, c.state)
	}
	return nil
}

// renderLoop is the body of the render goroutine
func (c *Controller) renderLoop(m *asset.Map, width, height int, ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	err := c.runEngine(m, width, height, ready)
	if err != nil {
		c.log.WithError(err).Error("Render loop terminated")
	} else {
		c.log.Info("Render loop stopped")
	}
	c.finish(err)
}

// runEngine creates, initializes and runs the engine; panics become errors
func (c *Controller) runEngine(m *asset.Map, width, height int, ready chan<- error) (err error) {
	signalled := false
	defer func() {
		if !signalled {
			if err == nil {
				err = fmt.Errorf("%w: engine exited before ready", ErrNotRunning)
			}
			ready <- err
		}
	}()
	defer core.Recover(&err)

	eng, err := c.factory(m)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	if err := eng.Init(); err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	if err := eng.SetResolution(width, height); err != nil {
		return fmt.Errorf("set resolution: %w", err)
	}
	eng.SetDrawHook(func(f engine.Frame) { c.onDraw(eng, f) })

	if !c.attach(eng) {
		return fmt.Errorf("%w: launch abandoned", ErrNotRunning)
	}
	signalled = true
	ready <- nil

	return eng.Run()
}

// attach publishes the engine unless the launch was abandoned meanwhile
func (c *Controller) attach(eng engine.Engine) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLaunching {
		return false
	}
	c.eng = eng
	c.camera = eng.Camera()
	return true
}

// onDraw runs on the render goroutine once per frame
func (c *Controller) onDraw(eng engine.Engine, f engine.Frame) {
	c.frames.Add(1)

	if c.switching != nil {
		if !eng.SceneRunning() {
			return
		}
		req := c.switching
		c.switching = nil
		c.mu.Lock()
		c.current = req.m
		c.mu.Unlock()
		c.log.WithField("map", req.m.ID).Info("Map switched")
		req.result <- nil
		return
	}

	select {
	case req := <-c.switchReq:
		if err := eng.LoadMap(req.m); err != nil {
			req.result <- fmt.Errorf("load map %s: %w", req.m.ID, err)
			return
		}
		c.switching = &req
		return
	default:
	}

	select {
	case req := <-c.captureReq:
		c.capture(f, req)
	default:
	}
}

// capture renders the frame into the sink and labels it; the result send completes the request
func (c *Controller) capture(f engine.Frame, req captureRequest) {
	var buf bytes.Buffer
	var w io.Writer = &buf
	if req.sink != nil {
		w = io.MultiWriter(&buf, req.sink)
	}

	var res captureResult
	if err := f.RenderOffscreen(w); err != nil {
		res.err = fmt.Errorf("render offscreen: %w", err)
	} else {
		res.data = &core.ScreenShotData{
			Frame:  buf.Bytes(),
			Items:  c.walker.Walk(f.Scene()),
			Camera: f.Camera().ClipRect(),
		}
	}

	c.capturePending.Store(false)
	req.result <- res
}

// TakeScreenshot captures the next frame, writing the PNG raster into sink when non-nil
func (c *Controller) TakeScreenshot(ctx context.Context, sink io.Writer) (*core.ScreenShotData, error) {
	if c.State() != StateRunning {
		return nil, ErrNotRunning
	}
	if !c.capturePending.CompareAndSwap(false, true) {
		return nil, ErrCaptureInFlight
	}

	req := captureRequest{sink: sink, result: make(chan captureResult, 1)}
	select {
	case c.captureReq <- req:
	default:
		c.capturePending.Store(false)
		return nil, ErrCaptureInFlight
	}

	timer := time.NewTimer(c.captureTimeout)
	defer timer.Stop()

	select {
	case res := <-req.result:
		return res.data, res.err
	case <-c.done:
		return nil, c.terminalErr()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: capture: %v", core.ErrHang, ctx.Err())
	case <-timer.C:
		return nil, fmt.Errorf("%w: capture not served after %s", core.ErrHang, c.captureTimeout)
	}
}

// SwitchMap replaces the live map and waits until the new scene is running
func (c *Controller) SwitchMap(ctx context.Context, id string) error {
	m, err := c.maps.Load(id)
	if err != nil {
		return err
	}
	if c.State() != StateRunning {
		return ErrNotRunning
	}

	req := switchRequest{m: m, result: make(chan error, 1)}
	select {
	case c.switchReq <- req:
	default:
		return ErrSwitchInFlight
	}
	c.log.WithField("map", m.ID).Info("Switching map")

	timer := time.NewTimer(c.captureTimeout)
	defer timer.Stop()

	select {
	case err := <-req.result:
		return err
	case <-c.done:
		return c.terminalErr()
	case <-ctx.Done():
		return fmt.Errorf("%w: switch map: %v", core.ErrHang, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("%w: map %s not running after %s", core.ErrHang, m.ID, c.captureTimeout)
	}
}

// MoveCamera centers the camera on (x, y), clamped to the world
func (c *Controller) MoveCamera(x, y int) error {
	cam := c.cam()
	if cam == nil {
		return ErrNotRunning
	}
	cam.SetCenter(x, y)
	return nil
}

// Close stops the render loop and waits for the goroutine to exit
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateNotLaunched:
		c.state = StateTerminated
		c.mu.Unlock()
		c.closeDone()
		return nil
	case StateLaunching:
		// The render goroutine observes this in attach and unwinds
		c.state = StateTerminated
	}
	eng := c.eng
	c.mu.Unlock()

	if eng != nil {
		eng.Stop()
	}

	timer := time.NewTimer(c.captureTimeout)
	defer timer.Stop()

	select {
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return fmt.Errorf("%w: close: %v", core.ErrHang, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("%w: render loop still running after %s", core.ErrHang, c.captureTimeout)
	}
}

// State returns the lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed when the render goroutine has exited
func (c *Controller) Done() <-chan struct{} { return c.done }

// Err returns the terminal error of the render goroutine, nil on clean stop
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.termErr
}

// MapID returns the id of the live map, or the loaded one before launch
func (c *Controller) MapID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.ID
}

// Map returns the descriptor of the live map, or the loaded one before launch
func (c *Controller) Map() *asset.Map {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// ScreenSize returns the viewport size; zero before launch
func (c *Controller) ScreenSize() (int, int) {
	cam := c.cam()
	if cam == nil {
		return 0, 0
	}
	return cam.ScreenSize()
}

// WorldRect returns the live map's world rect
func (c *Controller) WorldRect() core.Rect {
	cam := c.cam()
	if cam == nil {
		return core.Rect{}
	}
	return cam.World()
}

// CameraCenter returns the camera center in world coordinates
func (c *Controller) CameraCenter() (int, int) {
	cam := c.cam()
	if cam == nil {
		return 0, 0
	}
	return cam.Center()
}

// Frames returns the number of draw steps observed
func (c *Controller) Frames() uint64 { return c.frames.Load() }

func (c *Controller) cam() *engine.Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.camera
}

// transition requires mu held
func (c *Controller) transition(to State) bool {
	if !CanTransition(c.state, to) {
		return false
	}
	c.state = to
	return true
}

// abort terminates a launch that failed or timed out
func (c *Controller) abort(err error) {
	c.mu.Lock()
	c.transition(StateTerminated)
	if c.termErr == nil {
		c.termErr = err
	}
	eng := c.eng
	c.mu.Unlock()
	if eng != nil {
		eng.Stop()
	}
}

// finish records the render goroutine exit
func (c *Controller) finish(err error) {
	c.mu.Lock()
	c.transition(StateTerminated)
	if err != nil && c.termErr == nil {
		c.termErr = err
	}
	c.mu.Unlock()
	c.closeDone()
}

func (c *Controller) closeDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

// terminalErr is the error reported to waiters after the render goroutine died
func (c *Controller) terminalErr() error {
	if err := c.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	return ErrNotRunning
}
