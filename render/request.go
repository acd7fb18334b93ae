package render

import (
	"errors"
	"io"

	"github.com/lixenwraith/mapshot/asset"
	"github.com/lixenwraith/mapshot/core"
)

var (
	// ErrCaptureInFlight is returned when a capture is requested while another is pending
	ErrCaptureInFlight = errors.New("capture already pending")
	// ErrSwitchInFlight is returned when a map switch is requested while another is pending
	ErrSwitchInFlight = errors.New("map switch already pending")
	// ErrNotRunning is returned by operations that need a running render loop
	ErrNotRunning = errors.New("render loop not running")
	// ErrInvalidState is returned when an operation does not apply to the current state
	ErrInvalidState = errors.New("invalid controller state")
)

// captureRequest asks the render goroutine for one screenshot
// result is buffered so the render goroutine never blocks on an abandoned waiter
type captureRequest struct {
	sink   io.Writer
	result chan captureResult
}

type captureResult struct {
	data *core.ScreenShotData
	err  error
}

// switchRequest asks the render goroutine to replace the live map
type switchRequest struct {
	m      *asset.Map
	result chan error
}
