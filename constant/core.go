package constant

import "time"

// Render loop timing
const (
	// FrameUpdateInterval is the render goroutine frame period (~60 FPS)
	FrameUpdateInterval = 16 * time.Millisecond

	// LaunchTimeout bounds the wait for the render goroutine's readiness signal
	LaunchTimeout = 30 * time.Second

	// CaptureTimeout bounds the wait for one capture or map switch
	// A capture completes on the next frame, so this only trips when the loop is stuck
	CaptureTimeout = 10 * time.Second
)

// Default render resolution
const (
	DefaultRenderWidth  = 1366
	DefaultRenderHeight = 768
)
