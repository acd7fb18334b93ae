package core

// ScreenShotData is one raw capture taken by the render goroutine inside its draw step
// Items and Camera are in world space
type ScreenShotData struct {
	Frame  []byte // PNG-encoded raster written to the capture sink
	Items  []TargetItem
	Camera Rect // Camera clip rectangle at capture time
}
