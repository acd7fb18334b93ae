package core

import "errors"

// Error kinds shared across the pipeline, matched with errors.Is
var (
	// ErrConfiguration marks invalid options rejected before the render goroutine starts
	ErrConfiguration = errors.New("configuration error")

	// ErrResource marks a missing map, asset or sprite directory
	ErrResource = errors.New("resource error")

	// ErrCorruption marks upstream data that cannot be trusted; aborts the whole run
	ErrCorruption = errors.New("data corruption")

	// ErrHang marks a wait on the render goroutine that exceeded its deadline
	ErrHang = errors.New("render goroutine did not respond")
)
