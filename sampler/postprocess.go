package sampler

import (
	"github.com/gogpu/gg"

	"github.com/lixenwraith/mapshot/core"
)

// Draft is a sample between filtering and final encode
type Draft struct {
	Canvas *gg.Context
	Items  []core.TargetItem
	Width  int
	Height int
}

// PostProcessor may draw on the canvas and append items before encode
type PostProcessor interface {
	Process(d *Draft) error
}

// PostProcessorFunc adapts a function to PostProcessor
type PostProcessorFunc func(d *Draft) error

// Process calls f(d)
func (f PostProcessorFunc) Process(d *Draft) error { return f(d) }
