package scene

import (
	"time"

	"github.com/lixenwraith/mapshot/core"
)

// AnimationFrame is one pose of a sprite, box relative to the item origin
type AnimationFrame struct {
	Box   core.Rect
	Delay time.Duration
}

// Animator cycles frames by accumulated time
// Not safe for concurrent use; owned by the render goroutine
type Animator struct {
	frames  []AnimationFrame
	index   int
	elapsed time.Duration
}

// NewAnimator creates an animator positioned on the first frame
func NewAnimator(frames []AnimationFrame) *Animator {
	return &Animator{frames: frames}
}

// Advance moves time forward, wrapping around the frame list
func (a *Animator) Advance(dt time.Duration) {
	if len(a.frames) < 2 {
		return
	}
	a.elapsed += dt
	for {
		delay := a.frames[a.index].Delay
		if delay <= 0 || a.elapsed < delay {
			return
		}
		a.elapsed -= delay
		a.index = (a.index + 1) % len(a.frames)
	}
}

// Current returns the box of the active frame
func (a *Animator) Current() core.Rect {
	if len(a.frames) == 0 {
		return core.Rect{}
	}
	return a.frames[a.index].Box
}

// Index returns the active frame index
func (a *Animator) Index() int { return a.index }
