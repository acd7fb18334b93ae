package sampler

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"sync/atomic"
	"time"

	"github.com/gogpu/gg"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/logger"
	"github.com/lixenwraith/mapshot/render"
	"github.com/lixenwraith/mapshot/status"
)

// Renderer is the render controller surface the sampler drives
type Renderer interface {
	State() render.State
	ScreenSize() (int, int)
	WorldRect() core.Rect
	MoveCamera(x, y int) error
	TakeScreenshot(ctx context.Context, sink io.Writer) (*core.ScreenShotData, error)
}

// SampleWriter consumes finished samples
type SampleWriter interface {
	Write(s *core.Sample) error
}

// ProgressFunc is called after every grid cell
type ProgressFunc func(done, total int)

// Sampler sweeps the camera over the world and turns captures into labeled samples
type Sampler struct {
	r        Renderer
	post     []PostProcessor
	quality  int
	progress ProgressFunc
	log      *logrus.Entry

	// Cached metric pointers, nil without a registry
	statDone     *atomic.Int64
	statTotal    *atomic.Int64
	statProgress *status.AtomicFloat
	statSamples  *atomic.Int64
	statKept     *atomic.Int64
	statOutside  *atomic.Int64
	statOccluded *atomic.Int64
}

// Option configures a Sampler
type Option func(*Sampler)

// WithPostProcessors appends post-processors run in order before encode
func WithPostProcessors(p ...PostProcessor) Option {
	return func(s *Sampler) { s.post = append(s.post, p...) }
}

// WithQuality overrides the JPEG quality
func WithQuality(q int) Option {
	return func(s *Sampler) {
		if q > 0 && q <= 100 {
			s.quality = q
		}
	}
}

// WithProgress installs a per-cell progress callback
func WithProgress(fn ProgressFunc) Option {
	return func(s *Sampler) { s.progress = fn }
}

// WithStatus publishes counters into reg
func WithStatus(reg *status.Registry) Option {
	return func(s *Sampler) {
		s.statDone = reg.Ints.Get(status.KeyCellsDone)
		s.statTotal = reg.Ints.Get(status.KeyCellsTotal)
		s.statProgress = reg.Floats.Get(status.KeyProgress)
		s.statSamples = reg.Ints.Get(status.KeySamples)
		s.statKept = reg.Ints.Get(status.KeyItemsKept)
		s.statOutside = reg.Ints.Get(status.KeyItemsOutside)
		s.statOccluded = reg.Ints.Get(status.KeyItemsOccluded)
	}
}

// WithLogger sets the sampler log entry
func WithLogger(log *logrus.Entry) Option {
	return func(s *Sampler) { s.log = log }
}

// New creates a sampler over a running renderer
func New(r Renderer, opts ...Option) (*Sampler, error) {
	if state := r.State(); state != render.StateRunning {
		return nil, fmt.Errorf("%w: renderer is %s", render.ErrNotRunning, state)
	}
	s := &Sampler{r: r, quality: constant.JPEGQuality}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.For("sampler")
	}
	return s, nil
}

// Grid is the camera sweep over one world
type Grid struct {
	XStart, XEnd, XStep int
	YStart, YEnd, YStep int
}

// NewGrid computes sweep bounds keeping the viewport inside the world
// Step signs are ignored; a zero step is a configuration error
func NewGrid(world core.Rect, screenW, screenH, xStep, yStep int) (Grid, error) {
	xStep, yStep = abs(xStep), abs(yStep)
	if xStep == 0 || yStep == 0 {
		return Grid{}, fmt.Errorf("%w: sweep step %dx%d", core.ErrConfiguration, xStep, yStep)
	}
	return Grid{
		XStart: world.X + screenW/2,
		XEnd:   world.X + world.Width - screenW/2,
		XStep:  xStep,
		YStart: world.Y + screenH/2,
		YEnd:   world.Y + world.Height - screenH/2,
		YStep:  yStep,
	}, nil
}

// Cells returns the number of camera positions visited
func (g Grid) Cells() int {
	return steps(g.XStart, g.XEnd, g.XStep) * steps(g.YStart, g.YEnd, g.YStep)
}

func steps(start, end, step int) int {
	if end <= start {
		return 0
	}
	return (end - start + step - 1) / step
}

// SampleAll visits every grid cell, x outer and y inner, writing one sample per cell
// Any error ends the run; there is no resume
func (s *Sampler) SampleAll(ctx context.Context, xStep, yStep int, w SampleWriter, interval time.Duration) error {
	sw, sh := s.r.ScreenSize()
	world := s.r.WorldRect()
	grid, err := NewGrid(world, sw, sh, xStep, yStep)
	if err != nil {
		return err
	}
	if interval < 0 {
		return fmt.Errorf("%w: negative interval %s", core.ErrConfiguration, interval)
	}

	total := grid.Cells()
	done := 0
	if s.statTotal != nil {
		s.statTotal.Store(int64(total))
		s.statDone.Store(0)
	}
	s.log.WithFields(logrus.Fields{
		"world": world, "screen_w": sw, "screen_h": sh, "cells": total,
	}).Info("Sweep started")

	for x := grid.XStart; x < grid.XEnd; x += grid.XStep {
		for y := grid.YStart; y < grid.YEnd; y += grid.YStep {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.r.MoveCamera(x, y); err != nil {
				return fmt.Errorf("move camera to (%d,%d): %w", x, y, err)
			}
			sample, err := s.SampleSingle(ctx)
			if err != nil {
				return fmt.Errorf("sample at (%d,%d): %w", x, y, err)
			}
			if err := w.Write(sample); err != nil {
				return fmt.Errorf("write sample %s: %w", sample.ID, err)
			}

			done++
			s.report(done, total)
			s.log.WithFields(logrus.Fields{"x": x, "y": y, "items": len(sample.Items)}).Debug("Cell sampled")

			if err := sleep(ctx, interval); err != nil {
				return err
			}
		}
	}
	s.log.WithField("samples", done).Info("Sweep finished")
	return nil
}

// SampleSingle captures the current view and builds a labeled JPEG sample
func (s *Sampler) SampleSingle(ctx context.Context) (*core.Sample, error) {
	data, err := s.r.TakeScreenshot(ctx, nil)
	if err != nil {
		return nil, err
	}
	clip := data.Camera

	items, stats, err := FilterTargetsInCamera(toImageSpace(data.Items, clip), clip.Width, clip.Height)
	if err != nil {
		return nil, err
	}
	if s.statKept != nil {
		s.statKept.Add(int64(stats.Kept))
		s.statOutside.Add(int64(stats.Outside))
		s.statOccluded.Add(int64(stats.Occluded))
	}

	frame, err := png.Decode(bytes.NewReader(data.Frame))
	if err != nil {
		return nil, fmt.Errorf("%w: decode captured frame: %v", core.ErrCorruption, err)
	}

	dc := gg.NewContext(clip.Width, clip.Height)
	defer dc.Close()
	dc.ClearWithColor(gg.Black)
	dc.DrawImage(gg.ImageBufFromImage(frame), 0, 0)

	draft := &Draft{Canvas: dc, Items: items, Width: clip.Width, Height: clip.Height}
	for _, p := range s.post {
		if err := p.Process(draft); err != nil {
			return nil, fmt.Errorf("post-process: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodeJPEG(&buf, s.quality); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	sample := core.NewSample(buf.Bytes(), clip.Width, clip.Height, draft.Items)
	if s.statSamples != nil {
		s.statSamples.Add(1)
	}
	s.log.WithFields(logrus.Fields{
		"id": sample.ID, "kept": stats.Kept, "outside": stats.Outside, "occluded": stats.Occluded,
	}).Info("Sample captured")
	return sample, nil
}

func (s *Sampler) report(done, total int) {
	if s.statDone != nil {
		s.statDone.Store(int64(done))
		if total > 0 {
			s.statProgress.Set(float64(done) / float64(total))
		}
	}
	if s.progress != nil {
		s.progress(done, total)
	}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
