package sampler

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/logger"
	"github.com/lixenwraith/mapshot/render"
	"github.com/lixenwraith/mapshot/status"
)

// fakeRenderer serves a solid frame with fixed world-space items
type fakeRenderer struct {
	state   render.State
	world   core.Rect
	w, h    int
	items   []core.TargetItem
	frame   []byte
	cx, cy  int
	visited [][2]int
	capErr  error
}

func newFakeRenderer(t *testing.T, world core.Rect, w, h int) *fakeRenderer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &fakeRenderer{state: render.StateRunning, world: world, w: w, h: h, frame: buf.Bytes()}
}

func (f *fakeRenderer) State() render.State    { return f.state }
func (f *fakeRenderer) ScreenSize() (int, int) { return f.w, f.h }
func (f *fakeRenderer) WorldRect() core.Rect   { return f.world }

func (f *fakeRenderer) MoveCamera(x, y int) error {
	f.cx, f.cy = x, y
	f.visited = append(f.visited, [2]int{x, y})
	return nil
}

func (f *fakeRenderer) TakeScreenshot(_ context.Context, sink io.Writer) (*core.ScreenShotData, error) {
	if f.capErr != nil {
		return nil, f.capErr
	}
	if sink != nil {
		_, _ = sink.Write(f.frame)
	}
	return &core.ScreenShotData{
		Frame:  f.frame,
		Items:  f.items,
		Camera: core.Rect{X: f.cx - f.w/2, Y: f.cy - f.h/2, Width: f.w, Height: f.h},
	}, nil
}

// countingWriter records samples
type countingWriter struct {
	samples []*core.Sample
	err     error
}

func (w *countingWriter) Write(s *core.Sample) error {
	if w.err != nil {
		return w.err
	}
	w.samples = append(w.samples, s)
	return nil
}

func newTestSampler(t *testing.T, r Renderer, opts ...Option) *Sampler {
	t.Helper()
	opts = append(opts, WithLogger(logger.Discard()))
	s, err := New(r, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestFilterTargetsInCamera(t *testing.T) {
	tests := []struct {
		name    string
		box     core.Rect
		keep    bool
		wantBox core.Rect
	}{
		{"mostly outside bottom right", core.Rect{X: 750, Y: 550, Width: 100, Height: 100}, false, core.Rect{}},
		{"fully inside", core.Rect{X: 10, Y: 10, Width: 100, Height: 100}, true, core.Rect{X: 10, Y: 10, Width: 100, Height: 100}},
		{"fully outside left", core.Rect{X: -950, Y: 50, Width: 100, Height: 100}, false, core.Rect{}},
		{"exactly at threshold", core.Rect{X: -30, Y: 0, Width: 100, Height: 10}, true, core.Rect{X: 0, Y: 0, Width: 70, Height: 10}},
		{"just below threshold", core.Rect{X: -31, Y: 0, Width: 100, Height: 10}, false, core.Rect{}},
		{"past right edge", core.Rect{X: 801, Y: 10, Width: 5, Height: 5}, false, core.Rect{}},
		{"zero width", core.Rect{X: 10, Y: 10, Width: 0, Height: 5}, false, core.Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, _, err := FilterTargetsInCamera([]core.TargetItem{{ID: 1, Class: core.ClassMob, Box: tt.box}}, 800, 600)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.keep != (len(kept) == 1) {
				t.Fatalf("Expected keep=%v, got %d items", tt.keep, len(kept))
			}
			if tt.keep && kept[0].Box != tt.wantBox {
				t.Errorf("Expected box %+v, got %+v", tt.wantBox, kept[0].Box)
			}
		})
	}
}

func TestFilterTargetsInCamera_Invariants(t *testing.T) {
	var items []core.TargetItem
	for x := -200; x < 1000; x += 37 {
		for y := -200; y < 800; y += 41 {
			items = append(items, core.TargetItem{Box: core.Rect{X: x, Y: y, Width: 90, Height: 70}})
		}
	}
	kept, stats, err := FilterTargetsInCamera(items, 800, 600)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stats.Kept+stats.Outside+stats.Occluded != len(items) {
		t.Errorf("Stats %+v do not add up to %d", stats, len(items))
	}
	for _, it := range kept {
		b := it.Box
		if b.X < 0 || b.Y < 0 || b.Right() > 800 || b.Bottom() > 600 {
			t.Errorf("Kept box %+v escapes the frame", b)
		}
		if b.Area()/(90*70) < 0.70 {
			t.Errorf("Kept box %+v below visibility threshold", b)
		}
	}
}

func TestFilterTargetsInCamera_NegativeSize(t *testing.T) {
	items := []core.TargetItem{
		{Box: core.Rect{X: 1, Y: 1, Width: 5, Height: 5}},
		{Box: core.Rect{X: 1, Y: 1, Width: -5, Height: 5}},
	}
	if _, _, err := FilterTargetsInCamera(items, 800, 600); !errors.Is(err, core.ErrCorruption) {
		t.Errorf("Expected corruption error, got %v", err)
	}
}

func TestNew_RequiresRunning(t *testing.T) {
	r := newFakeRenderer(t, core.Rect{Width: 100, Height: 100}, 10, 10)
	r.state = render.StateLaunching
	if _, err := New(r); !errors.Is(err, render.ErrNotRunning) {
		t.Errorf("Expected ErrNotRunning, got %v", err)
	}
}

func TestGrid_Cells(t *testing.T) {
	world := core.Rect{X: -500, Y: 100, Width: 3000, Height: 1000}
	g, err := NewGrid(world, 800, 600, -300, 200)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	// ceil((3000-800)/300) * ceil((1000-600)/200)
	if got := g.Cells(); got != 8*2 {
		t.Errorf("Expected 16 cells, got %d", got)
	}
	if g.XStart != -100 || g.YStart != 400 {
		t.Errorf("Unexpected start (%d,%d)", g.XStart, g.YStart)
	}

	small, _ := NewGrid(core.Rect{Width: 800, Height: 600}, 800, 600, 10, 10)
	if small.Cells() != 0 {
		t.Errorf("Expected no cells when world equals screen, got %d", small.Cells())
	}
	if _, err := NewGrid(world, 800, 600, 0, 10); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("Expected configuration error for zero step, got %v", err)
	}
}

func TestSampleAll_VisitsGrid(t *testing.T) {
	r := newFakeRenderer(t, core.Rect{Width: 1000, Height: 700}, 400, 300)
	reg := status.NewRegistry()
	var progress [][2]int
	s := newTestSampler(t, r, WithStatus(reg), WithProgress(func(done, total int) {
		progress = append(progress, [2]int{done, total})
	}))

	w := &countingWriter{}
	if err := s.SampleAll(context.Background(), 250, -200, w, 0); err != nil {
		t.Fatalf("SampleAll failed: %v", err)
	}

	// x: 200, 450, 700 (< 800); y: 150, 350 (< 550)
	want := [][2]int{{200, 150}, {200, 350}, {450, 150}, {450, 350}, {700, 150}, {700, 350}}
	if len(r.visited) != len(want) {
		t.Fatalf("Expected %d cells, got %d", len(want), len(r.visited))
	}
	for i, v := range want {
		if r.visited[i] != v {
			t.Errorf("Cell %d: expected %v, got %v", i, v, r.visited[i])
		}
	}
	if len(w.samples) != len(want) {
		t.Errorf("Expected %d samples written, got %d", len(want), len(w.samples))
	}
	if last := progress[len(progress)-1]; last != [2]int{6, 6} {
		t.Errorf("Expected final progress 6/6, got %v", last)
	}
	if got := reg.Ints.Get(status.KeySamples).Load(); got != 6 {
		t.Errorf("Expected 6 samples counted, got %d", got)
	}
	if got := reg.Floats.Get(status.KeyProgress).Get(); got != 1 {
		t.Errorf("Expected progress 1, got %v", got)
	}
}

func TestSampleAll_Errors(t *testing.T) {
	r := newFakeRenderer(t, core.Rect{Width: 1000, Height: 700}, 400, 300)
	s := newTestSampler(t, r)

	if err := s.SampleAll(context.Background(), 0, 10, &countingWriter{}, 0); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("Expected configuration error, got %v", err)
	}

	writeErr := errors.New("disk full")
	if err := s.SampleAll(context.Background(), 100, 100, &countingWriter{err: writeErr}, 0); !errors.Is(err, writeErr) {
		t.Errorf("Expected writer error, got %v", err)
	}

	r.visited = nil
	r.items = []core.TargetItem{{Box: core.Rect{Width: -1, Height: 4}}}
	if err := s.SampleAll(context.Background(), 100, 100, &countingWriter{}, 0); !errors.Is(err, core.ErrCorruption) {
		t.Errorf("Expected corruption error, got %v", err)
	}
	if len(r.visited) != 1 {
		t.Errorf("Expected run aborted after first cell, visited %d", len(r.visited))
	}
}

func TestSampleAll_Cancel(t *testing.T) {
	r := newFakeRenderer(t, core.Rect{Width: 4000, Height: 4000}, 100, 100)
	s := newTestSampler(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	w := &countingWriter{}
	done := make(chan error, 1)
	go func() { done <- s.SampleAll(ctx, 10, 10, w, 50*time.Millisecond) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("SampleAll did not stop after cancel")
	}
}

func TestSampleSingle_TransformsAndEncodes(t *testing.T) {
	r := newFakeRenderer(t, core.Rect{X: 1000, Y: 1000, Width: 2000, Height: 2000}, 320, 240)
	r.cx, r.cy = 1160, 1120 // clip origin (1000, 1000)
	r.items = []core.TargetItem{
		{ID: 1, Class: core.ClassMob, Box: core.Rect{X: 1010, Y: 1020, Width: 30, Height: 30}},
		{ID: 2, Class: core.ClassMob, Box: core.Rect{X: 1300, Y: 1220, Width: 40, Height: 40}},
		{ID: 3, Class: core.ClassMob, Box: core.Rect{X: 5000, Y: 5000, Width: 10, Height: 10}},
	}

	var saw int
	probe := PostProcessorFunc(func(d *Draft) error {
		saw = len(d.Items)
		return nil
	})
	s := newTestSampler(t, r, WithPostProcessors(probe))

	sample, err := s.SampleSingle(context.Background())
	if err != nil {
		t.Fatalf("SampleSingle failed: %v", err)
	}
	if saw != 1 {
		t.Errorf("Expected post-processor to see 1 item, got %d", saw)
	}
	if len(sample.Items) != 1 || sample.Items[0].Box != (core.Rect{X: 10, Y: 20, Width: 30, Height: 30}) {
		t.Errorf("Unexpected items %+v", sample.Items)
	}
	img, err := jpeg.Decode(bytes.NewReader(sample.Image))
	if err != nil {
		t.Fatalf("Decode JPEG failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 || sample.Width != 320 || sample.Height != 240 {
		t.Errorf("Unexpected sample size %dx%d", b.Dx(), b.Dy())
	}
	if sample.FileName() != sample.ID.String()+".jpg" {
		t.Errorf("Unexpected file name %s", sample.FileName())
	}

	// Source items are never mutated
	if r.items[0].Box.X != 1010 {
		t.Error("Expected world-space items untouched")
	}
}

func TestSampleSingle_PostProcessorError(t *testing.T) {
	r := newFakeRenderer(t, core.Rect{Width: 1000, Height: 1000}, 100, 100)
	boom := errors.New("boom")
	s := newTestSampler(t, r, WithPostProcessors(PostProcessorFunc(func(*Draft) error { return boom })))
	if _, err := s.SampleSingle(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Expected post-processor error, got %v", err)
	}
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
