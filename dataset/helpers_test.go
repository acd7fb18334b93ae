package dataset

import (
	"testing"

	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/logger"
)

var fakeJPEG = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 0xff, 0xd9}

func item(id int, class core.ObjectClass, x, y, w, h int) core.TargetItem {
	return core.TargetItem{ID: id, Class: class, Box: core.Rect{X: x, Y: y, Width: w, Height: h}}
}

func sample(items ...core.TargetItem) *core.Sample {
	return core.NewSample(fakeJPEG, 100, 50, items)
}

func quiet() Option { return WithLogger(logger.Discard()) }

func mustFinish(t *testing.T, w Writer) {
	t.Helper()
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
}
