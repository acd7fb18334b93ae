package sampler

import (
	"fmt"

	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
)

// FilterStats counts filter decisions for one frame
type FilterStats struct {
	Kept     int
	Outside  int
	Occluded int
}

// FilterTargetsInCamera clips image-space items to a width x height frame
// An item survives when at least ItemPartialAreaThreshold of its area is visible;
// survivors carry the clipped box. Negative sizes are corruption and abort the frame
func FilterTargetsInCamera(items []core.TargetItem, width, height int) ([]core.TargetItem, FilterStats, error) {
	var stats FilterStats
	frame := core.Rect{Width: width, Height: height}
	kept := make([]core.TargetItem, 0, len(items))

	for _, it := range items {
		b := it.Box
		if b.Width < 0 || b.Height < 0 {
			return nil, stats, fmt.Errorf("%w: item %d (%s) has negative size %dx%d",
				core.ErrCorruption, it.ID, it.Name, b.Width, b.Height)
		}
		if b.Width == 0 || b.Height == 0 || b.X > width || b.Y > height {
			stats.Outside++
			continue
		}

		clipped := b.Intersect(frame)
		if clipped.Width <= 0 || clipped.Height <= 0 {
			stats.Outside++
			continue
		}
		if clipped.Area()/b.Area() < constant.ItemPartialAreaThreshold {
			stats.Occluded++
			continue
		}

		it.Box = clipped
		kept = append(kept, it)
		stats.Kept++
	}
	return kept, stats, nil
}

// toImageSpace translates world-space items by the camera clip origin
func toImageSpace(items []core.TargetItem, clip core.Rect) []core.TargetItem {
	out := make([]core.TargetItem, len(items))
	for i, it := range items {
		it.Box = it.Box.Offset(clip.X, clip.Y)
		out[i] = it
	}
	return out
}
