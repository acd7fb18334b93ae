package status

import "sync/atomic"

// Metric keys written by the sampling pipeline
const (
	KeyMap           = "sweep.map"
	KeyPhase         = "sweep.phase"
	KeyCellsDone     = "sweep.cells_done"
	KeyCellsTotal    = "sweep.cells_total"
	KeyProgress      = "sweep.progress"
	KeySamples       = "sampler.samples"
	KeyItemsKept     = "sampler.items_kept"
	KeyItemsOutside  = "sampler.items_outside"
	KeyItemsOccluded = "sampler.items_occluded"
	KeyOverlays      = "sampler.overlays"
	KeyBytesWritten  = "dataset.bytes"
	KeyFrames        = "render.frames"
)

// Registry is the central metrics facade
// Components cache pointers at construction and write atomics directly afterwards
type Registry struct {
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// Snapshot copies every metric into a flat map for serialization
func (r *Registry) Snapshot() map[string]any {
	out := make(map[string]any, r.Ints.Count()+r.Floats.Count()+r.Strings.Count())
	r.Ints.Range(func(k string, v *atomic.Int64) { out[k] = v.Load() })
	r.Floats.Range(func(k string, v *AtomicFloat) { out[k] = v.Get() })
	r.Strings.Range(func(k string, v *AtomicString) { out[k] = v.Load() })
	return out
}
