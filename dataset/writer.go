// Package dataset serializes samples into object-detection training formats
package dataset

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/logger"
	"github.com/lixenwraith/mapshot/status"
)

// ErrFinished is returned by Write or Finish after Finish
var ErrFinished = errors.New("dataset writer already finished")

// Writer persists a stream of samples and seals index files on Finish
// Samples written before Finish stay on disk even if Finish never runs
type Writer interface {
	Write(s *core.Sample) error
	Finish() error
}

// Format selects a Writer implementation
type Format int

const (
	FormatTFRecord Format = iota
	FormatCoco
	FormatDarknet
)

var formatNames = map[Format]string{
	FormatTFRecord: "tfrecord",
	FormatCoco:     "coco",
	FormatDarknet:  "darknet",
}

func (f Format) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat resolves a format name, case-insensitive
func ParseFormat(name string) (Format, error) {
	for f, n := range formatNames {
		if strings.EqualFold(n, name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown output format %q (tfrecord, coco, darknet)", core.ErrConfiguration, name)
}

// New opens a writer for format under dir
// TFRecord writes <dir>/<name>.tfrecord; COCO and Darknet own <dir>/coco and <dir>/data
func New(format Format, dir, name string, opts ...Option) (Writer, error) {
	switch format {
	case FormatTFRecord:
		return NewTFRecordWriter(filepath.Join(dir, name), opts...)
	case FormatCoco:
		return NewCocoWriter(filepath.Join(dir, constant.CocoDefaultRootName), name, opts...)
	case FormatDarknet:
		return NewDarknetWriter(filepath.Join(dir, constant.DarknetDefaultRootName), opts...)
	}
	return nil, fmt.Errorf("%w: unknown output format %s", core.ErrConfiguration, format)
}

// options are shared by all writers
type options struct {
	portion float64
	rng     *rand.Rand
	log     *logrus.Entry
	bytes   *atomic.Int64
}

// Option configures a writer
type Option func(*options)

// WithValidationPortion overrides the probability a sample lands in the validation split
func WithValidationPortion(p float64) Option {
	return func(o *options) {
		if p >= 0 && p <= 1 {
			o.portion = p
		}
	}
}

// WithSeed makes the split reproducible
func WithSeed(seed uint64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewPCG(seed, ^seed)) }
}

// WithLogger sets the writer log entry
func WithLogger(log *logrus.Entry) Option {
	return func(o *options) { o.log = log }
}

// WithStatus counts written bytes into reg
func WithStatus(reg *status.Registry) Option {
	return func(o *options) { o.bytes = reg.Ints.Get(status.KeyBytesWritten) }
}

func buildOptions(component string, opts []Option) options {
	o := options{portion: constant.ValidationPortion}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.log == nil {
		o.log = logger.For(component)
	}
	return o
}

// validation draws the split for one sample
func (o *options) validation() bool {
	return o.rng.Float64() < o.portion
}

func (o *options) count(n int) {
	if o.bytes != nil {
		o.bytes.Add(int64(n))
	}
}

// checkClasses rejects samples carrying classes that may not be serialized
func checkClasses(s *core.Sample) error {
	for _, it := range s.Items {
		if !it.Class.Valid() {
			return fmt.Errorf("%w: sample %s item %d has unserializable class %s",
				core.ErrConfiguration, s.ID, it.ID, it.Class)
		}
	}
	return nil
}
