package dataset

import (
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
)

// tf.Example feature keys
const (
	KeyHeight    = "image/height"
	KeyWidth     = "image/width"
	KeyFileName  = "image/filename"
	KeySourceID  = "image/source_id"
	KeyEncoded   = "image/encoded"
	KeyFormat    = "image/format"
	KeyXMin      = "image/object/bbox/xmin"
	KeyXMax      = "image/object/bbox/xmax"
	KeyYMin      = "image/object/bbox/ymin"
	KeyYMax      = "image/object/bbox/ymax"
	KeyClassText = "image/object/class/text"
	KeyLabel     = "image/object/class/label"
)

// FeatureKind is the populated oneof branch of a tf.train.Feature
type FeatureKind int

const (
	KindBytes FeatureKind = iota + 1
	KindFloat
	KindInt64
)

// Feature field numbers in tf.train.Feature
const (
	fieldBytesList protowire.Number = 1
	fieldFloatList protowire.Number = 2
	fieldInt64List protowire.Number = 3
)

// Feature is one tf.train.Feature value list
type Feature struct {
	Kind   FeatureKind
	Bytes  [][]byte
	Floats []float32
	Ints   []int64
}

// Example is a tf.train.Example: a map of named features
type Example struct {
	Features map[string]Feature
}

func bytesFeature(v ...[]byte) Feature { return Feature{Kind: KindBytes, Bytes: v} }
func floatFeature(v []float32) Feature { return Feature{Kind: KindFloat, Floats: v} }
func int64Feature(v ...int64) Feature { return Feature{Kind: KindInt64, Ints: v} }

// NewExample builds the detection example for a sample
// Boxes are normalized by the sample size; invalid classes fail the whole example
func NewExample(s *core.Sample) (*Example, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("%w: sample %s has size %dx%d", core.ErrCorruption, s.ID, s.Width, s.Height)
	}
	if err := checkClasses(s); err != nil {
		return nil, err
	}

	n := len(s.Items)
	xmin, xmax := make([]float32, 0, n), make([]float32, 0, n)
	ymin, ymax := make([]float32, 0, n), make([]float32, 0, n)
	text := make([][]byte, 0, n)
	labels := make([]int64, 0, n)

	w, h := float32(s.Width), float32(s.Height)
	for _, it := range s.Items {
		b := it.Box
		xmin = append(xmin, float32(b.X)/w)
		xmax = append(xmax, float32(b.Right())/w)
		ymin = append(ymin, float32(b.Y)/h)
		ymax = append(ymax, float32(b.Bottom())/h)
		text = append(text, []byte(it.Class.String()))
		labels = append(labels, int64(it.Class))
	}

	return &Example{Features: map[string]Feature{
		KeyHeight:    int64Feature(int64(s.Height)),
		KeyWidth:     int64Feature(int64(s.Width)),
		KeyFileName:  bytesFeature([]byte(s.FileName())),
		KeySourceID:  bytesFeature([]byte(s.ID.String())),
		KeyEncoded:   bytesFeature(s.Image),
		KeyFormat:    bytesFeature([]byte(constant.ImageFormatJPEG)),
		KeyXMin:      floatFeature(xmin),
		KeyXMax:      floatFeature(xmax),
		KeyYMin:      floatFeature(ymin),
		KeyYMax:      floatFeature(ymax),
		KeyClassText: bytesFeature(text...),
		KeyLabel:     int64Feature(labels...),
	}}, nil
}

// Marshal encodes the example in protobuf wire format, map entries in key order
func (e *Example) Marshal() []byte {
	keys := make([]string, 0, len(e.Features))
	for k := range e.Features {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var features []byte
	for _, k := range keys {
		var entry []byte
		entry = protowire.AppendTag(entry, 1, protowire.BytesType)
		entry = protowire.AppendString(entry, k)
		entry = protowire.AppendTag(entry, 2, protowire.BytesType)
		entry = protowire.AppendBytes(entry, e.Features[k].marshal())

		features = protowire.AppendTag(features, 1, protowire.BytesType)
		features = protowire.AppendBytes(features, entry)
	}

	var out []byte
	out = protowire.AppendTag(out, 1, protowire.BytesType)
	return protowire.AppendBytes(out, features)
}

func (f Feature) marshal() []byte {
	var list []byte
	var field protowire.Number
	switch f.Kind {
	case KindBytes:
		field = fieldBytesList
		for _, v := range f.Bytes {
			list = protowire.AppendTag(list, 1, protowire.BytesType)
			list = protowire.AppendBytes(list, v)
		}
	case KindFloat:
		field = fieldFloatList
		if len(f.Floats) > 0 {
			packed := make([]byte, 0, 4*len(f.Floats))
			for _, v := range f.Floats {
				packed = protowire.AppendFixed32(packed, math.Float32bits(v))
			}
			list = protowire.AppendTag(list, 1, protowire.BytesType)
			list = protowire.AppendBytes(list, packed)
		}
	case KindInt64:
		field = fieldInt64List
		if len(f.Ints) > 0 {
			var packed []byte
			for _, v := range f.Ints {
				packed = protowire.AppendVarint(packed, uint64(v))
			}
			list = protowire.AppendTag(list, 1, protowire.BytesType)
			list = protowire.AppendBytes(list, packed)
		}
	}

	var out []byte
	out = protowire.AppendTag(out, field, protowire.BytesType)
	return protowire.AppendBytes(out, list)
}

// UnmarshalExample decodes a tf.train.Example payload
func UnmarshalExample(b []byte) (*Example, error) {
	e := &Example{Features: make(map[string]Feature)}
	err := forEachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num != 1 || typ != protowire.BytesType {
			return nil
		}
		return forEachField(v, func(num protowire.Number, typ protowire.Type, entry []byte) error {
			if num != 1 || typ != protowire.BytesType {
				return nil
			}
			return e.unmarshalEntry(entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Example) unmarshalEntry(entry []byte) error {
	var key string
	var feature Feature
	err := forEachField(entry, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch {
		case num == 1 && typ == protowire.BytesType:
			key = string(v)
		case num == 2 && typ == protowire.BytesType:
			f, err := unmarshalFeature(v)
			if err != nil {
				return err
			}
			feature = f
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.Features[key] = feature
	return nil
}

func unmarshalFeature(b []byte) (Feature, error) {
	var f Feature
	err := forEachField(b, func(num protowire.Number, typ protowire.Type, list []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case fieldBytesList:
			f.Kind = KindBytes
			return forEachField(list, func(_ protowire.Number, typ protowire.Type, v []byte) error {
				if typ == protowire.BytesType {
					f.Bytes = append(f.Bytes, append([]byte(nil), v...))
				}
				return nil
			})
		case fieldFloatList:
			f.Kind = KindFloat
			return forEachField(list, func(_ protowire.Number, typ protowire.Type, v []byte) error {
				for len(v) >= 4 {
					bits, n := protowire.ConsumeFixed32(v)
					if n < 0 {
						return corrupt(n)
					}
					f.Floats = append(f.Floats, math.Float32frombits(bits))
					v = v[n:]
				}
				return nil
			})
		case fieldInt64List:
			f.Kind = KindInt64
			return forEachField(list, func(_ protowire.Number, typ protowire.Type, v []byte) error {
				for len(v) > 0 {
					x, n := protowire.ConsumeVarint(v)
					if n < 0 {
						return corrupt(n)
					}
					f.Ints = append(f.Ints, int64(x))
					v = v[n:]
				}
				return nil
			})
		}
		return nil
	})
	return f, err
}

// forEachField walks top-level fields; scalar values are handed over in their raw encoding
// so packed and unpacked repeated fields decode the same way
func forEachField(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return corrupt(n)
		}
		b = b[n:]

		var v []byte
		switch typ {
		case protowire.BytesType:
			val, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return corrupt(m)
			}
			v, n = val, m
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return corrupt(m)
			}
			v, n = b[:m], m
		}
		b = b[n:]

		if err := fn(num, typ, v); err != nil {
			return err
		}
	}
	return nil
}

func corrupt(n int) error {
	return fmt.Errorf("%w: malformed example: %v", core.ErrCorruption, protowire.ParseError(n))
}
