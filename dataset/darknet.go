package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
)

// manifest is an append-only list of image paths, flushed per line
type manifest struct {
	f     *os.File
	w     *bufio.Writer
	lines int
}

func openManifest(p string) (*manifest, error) {
	f, err := createExclusive(p)
	if err != nil {
		return nil, err
	}
	return &manifest{f: f, w: bufio.NewWriter(f)}, nil
}

func (m *manifest) append(line string) error {
	if _, err := m.w.WriteString(line + "\n"); err != nil {
		return err
	}
	if err := m.w.Flush(); err != nil {
		return err
	}
	m.lines++
	return nil
}

func (m *manifest) close() error {
	if err := m.w.Flush(); err != nil {
		m.f.Close()
		return err
	}
	return m.f.Close()
}

// DarknetWriter writes YOLO label files next to each image
// Class indices are assigned from 0 in first-seen order
type DarknetWriter struct {
	root     string
	base     string
	objDir   string
	train    *manifest
	test     *manifest
	classes  []core.ObjectClass
	index    map[core.ObjectClass]int
	finished bool
	opts     options
}

// NewDarknetWriter clears root and opens both manifests
func NewDarknetWriter(root string, opts ...Option) (*DarknetWriter, error) {
	o := buildOptions("darknet", opts)
	if err := prepareRoot(root, o.log); err != nil {
		return nil, err
	}
	d := &DarknetWriter{
		root:   root,
		base:   filepath.Base(filepath.Clean(root)),
		objDir: filepath.Join(root, constant.DarknetObjDir),
		index:  make(map[core.ObjectClass]int),
		opts:   o,
	}
	if err := os.MkdirAll(d.objDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", core.ErrResource, d.objDir, err)
	}

	var err error
	if d.train, err = openManifest(filepath.Join(root, constant.DarknetTrainManifest)); err != nil {
		return nil, err
	}
	if d.test, err = openManifest(filepath.Join(root, constant.DarknetTestManifest)); err != nil {
		d.train.close()
		return nil, err
	}
	o.log.WithField("root", root).Info("Darknet output opened")
	return d, nil
}

// Write stores the image, its label file and one manifest line
// Labels are validated before anything touches disk
func (d *DarknetWriter) Write(s *core.Sample) error {
	if d.finished {
		return ErrFinished
	}
	if err := checkClasses(s); err != nil {
		return err
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: sample %s has size %dx%d", core.ErrCorruption, s.ID, s.Width, s.Height)
	}

	pending := make(map[core.ObjectClass]int)
	var fresh []core.ObjectClass
	var label strings.Builder
	w, h := float64(s.Width), float64(s.Height)
	for _, it := range s.Items {
		idx, ok := d.index[it.Class]
		if !ok {
			if idx, ok = pending[it.Class]; !ok {
				idx = len(d.classes) + len(fresh)
				pending[it.Class] = idx
				fresh = append(fresh, it.Class)
			}
		}

		b := it.Box
		values := [4]float64{
			(float64(b.X) + float64(b.Width)/2) / w,
			(float64(b.Y) + float64(b.Height)/2) / h,
			float64(b.Width) / w,
			float64(b.Height) / h,
		}
		label.WriteString(strconv.Itoa(idx))
		for _, v := range values {
			if v < 0 || v > 1 {
				return fmt.Errorf("%w: sample %s item %d label value %v outside [0,1]", core.ErrCorruption, s.ID, it.ID, v)
			}
			label.WriteByte(' ')
			label.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		}
		label.WriteByte('\n')
	}

	id := s.ID.String()
	if err := writeExclusive(filepath.Join(d.objDir, id+".jpg"), s.Image); err != nil {
		return err
	}
	if err := writeExclusive(filepath.Join(d.objDir, id+".txt"), []byte(label.String())); err != nil {
		return err
	}
	d.opts.count(len(s.Image) + label.Len())

	for _, c := range fresh {
		d.index[c] = pending[c]
		d.classes = append(d.classes, c)
	}

	m := d.train
	if d.opts.validation() {
		m = d.test
	}
	if err := m.append(path.Join(d.base, constant.DarknetObjDir, id+".jpg")); err != nil {
		return fmt.Errorf("append manifest: %w", err)
	}
	return nil
}

// Classes returns the registered classes in index order
func (d *DarknetWriter) Classes() []core.ObjectClass {
	out := make([]core.ObjectClass, len(d.classes))
	copy(out, d.classes)
	return out
}

// Finish writes class names and the descriptor, then closes both manifests
func (d *DarknetWriter) Finish() error {
	if d.finished {
		return ErrFinished
	}
	d.finished = true

	var names strings.Builder
	for _, c := range d.classes {
		names.WriteString(c.String())
		names.WriteByte('\n')
	}
	if err := writeExclusive(filepath.Join(d.root, constant.DarknetClassNamesFile), []byte(names.String())); err != nil {
		return err
	}

	descriptor := strings.Join([]string{
		"classes=" + strconv.Itoa(len(d.classes)),
		"train=" + path.Join(d.base, constant.DarknetTrainManifest),
		"valid=" + path.Join(d.base, constant.DarknetTestManifest),
		"names=" + path.Join(d.base, constant.DarknetClassNamesFile),
		constant.DarknetBackupLine,
	}, "\n") + "\n"
	if err := writeExclusive(filepath.Join(d.root, constant.DarknetDescriptorFile), []byte(descriptor)); err != nil {
		return err
	}
	d.opts.count(names.Len() + len(descriptor))

	if err := d.train.close(); err != nil {
		d.test.close()
		return fmt.Errorf("close train manifest: %w", err)
	}
	if err := d.test.close(); err != nil {
		return fmt.Errorf("close test manifest: %w", err)
	}

	d.opts.log.WithFields(logrus.Fields{
		"train":   d.train.lines,
		"test":    d.test.lines,
		"classes": len(d.classes),
	}).Info("Darknet output sealed")
	return nil
}
