package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
)

// COCO document shapes
type (
	CocoInfo struct {
		Description string `json:"description"`
		URL         string `json:"url"`
		Version     string `json:"version"`
		Year        int    `json:"year"`
		Contributor string `json:"contributor"`
		DateCreated string `json:"date_created"`
	}

	CocoLicense struct {
		URL  string `json:"url"`
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	CocoImage struct {
		License      int    `json:"license"`
		FileName     string `json:"file_name"`
		CocoURL      string `json:"coco_url"`
		Height       int    `json:"height"`
		Width        int    `json:"width"`
		DateCaptured string `json:"date_captured"`
		FlickrURL    string `json:"flickr_url"`
		ID           int    `json:"id"`
	}

	CocoCategory struct {
		SuperCategory string `json:"supercategory"`
		ID            int    `json:"id"`
		Name          string `json:"name"`
	}

	CocoAnnotation struct {
		Segmentation [][]float64 `json:"segmentation"`
		Area         float64     `json:"area"`
		IsCrowd      int         `json:"iscrowd"`
		ImageID      int         `json:"image_id"`
		BBox         []float64   `json:"bbox"`
		CategoryID   int         `json:"category_id"`
		ID           int         `json:"id"`
	}

	CocoDocument struct {
		Info        CocoInfo         `json:"info"`
		Licenses    []CocoLicense    `json:"licenses"`
		Images      []CocoImage      `json:"images"`
		Categories  []CocoCategory   `json:"categories"`
		Annotations []CocoAnnotation `json:"annotations"`
	}
)

// cocoPartition accumulates one split
type cocoPartition struct {
	imageDir    string
	jsonPath    string
	label       string
	images      []CocoImage
	annotations []CocoAnnotation
}

// CocoWriter writes images immediately and both annotation documents on Finish
// Category, image and annotation ids are shared across partitions
type CocoWriter struct {
	root       string
	name       string
	train      *cocoPartition
	val        *cocoPartition
	categories []CocoCategory
	classIDs   map[core.ObjectClass]int
	nextImage  int
	nextAnno   int
	finished   bool
	opts       options
}

// NewCocoWriter clears root and lays out image and annotation directories
func NewCocoWriter(root, name string, opts ...Option) (*CocoWriter, error) {
	o := buildOptions("coco", opts)
	if err := prepareRoot(root, o.log); err != nil {
		return nil, err
	}
	c := &CocoWriter{
		root:      root,
		name:      name,
		classIDs:  make(map[core.ObjectClass]int),
		nextImage: 1,
		nextAnno:  1,
		opts:      o,
		train: &cocoPartition{
			imageDir: filepath.Join(root, constant.CocoTrainImagesDir),
			jsonPath: filepath.Join(root, constant.CocoAnnotationsDir, constant.CocoTrainJSON),
			label:    "Training",
		},
		val: &cocoPartition{
			imageDir: filepath.Join(root, constant.CocoValImagesDir),
			jsonPath: filepath.Join(root, constant.CocoAnnotationsDir, constant.CocoValJSON),
			label:    "Validation",
		},
	}
	for _, dir := range []string{c.train.imageDir, c.val.imageDir, filepath.Join(root, constant.CocoAnnotationsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", core.ErrResource, dir, err)
		}
	}
	o.log.WithField("root", root).Info("COCO output opened")
	return c, nil
}

// Write routes the sample to a partition, stores its image and records annotations
func (c *CocoWriter) Write(s *core.Sample) error {
	if c.finished {
		return ErrFinished
	}
	if err := checkClasses(s); err != nil {
		return err
	}

	part := c.train
	if c.opts.validation() {
		part = c.val
	}
	if err := writeExclusive(filepath.Join(part.imageDir, s.FileName()), s.Image); err != nil {
		return err
	}
	c.opts.count(len(s.Image))

	img := CocoImage{
		License:      1,
		FileName:     s.FileName(),
		Height:       s.Height,
		Width:        s.Width,
		DateCaptured: time.Now().Format(time.DateTime),
		ID:           c.nextImage,
	}
	c.nextImage++
	part.images = append(part.images, img)

	for _, it := range s.Items {
		b := it.Box
		x, y := float64(b.X), float64(b.Y)
		w, h := float64(b.Width), float64(b.Height)
		part.annotations = append(part.annotations, CocoAnnotation{
			Segmentation: [][]float64{{x, y, x + w, y, x + w, y + h, x, y + h}},
			Area:         w * h,
			ImageID:      img.ID,
			BBox:         []float64{x, y, w, h},
			CategoryID:   c.category(it.Class),
			ID:           c.nextAnno,
		})
		c.nextAnno++
	}
	return nil
}

// category returns the first-seen id of class, registering it when new
func (c *CocoWriter) category(class core.ObjectClass) int {
	if id, ok := c.classIDs[class]; ok {
		return id
	}
	id := len(c.categories) + 1
	c.classIDs[class] = id
	c.categories = append(c.categories, CocoCategory{
		SuperCategory: constant.CocoSuperCategory,
		ID:            id,
		Name:          class.String(),
	})
	return id
}

// Finish writes the training and validation annotation documents
func (c *CocoWriter) Finish() error {
	if c.finished {
		return ErrFinished
	}
	c.finished = true

	now := time.Now()
	license := CocoLicense{ID: 1, Name: constant.CocoLicenseName}
	for _, part := range []*cocoPartition{c.train, c.val} {
		doc := CocoDocument{
			Info: CocoInfo{
				Description: fmt.Sprintf("%s - %s", c.name, part.label),
				Version:     constant.CocoDatasetVersion,
				Year:        now.Year(),
				Contributor: "mapshot",
				DateCreated: now.Format(time.DateOnly),
			},
			Licenses:    []CocoLicense{license},
			Images:      nonNil(part.images),
			Categories:  nonNil(c.categories),
			Annotations: nonNil(part.annotations),
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", part.jsonPath, err)
		}
		if err := writeExclusive(part.jsonPath, data); err != nil {
			return err
		}
		c.opts.count(len(data))
	}

	c.opts.log.WithFields(logrus.Fields{
		"train":      len(c.train.images),
		"val":        len(c.val.images),
		"categories": len(c.categories),
	}).Info("COCO output sealed")
	return nil
}

// nonNil keeps empty lists as [] rather than null in the documents
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
