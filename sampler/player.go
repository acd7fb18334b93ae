package sampler

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gg"
	"golang.org/x/image/bmp"

	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/status"
)

// sprite is a decoded overlay image with its mirrored twin
type sprite struct {
	name    string
	image   *gg.ImageBuf
	flipped *gg.ImageBuf
	width   int
	height  int
}

// PlayerProcessor pastes player sprites onto samples and labels them as Player
type PlayerProcessor struct {
	sprites   []sprite
	count     int
	placement float64

	mu  sync.Mutex
	rng *rand.Rand

	statOverlays *atomic.Int64
}

// PlayerOption configures a PlayerProcessor
type PlayerOption func(*PlayerProcessor)

// WithCount sets the number of sprites pasted per sample
func WithCount(n int) PlayerOption {
	return func(p *PlayerProcessor) {
		if n > 0 {
			p.count = n
		}
	}
}

// WithRange sets the central fraction of the frame sprites are placed in
func WithRange(f float64) PlayerOption {
	return func(p *PlayerProcessor) {
		if f > 0.5 && f <= 1 {
			p.placement = f
		}
	}
}

// WithSeed makes placement reproducible
func WithSeed(seed uint64) PlayerOption {
	return func(p *PlayerProcessor) { p.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithOverlayStatus counts pasted sprites into reg
func WithOverlayStatus(reg *status.Registry) PlayerOption {
	return func(p *PlayerProcessor) { p.statOverlays = reg.Ints.Get(status.KeyOverlays) }
}

// NewPlayerProcessor loads every .bmp and .png sprite in dir
func NewPlayerProcessor(dir string, opts ...PlayerOption) (*PlayerProcessor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: player sprite directory %s: %v", core.ErrResource, dir, err)
	}

	p := &PlayerProcessor{
		count:     1,
		placement: constant.PlayerRange,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(p)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".bmp" || ext == ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		s, err := loadSprite(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		p.sprites = append(p.sprites, s)
	}
	if len(p.sprites) == 0 {
		return nil, fmt.Errorf("%w: %s contains no .bmp or .png sprites", core.ErrResource, dir)
	}
	return p, nil
}

func loadSprite(path string) (sprite, error) {
	f, err := os.Open(path)
	if err != nil {
		return sprite{}, fmt.Errorf("%w: open sprite: %v", core.ErrResource, err)
	}
	defer f.Close()

	var img image.Image
	if strings.EqualFold(filepath.Ext(path), ".bmp") {
		img, err = bmp.Decode(f)
	} else {
		img, err = png.Decode(f)
	}
	if err != nil {
		return sprite{}, fmt.Errorf("%w: decode sprite %s: %v", core.ErrResource, path, err)
	}

	b := img.Bounds()
	return sprite{
		name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		image:   gg.ImageBufFromImage(img),
		flipped: gg.ImageBufFromImage(mirror(img)),
		width:   b.Dx(),
		height:  b.Dy(),
	}, nil
}

// mirror flips an image horizontally
func mirror(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for l, r := 0, w-1; l < r; l, r = l+1, r-1 {
			lp, rp := row[l*4:l*4+4], row[r*4:r*4+4]
			for i := 0; i < 4; i++ {
				lp[i], rp[i] = rp[i], lp[i]
			}
		}
	}
	return dst
}

// Process pastes Count sprites with top-left inside the central range, fully inside the frame
func (p *PlayerProcessor) Process(d *Draft) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < p.count; i++ {
		s := p.sprites[p.rng.IntN(len(p.sprites))]
		if s.width > d.Width || s.height > d.Height {
			continue
		}

		x := p.place(d.Width, s.width)
		y := p.place(d.Height, s.height)

		img := s.image
		if p.rng.Float64() < constant.PlayerFlipChance {
			img = s.flipped
		}
		d.Canvas.DrawImage(img, float64(x), float64(y))
		d.Items = append(d.Items, core.TargetItem{
			ID:    i,
			Class: core.ClassPlayer,
			Box:   core.Rect{X: x, Y: y, Width: s.width, Height: s.height},
			Name:  s.name,
			Index: i,
		})
		if p.statOverlays != nil {
			p.statOverlays.Add(1)
		}
	}
	return nil
}

// place picks an origin in [size*(1-range), size*range) clamped so the sprite fits
func (p *PlayerProcessor) place(size, extent int) int {
	lo := int(float64(size) * (1 - p.placement))
	hi := int(float64(size) * p.placement)
	pos := lo
	if hi > lo {
		pos = lo + p.rng.IntN(hi-lo)
	}
	return min(pos, size-extent)
}
