package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// swell slowly modulates the amplitude of an endless stream
type swell struct {
	streamer beep.Streamer
	period   int
	pos      int
	depth    float64
}

func (s *swell) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = s.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		phase := float64(s.pos%s.period) / float64(s.period)
		vol := 1 - s.depth*(0.5+0.5*math.Cos(2*math.Pi*phase))
		samples[i][0] *= vol
		samples[i][1] *= vol
		s.pos++
	}
	return n, ok
}

func (s *swell) Err() error { return s.streamer.Err() }

// newBGM builds the looping map tone: root, fifth and octave under a slow swell
func newBGM(freq float64, rate beep.SampleRate) (beep.Streamer, error) {
	var voices []beep.Streamer
	for _, ratio := range []float64{1, 1.5, 2} {
		tone, err := generators.SineTone(rate, freq*ratio)
		if err != nil {
			return nil, fmt.Errorf("bgm tone %.1fHz: %w", freq*ratio, err)
		}
		voices = append(voices, tone)
	}
	mixed := newVolume(beep.Mix(voices...), 1.0/float64(len(voices)))
	return &swell{streamer: mixed, period: rate.N(4 * time.Second), depth: 0.6}, nil
}

// newVolume scales linearly; math.Log2(0) is -Inf so zero maps to silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
