package audio

import (
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// backend is the process-wide output device
// The speaker package is a singleton, so at most one backend is live per process
type backend interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Clear()
	Close()
}

type speakerBackend struct{}

func (speakerBackend) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}

func (speakerBackend) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerBackend) Lock()                { speaker.Lock() }
func (speakerBackend) Unlock()              { speaker.Unlock() }
func (speakerBackend) Clear()               { speaker.Clear() }
func (speakerBackend) Close()               { speaker.Close() }
