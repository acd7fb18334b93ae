// Package audio plays a background tone for the map being sampled
package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/mapshot/asset"
	"github.com/lixenwraith/mapshot/config"
	"github.com/lixenwraith/mapshot/logger"
)

const sampleRate = beep.SampleRate(44100)

// Service owns the speaker for the process lifetime
// Without an audio device every call is a no-op; sampling never depends on sound
type Service struct {
	mu      sync.Mutex
	backend backend
	enabled bool
	volume  float64
	started bool
	broken  bool

	mixer *beep.Mixer
	bgm   *beep.Ctrl
	tone  float64

	log *logrus.Entry
}

// NewService creates the audio service, disabled until Init enables it
func NewService() *Service {
	return &Service{
		backend: speakerBackend{},
		volume:  0.5,
		mixer:   &beep.Mixer{},
		log:     logger.For("audio"),
	}
}

// Name implements service.Service
func (s *Service) Name() string { return "audio" }

// Dependencies implements service.Service
func (s *Service) Dependencies() []string { return nil }

// Enabled implements service.Enabler
func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Init implements service.Service
// args[0]: *config.Config; without it audio stays off
func (s *Service) Init(args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(args) > 0 {
		if cfg, ok := args[0].(*config.Config); ok {
			s.enabled = cfg.Audio.Enabled
			s.volume = cfg.Audio.Volume
		}
	}
	return nil
}

// Start implements service.Service
// A missing device is logged and leaves the service silent
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || s.started || s.broken {
		return nil
	}
	if err := s.backend.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		s.broken = true
		s.log.WithError(err).Warn("Audio backend unavailable, continuing without sound")
		return nil
	}
	s.backend.Play(s.mixer)
	s.started = true
	return nil
}

// PlayMap replaces the current tone with the map's BGM; a zero BGM is silence
func (s *Service) PlayMap(m *asset.Map) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || m == nil || m.BGM == s.tone {
		return
	}

	s.backend.Lock()
	defer s.backend.Unlock()
	if s.bgm != nil {
		s.bgm.Paused = true
		s.bgm = nil
	}
	s.mixer.Clear()
	s.tone = 0
	if m.BGM <= 0 {
		return
	}

	stream, err := newBGM(m.BGM, sampleRate)
	if err != nil {
		s.log.WithError(err).WithField("map", m.ID).Warn("Map BGM skipped")
		return
	}
	s.bgm = &beep.Ctrl{Streamer: stream}
	s.mixer.Add(newVolume(s.bgm, s.volume))
	s.tone = m.BGM
	s.log.WithFields(logrus.Fields{"map": m.ID, "hz": m.BGM}).Debug("Map BGM playing")
}

// Tone returns the frequency currently playing, 0 when silent
func (s *Service) Tone() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tone
}

// Stop implements service.Service
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.backend.Lock()
	s.mixer.Clear()
	s.backend.Unlock()
	s.backend.Clear()
	s.backend.Close()
	s.started = false
	s.bgm = nil
	s.tone = 0
	return nil
}
