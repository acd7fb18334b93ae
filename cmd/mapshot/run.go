package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/mapshot/asset"
	"github.com/lixenwraith/mapshot/audio"
	"github.com/lixenwraith/mapshot/config"
	"github.com/lixenwraith/mapshot/dataset"
	"github.com/lixenwraith/mapshot/engine"
	"github.com/lixenwraith/mapshot/logger"
	"github.com/lixenwraith/mapshot/monitor"
	"github.com/lixenwraith/mapshot/render"
	"github.com/lixenwraith/mapshot/sampler"
	"github.com/lixenwraith/mapshot/scene"
	"github.com/lixenwraith/mapshot/service"
	"github.com/lixenwraith/mapshot/status"
)

// mapSource fills in the configured background for maps that name none
type mapSource struct {
	archive    *asset.Archive
	background string
}

func (s mapSource) Load(id string) (*asset.Map, error) {
	m, err := s.archive.Load(id)
	if err != nil {
		return nil, err
	}
	if m.Background == "" {
		m.Background = s.background
	}
	return m, nil
}

// run samples every configured map into one dataset
func run(ctx context.Context, cfg *config.Config, reg *status.Registry) (err error) {
	log := logger.For("main")
	if err := cfg.Validate(); err != nil {
		return err
	}

	hub := service.NewHub()
	sound := audio.NewService()
	for _, svc := range []service.Service{sound, monitor.New(reg)} {
		if err := hub.Register(svc); err != nil {
			return err
		}
	}
	if err := hub.InitAll(cfg); err != nil {
		return err
	}
	if err := hub.StartAll(); err != nil {
		return err
	}
	defer hub.StopAll()

	archive, err := asset.Open(cfg.Assets)
	if err != nil {
		return err
	}
	kinds, err := cfg.ExtractKinds()
	if err != nil {
		return err
	}

	ctrl := render.NewController(
		mapSource{archive: archive, background: cfg.Render.Background},
		engine.NewFactory(engine.WithFrameInterval(cfg.FrameInterval())),
		render.WithWalker(scene.NewWalker(scene.WithKinds(kinds...))),
		render.WithTimeouts(cfg.Render.LaunchTimeout.Duration, cfg.Render.CaptureTimeout.Duration),
	)
	if err := ctrl.LoadMap(cfg.Maps[0]); err != nil {
		return err
	}
	if err := ctrl.Launch(ctx, cfg.Render.Width, cfg.Render.Height); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Render.CaptureTimeout.Duration)
		defer cancel()
		if cerr := ctrl.Close(closeCtx); cerr != nil {
			log.WithError(cerr).Warn("Render loop did not stop cleanly")
			err = errors.Join(err, cerr)
		}
	}()

	var post []sampler.PostProcessor
	if cfg.Post.Enabled {
		popts := []sampler.PlayerOption{
			sampler.WithCount(cfg.Post.Count),
			sampler.WithRange(cfg.Post.Range),
			sampler.WithOverlayStatus(reg),
		}
		if cfg.Sampling.Seed != 0 {
			popts = append(popts, sampler.WithSeed(cfg.Sampling.Seed))
		}
		players, err := sampler.NewPlayerProcessor(cfg.Post.Players, popts...)
		if err != nil {
			return err
		}
		post = append(post, players)
	}

	frames := reg.Ints.Get(status.KeyFrames)
	smp, err := sampler.New(ctrl,
		sampler.WithPostProcessors(post...),
		sampler.WithQuality(cfg.Sampling.Quality),
		sampler.WithStatus(reg),
		sampler.WithProgress(func(done, total int) { frames.Store(int64(ctrl.Frames())) }),
	)
	if err != nil {
		return err
	}

	format, err := dataset.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	wopts := []dataset.Option{
		dataset.WithValidationPortion(cfg.Output.ValidationPortion),
		dataset.WithStatus(reg),
	}
	if cfg.Sampling.Seed != 0 {
		wopts = append(wopts, dataset.WithSeed(cfg.Sampling.Seed))
	}
	writer, err := dataset.New(format, cfg.Output.Path, asset.NormalizeID(cfg.Maps[0]), wopts...)
	if err != nil {
		return err
	}

	sweepErr := sweep(ctx, cfg, ctrl, smp, writer, sound, reg, log)
	// Index files are sealed even after a failed sweep so the samples on disk stay usable
	if ferr := writer.Finish(); ferr != nil {
		return errors.Join(sweepErr, fmt.Errorf("finish dataset: %w", ferr))
	}
	return sweepErr
}

func sweep(ctx context.Context, cfg *config.Config, ctrl *render.Controller, smp *sampler.Sampler,
	w dataset.Writer, sound *audio.Service, reg *status.Registry, log *logrus.Entry) error {
	mapName := reg.Strings.Get(status.KeyMap)
	phase := reg.Strings.Get(status.KeyPhase)

	for i, id := range cfg.Maps {
		if i > 0 {
			phase.Store("switching")
			if err := ctrl.SwitchMap(ctx, id); err != nil {
				return fmt.Errorf("switch to map %s: %w", id, err)
			}
		}
		mapName.Store(ctrl.MapID())
		sound.PlayMap(ctrl.Map())

		phase.Store("sampling")
		start := time.Now()
		if err := smp.SampleAll(ctx, cfg.Sampling.XStep, cfg.Sampling.YStep, w, cfg.Interval()); err != nil {
			phase.Store("failed")
			return fmt.Errorf("sample map %s: %w", id, err)
		}
		log.WithFields(logrus.Fields{"map": ctrl.MapID(), "elapsed": time.Since(start).Round(time.Millisecond)}).Info("Map sampled")
	}
	phase.Store("done")
	return nil
}
