// Command mapshot sweeps a camera over map scenes and writes labeled screenshots as a detection dataset
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lixenwraith/mapshot/config"
	"github.com/lixenwraith/mapshot/core"
	"github.com/lixenwraith/mapshot/logger"
	"github.com/lixenwraith/mapshot/status"
)

func main() {
	cfg, err := config.ParseFlags("mapshot", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mapshot: %v\n", err)
		os.Exit(2)
	}

	closer, err := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mapshot: %v\n", err)
		os.Exit(2)
	}
	if closer != nil {
		defer closer.Close()
	}

	// Goroutine panics are logged before the process exits
	core.SetCrashHandler(func(r any, stack []byte) {
		logger.Log.WithField("panic", r).Errorf("Crash\n%s", stack)
		os.Exit(1)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, status.NewRegistry()); err != nil {
		logger.Log.WithError(err).Error("Run failed")
		stop()
		if closer != nil {
			closer.Close()
		}
		os.Exit(1)
	}
	logger.Log.Info("Dataset complete")
}
