package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hetulpatel/lotbidder/internal/app"
	"github.com/hetulpatel/lotbidder/internal/config"
	"github.com/hetulpatel/lotbidder/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.FromEnv().Fatalf("load config: %v", err)
	}
	log := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	pipeline, err := app.New(ctx, cfg, log, app.Options{Publish: true})
	if err != nil {
		log.Fatalf("wire pipeline: %v", err)
	}
	defer pipeline.Close()

	// SIGHUP runs an extra cycle without waiting for the ticker
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				pipeline.Processor.Trigger()
			}
		}
	}()

	log.Infof("[lot_bidder] polling every %s, board %d", cfg.PollInterval, cfg.BoardID)
	pipeline.Processor.Run(ctx, cfg.PollInterval, cfg.PollInterval)
	log.Infof("[lot_bidder] shut down")
}
