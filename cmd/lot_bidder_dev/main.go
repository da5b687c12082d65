package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/hetulpatel/lotbidder/internal/app"
	"github.com/hetulpatel/lotbidder/internal/config"
	"github.com/hetulpatel/lotbidder/internal/logging"
)

func main() {
	publish := flag.Bool("publish", false, "also publish the batch to kafka")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.FromEnv().Fatalf("load config: %v", err)
	}
	log := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	pipeline, err := app.New(ctx, cfg, log, app.Options{Publish: *publish})
	if err != nil {
		log.Fatalf("wire pipeline: %v", err)
	}
	defer pipeline.Close()

	res, err := pipeline.Processor.RunCycle(ctx)
	if err != nil {
		log.Fatalf("cycle %s: %v", res.CycleID, err)
	}
	log.Infof("[lot_bidder_dev] cycle=%s fetched=%d new=%d skipped=%d failed=%d",
		res.CycleID, res.Fetched, len(res.Payloads), res.Skipped, res.Failed)

	out, err := json.MarshalIndent(res.Payloads, "", "  ")
	if err != nil {
		log.Fatalf("marshal payloads: %v", err)
	}
	fmt.Println(string(out))
}
