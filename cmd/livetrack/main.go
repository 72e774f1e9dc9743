package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rajnet70/Pingr-ml-insights/internal/config"
	"github.com/rajnet70/Pingr-ml-insights/internal/cycle"
	"github.com/rajnet70/Pingr-ml-insights/internal/event"
	"github.com/rajnet70/Pingr-ml-insights/internal/ingest"
	"github.com/rajnet70/Pingr-ml-insights/internal/metrics"
	"github.com/rajnet70/Pingr-ml-insights/internal/util"
)

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	classifier, err := cfg.Tracking.Classifier()
	if err != nil {
		log.Fatal().Err(err).Msg("bad tracking config")
	}
	policy, err := cfg.Tracking.ReAlert()
	if err != nil {
		log.Fatal().Err(err).Msg("bad tracking config")
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source := ingest.NewWSSource(cfg.Live.URL, log)
	events := make(chan event.Event, 1024)
	go func() {
		if err := source.Run(ctx, events); err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Msg("event stream stopped")
				cancel()
			}
		}
	}()

	tracker := cycle.NewTracker(policy)
	snapshotEvery := time.Duration(cfg.Live.SnapshotSecs) * time.Second
	if snapshotEvery <= 0 {
		snapshotEvery = time.Minute
	}
	ticker := time.NewTicker(snapshotEvery)
	defer ticker.Stop()

	closedTotal := 0
	log.Info().Str("url", cfg.Live.URL).Msg("live cycle tracking started")
	for {
		select {
		case <-ctx.Done():
			flushed := tracker.FlushOpen()
			log.Info().
				Int("closed", closedTotal).
				Int("still_active", len(flushed)).
				Msg("shutting down")
			return
		case ev := <-events:
			closed := tracker.Observe(ev)
			if closed == nil {
				continue
			}
			closedTotal++
			out := classifier.Classify(*closed)
			entry := log.Info().
				Str("symbol", closed.Symbol).
				Bool("success_by_gain", out.SuccessByGain).
				Bool("success_by_structure", out.SuccessByStructure).
				Bool("failure", out.Failure)
			if closed.GainPercent != nil {
				entry = entry.Float64("gain_percent", *closed.GainPercent)
			}
			if closed.EndReason != nil {
				entry = entry.Str("reason", *closed.EndReason)
			}
			entry.Msg("cycle closed")
		case <-ticker.C:
			log.Info().
				Int("open", tracker.OpenCount()).
				Int("closed", closedTotal).
				Msg("tracker snapshot")
		}
	}
}
