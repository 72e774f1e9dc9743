package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/rajnet70/Pingr-ml-insights/internal/analytics"
	"github.com/rajnet70/Pingr-ml-insights/internal/config"
	"github.com/rajnet70/Pingr-ml-insights/internal/cycle"
	"github.com/rajnet70/Pingr-ml-insights/internal/event"
	"github.com/rajnet70/Pingr-ml-insights/internal/ingest"
	"github.com/rajnet70/Pingr-ml-insights/internal/report"
	"github.com/rajnet70/Pingr-ml-insights/internal/util"
)

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		bootLog := util.NewConsoleLogger("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := util.NewConsoleLogger(cfg.App.LogLevel)

	classifier, err := cfg.Tracking.Classifier()
	if err != nil {
		log.Fatal().Err(err).Msg("bad tracking config")
	}
	policy, err := cfg.Tracking.ReAlert()
	if err != nil {
		log.Fatal().Err(err).Msg("bad tracking config")
	}

	events, stats, err := ingest.LoadFile(cfg.Input.LogFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Input.LogFile).Msg("load alert log")
	}
	log.Info().
		Int("lines", stats.Lines).
		Int("decoded", stats.Decoded).
		Int("skipped", stats.Skipped).
		Msg("alert log loaded")

	ordered, dropped := event.SortByTime(events)
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("events without a parseable timestamp excluded")
	}

	cycles := cycle.NewTracker(policy).Track(ordered)
	outcomes := make([]cycle.Outcome, len(cycles))
	still := 0
	for i, c := range cycles {
		outcomes[i] = classifier.Classify(c)
		if c.StillActive() {
			still++
		}
	}
	log.Info().Int("cycles", len(cycles)).Int("still_active", still).Msg("momentum cycles tracked")

	buckets := buildBucketTables(cfg, log, cycles, classifier)
	tuning := analytics.Summarize(buckets)
	for _, suggestion := range tuning.Suggestions {
		log.Info().Str("suggestion", suggestion).Msg("tuning")
	}

	summary := report.BuildSummary(events, stats, cycles, classifier, tuning)
	writer := report.NewWriter(cfg.Output.Dir, cfg.Output.CleanedCSV, log)
	err = writer.WriteAll(report.Result{
		Events:  events,
		Cycles:  cycles,
		Outcome: outcomes,
		Buckets: buckets,
		Symbols: analytics.AggregateBySymbol(cycles, classifier),
		Hours:   analytics.AggregateByHour(cycles, classifier),
		Summary: summary,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("write reports")
	}

	log.Info().
		Int("success_by_gain", summary.SuccessByGain).
		Int("success_by_structure", summary.SuccessByStructure).
		Int("failure", summary.Failure).
		Str("dir", cfg.Output.Dir).
		Msg("analysis complete")
}

func buildBucketTables(cfg *config.Config, log zerolog.Logger, cycles []cycle.Cycle, classifier cycle.Classifier) []analytics.BucketTable {
	specs := []struct {
		dim  analytics.Dimension
		spec config.BinningSpec
	}{
		{analytics.DimensionRSI, cfg.Buckets.RSI},
		{analytics.DimensionHeat, cfg.Buckets.Heat},
		{analytics.DimensionScore, cfg.Buckets.Score},
	}
	tables := make([]analytics.BucketTable, 0, len(specs))
	for _, s := range specs {
		binning, fixed, err := s.spec.Binning()
		if err != nil {
			log.Fatal().Err(err).Str("dimension", string(s.dim)).Msg("bad bucket config")
		}
		if fixed {
			tables = append(tables, analytics.AggregateByBucket(cycles, classifier, s.dim, binning))
			continue
		}
		tables = append(tables, analytics.AggregateByQuantile(cycles, classifier, s.dim))
	}
	return tables
}
