package report

import (
	"testing"
	"time"

	"github.com/rajnet70/Pingr-ml-insights/internal/analytics"
	"github.com/rajnet70/Pingr-ml-insights/internal/cycle"
	"github.com/rajnet70/Pingr-ml-insights/internal/event"
)

func fp(v float64) *float64 { return &v }
func sp(v string) *string   { return &v }

func tsAt(hour int) *time.Time {
	ts := time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC)
	return &ts
}

func TestBuildSummary(t *testing.T) {
	events := []event.Event{
		{Symbol: "AAA", Timestamp: tsAt(9), AlertSent: true, RSI15m: fp(55), SignalScore: fp(7), HeatIndex: fp(1.1), Context: event.Context{MACDAlignment: sp("bullish")}},
		{Symbol: "BBB", Timestamp: tsAt(9), AlertSent: true, RSI15m: fp(61), SignalScore: fp(4)},
		{Symbol: "CCC", Timestamp: tsAt(12), RSI15m: fp(72), SignalScore: fp(2), Rejected: []string{"low_volume", "weak_macd"}},
		{Symbol: "CCC", Timestamp: tsAt(13), Rejected: []string{"low_volume"}},
	}
	stats := event.Stats{Lines: 5, Decoded: 4, Skipped: 1, NoTimestamp: 0}
	cycles := []cycle.Cycle{
		{Symbol: "AAA", GainPercent: fp(2.0), EndReason: sp("target_hit")},
		{Symbol: "BBB", EndReason: sp(cycle.ReasonStillActive)},
	}
	tuning := analytics.TuningReport{Best: map[analytics.Dimension]string{analytics.DimensionRSI: "ideal"}}

	s := BuildSummary(events, stats, cycles, cycle.NewClassifier(), tuning)

	if s.TotalLines != 5 || s.DecodedEvents != 4 || s.SkippedLines != 1 {
		t.Fatalf("ingestion counters wrong: %+v", s)
	}
	if s.AlertCount != 2 {
		t.Fatalf("expected 2 alerts, got %d", s.AlertCount)
	}
	if s.CycleCount != 2 || s.SuccessByGain != 1 || s.StillActive != 1 {
		t.Fatalf("outcome totals wrong: %+v", s)
	}
	if s.GainDistribution == nil || s.GainDistribution.Count != 1 || s.GainDistribution.Mean != 2.0 {
		t.Fatalf("gain distribution wrong: %+v", s.GainDistribution)
	}
	if s.ScoreDistribution == nil || s.ScoreDistribution.Count != 3 {
		t.Fatalf("score distribution wrong: %+v", s.ScoreDistribution)
	}
	if s.AlertRSI == nil || s.AlertRSI.Count != 2 || s.AlertRSI.Mean != 58 {
		t.Fatalf("alert rsi wrong: %+v", s.AlertRSI)
	}
	if s.RejectedRSI == nil || s.RejectedRSI.Count != 1 || s.RejectedRSI.Mean != 72 {
		t.Fatalf("rejected rsi wrong: %+v", s.RejectedRSI)
	}
	if s.MACDAlignment["bullish"] != 1 {
		t.Fatalf("macd counts wrong: %+v", s.MACDAlignment)
	}
	if len(s.RejectionReasons) != 2 || s.RejectionReasons[0].Reason != "low_volume" || s.RejectionReasons[0].Count != 2 {
		t.Fatalf("rejection reasons wrong: %+v", s.RejectionReasons)
	}
	if s.AlertsByHour[9] != 2 {
		t.Fatalf("alerts by hour wrong: %+v", s.AlertsByHour)
	}
	if len(s.TopSymbolsByScore) != 3 || s.TopSymbolsByScore[0].Symbol != "AAA" {
		t.Fatalf("top symbols wrong: %+v", s.TopSymbolsByScore)
	}
	if s.BottomSymbolsByScore[0].Symbol != "CCC" {
		t.Fatalf("bottom symbols should lead with the weakest: %+v", s.BottomSymbolsByScore)
	}
	if s.Tuning.Best[analytics.DimensionRSI] != "ideal" {
		t.Fatalf("tuning report not carried through")
	}
}

func TestBuildSummaryEmptyInput(t *testing.T) {
	s := BuildSummary(nil, event.Stats{}, nil, cycle.NewClassifier(), analytics.TuningReport{})
	if s.CycleCount != 0 || s.AlertCount != 0 {
		t.Fatalf("empty input must produce zero counts: %+v", s)
	}
	if s.GainDistribution != nil || s.ScoreDistribution != nil {
		t.Fatalf("empty input must report no distributions")
	}
	if len(s.TopSymbolsByScore) != 0 || len(s.RejectionReasons) != 0 {
		t.Fatalf("empty input must produce empty rankings")
	}
}
