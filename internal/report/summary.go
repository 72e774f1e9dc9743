// Package report turns tracker and aggregation results into the tabular and
// JSON artifacts the reporting sink consumes.
package report

import (
	"sort"
	"time"

	"github.com/rajnet70/Pingr-ml-insights/internal/analytics"
	"github.com/rajnet70/Pingr-ml-insights/internal/cycle"
	"github.com/rajnet70/Pingr-ml-insights/internal/event"
)

// ReasonCount is one rejection reason with its frequency.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// SymbolScore is one symbol's mean signal score over every scored event.
type SymbolScore struct {
	Symbol    string  `json:"symbol"`
	MeanScore float64 `json:"mean_score"`
	Events    int     `json:"events"`
}

// Summary is the machine-readable run record: ingestion counters, outcome
// totals, and the distribution breakdowns the original tracker printed.
type Summary struct {
	GeneratedAt time.Time `json:"generated_at"`

	TotalLines    int `json:"total_lines"`
	DecodedEvents int `json:"decoded_events"`
	SkippedLines  int `json:"skipped_lines"`
	NoTimestamp   int `json:"no_timestamp"`
	AlertCount    int `json:"alert_count"`

	CycleCount         int `json:"cycle_count"`
	SuccessByGain      int `json:"success_by_gain"`
	SuccessByStructure int `json:"success_by_structure"`
	Failure            int `json:"failure"`
	Indeterminate      int `json:"indeterminate"`
	StillActive        int `json:"still_active"`

	GainDistribution  *analytics.Stats `json:"gain_distribution,omitempty"`
	ScoreDistribution *analytics.Stats `json:"score_distribution,omitempty"`
	AlertRSI          *analytics.Stats `json:"alert_rsi,omitempty"`
	RejectedRSI       *analytics.Stats `json:"rejected_rsi,omitempty"`
	HeatDistribution  *analytics.Stats `json:"heat_distribution,omitempty"`

	MACDAlignment        map[string]int `json:"macd_alignment,omitempty"`
	RejectionReasons     []ReasonCount  `json:"rejection_reasons,omitempty"`
	TopSymbolsByScore    []SymbolScore  `json:"top_symbols_by_score,omitempty"`
	BottomSymbolsByScore []SymbolScore  `json:"bottom_symbols_by_score,omitempty"`
	AlertsByHour         map[int]int    `json:"alerts_by_hour,omitempty"`

	Tuning analytics.TuningReport `json:"tuning"`
}

const (
	topSymbolCount    = 15
	bottomSymbolCount = 10
	topReasonCount    = 15
)

// BuildSummary assembles the run summary from the decoded events, the cycle
// output, and the tuning report.
func BuildSummary(events []event.Event, stats event.Stats, cycles []cycle.Cycle, cls cycle.Classifier, tuning analytics.TuningReport) Summary {
	s := Summary{
		GeneratedAt:   time.Now().UTC(),
		TotalLines:    stats.Lines,
		DecodedEvents: stats.Decoded,
		SkippedLines:  stats.Skipped,
		NoTimestamp:   stats.NoTimestamp,
		Tuning:        tuning,
	}

	totals := analytics.Totals(cycles, cls)
	s.CycleCount = totals.Count
	s.SuccessByGain = totals.SuccessByGain
	s.SuccessByStructure = totals.SuccessByStructure
	s.Failure = totals.Failure
	s.Indeterminate = totals.Indeterminate
	for _, c := range cycles {
		if c.StillActive() {
			s.StillActive++
		}
	}

	var gains []float64
	for _, c := range cycles {
		if c.GainPercent != nil {
			gains = append(gains, *c.GainPercent)
		}
	}
	s.GainDistribution = describe(gains)

	var (
		scores, alertRSI, rejectedRSI, heat []float64
		macd                                = make(map[string]int)
		reasons                             = make(map[string]int)
		hours                               = make(map[int]int)
		symbolScores                        = make(map[string]*SymbolScore)
	)
	for _, ev := range events {
		if ev.SignalScore != nil {
			scores = append(scores, *ev.SignalScore)
			if ev.Symbol != "" {
				ss := symbolScores[ev.Symbol]
				if ss == nil {
					ss = &SymbolScore{Symbol: ev.Symbol}
					symbolScores[ev.Symbol] = ss
				}
				ss.MeanScore += *ev.SignalScore // sum until finalized below
				ss.Events++
			}
		}
		if ev.HeatIndex != nil {
			heat = append(heat, *ev.HeatIndex)
		}
		if ev.RSI15m != nil {
			if ev.AlertSent {
				alertRSI = append(alertRSI, *ev.RSI15m)
			}
			if len(ev.Rejected) > 0 {
				rejectedRSI = append(rejectedRSI, *ev.RSI15m)
			}
		}
		if ev.Context.MACDAlignment != nil {
			macd[*ev.Context.MACDAlignment]++
		}
		for _, reason := range ev.Rejected {
			reasons[reason]++
		}
		if ev.AlertSent {
			s.AlertCount++
			if ev.Timestamp != nil {
				hours[ev.Timestamp.Hour()]++
			}
		}
	}

	s.ScoreDistribution = describe(scores)
	s.AlertRSI = describe(alertRSI)
	s.RejectedRSI = describe(rejectedRSI)
	s.HeatDistribution = describe(heat)
	if len(macd) > 0 {
		s.MACDAlignment = macd
	}
	if len(hours) > 0 {
		s.AlertsByHour = hours
	}
	s.RejectionReasons = topReasons(reasons, topReasonCount)

	ranked := rankSymbols(symbolScores)
	s.TopSymbolsByScore = headSymbols(ranked, topSymbolCount)
	s.BottomSymbolsByScore = tailSymbols(ranked, bottomSymbolCount)
	return s
}

func describe(values []float64) *analytics.Stats {
	stats, ok := analytics.Describe(values)
	if !ok {
		return nil
	}
	return &stats
}

func topReasons(counts map[string]int, n int) []ReasonCount {
	out := make([]ReasonCount, 0, len(counts))
	for reason, count := range counts {
		out = append(out, ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// rankSymbols finalizes means and orders symbols from best to worst.
func rankSymbols(scores map[string]*SymbolScore) []SymbolScore {
	out := make([]SymbolScore, 0, len(scores))
	for _, ss := range scores {
		mean := ss.MeanScore / float64(ss.Events)
		out = append(out, SymbolScore{Symbol: ss.Symbol, MeanScore: mean, Events: ss.Events})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanScore != out[j].MeanScore {
			return out[i].MeanScore > out[j].MeanScore
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func headSymbols(ranked []SymbolScore, n int) []SymbolScore {
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return append([]SymbolScore(nil), ranked...)
}

func tailSymbols(ranked []SymbolScore, n int) []SymbolScore {
	if len(ranked) == 0 {
		return nil
	}
	start := len(ranked) - n
	if start < 0 {
		start = 0
	}
	tail := append([]SymbolScore(nil), ranked[start:]...)
	// Worst first, mirroring the ascending sort of the original report.
	for i, j := 0, len(tail)-1; i < j; i, j = i+1, j-1 {
		tail[i], tail[j] = tail[j], tail[i]
	}
	return tail
}
