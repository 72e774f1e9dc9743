// Package event defines the typed trading-signal event model and the tolerant
// JSONL decoding used to load raw Pingr alert logs.
package event

import (
	"bufio"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rajnet70/Pingr-ml-insights/internal/metrics"
)

// DefaultEventType is assigned when a record carries no event_type tag.
const DefaultEventType = "generic"

// Context holds nested per-event market context.
type Context struct {
	MACDAlignment *string `json:"macd_alignment"`
}

// Meta holds resolution metadata attached to momentum_end events.
type Meta struct {
	Reason           *string  `json:"reason"`
	TotalGainPercent *float64 `json:"total_gain_percent"`
}

// Event is one observation for one symbol at one timestamp. Optional fields
// stay nil when the source record omits them or holds an uncoercible value;
// events are never mutated after decoding.
type Event struct {
	Symbol      string
	Timestamp   *time.Time
	EventType   string
	AlertSent   bool
	RSI15m      *float64
	SignalScore *float64
	HeatIndex   *float64
	Context     Context
	Rejected    []string
	Meta        Meta
}

// Stats counts what happened during a decode pass.
type Stats struct {
	Lines       int
	Decoded     int
	Skipped     int
	NoTimestamp int
}

type rawEvent struct {
	Symbol           string          `json:"symbol"`
	Timestamp        json.RawMessage `json:"timestamp"`
	EventType        string          `json:"event_type"`
	AlertSent        bool            `json:"alert_sent"`
	RSI15m           json.RawMessage `json:"rsi_15m"`
	SignalScore      json.RawMessage `json:"signal_score"`
	HeatIndex        json.RawMessage `json:"heat_index"`
	Context          Context         `json:"context"`
	RejectionReasons []string        `json:"rejection_reasons"`
	Rejected         []string        `json:"rejected"` // legacy key in older logs
	Meta             rawMeta         `json:"meta"`
}

type rawMeta struct {
	Reason           *string         `json:"reason"`
	TotalGainPercent json.RawMessage `json:"total_gain_percent"`
}

// DecodeLines reads newline-delimited JSON events, skipping lines that fail
// to parse. Numeric fields accept both JSON numbers and quoted numeric
// strings; anything else decodes to nil.
func DecodeLines(r io.Reader) ([]Event, Stats, error) {
	var (
		events []Event
		stats  Stats
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stats.Lines++
		ev, err := Decode([]byte(line))
		if err != nil {
			stats.Skipped++
			metrics.LinesSkipped.Inc()
			continue
		}
		if ev.Timestamp == nil {
			stats.NoTimestamp++
		}
		stats.Decoded++
		metrics.EventsDecoded.Inc()
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, stats, err
	}
	return events, stats, nil
}

// Decode parses one JSON event record.
func Decode(data []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, err
	}
	return raw.toEvent(), nil
}

func (raw rawEvent) toEvent() Event {
	eventType := raw.EventType
	if eventType == "" {
		eventType = DefaultEventType
	}
	rejected := raw.RejectionReasons
	if rejected == nil {
		rejected = raw.Rejected
	}
	return Event{
		Symbol:      raw.Symbol,
		Timestamp:   coerceTime(raw.Timestamp),
		EventType:   eventType,
		AlertSent:   raw.AlertSent,
		RSI15m:      coerceFloat(raw.RSI15m),
		SignalScore: coerceFloat(raw.SignalScore),
		HeatIndex:   coerceFloat(raw.HeatIndex),
		Context:     raw.Context,
		Rejected:    rejected,
		Meta: Meta{
			Reason:           raw.Meta.Reason,
			TotalGainPercent: coerceFloat(raw.Meta.TotalGainPercent),
		},
	}
}

func coerceFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return nil
	}
	text = strings.Trim(text, `"`)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &v
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func coerceTime(raw json.RawMessage) *time.Time {
	if len(raw) == 0 {
		return nil
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return nil
	}
	if text[0] == '"' {
		text = strings.Trim(text, `"`)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, text); err == nil {
				ts = ts.UTC()
				return &ts
			}
		}
		return nil
	}
	// Bare numbers are epoch seconds, or milliseconds when too large.
	epoch, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	secs := epoch
	if epoch > 1e12 {
		secs = epoch / 1000
	}
	ts := time.Unix(int64(secs), 0).UTC()
	return &ts
}

// SortByTime filters out events without a parseable timestamp and returns the
// remainder in ascending time order. The sort is stable, so equal timestamps
// keep their original arrival order. The dropped count is returned alongside.
func SortByTime(events []Event) ([]Event, int) {
	ordered := make([]Event, 0, len(events))
	dropped := 0
	for _, ev := range events {
		if ev.Timestamp == nil {
			dropped++
			continue
		}
		ordered = append(ordered, ev)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(*ordered[j].Timestamp)
	})
	return ordered, dropped
}
