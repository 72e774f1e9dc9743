package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/rajnet70/Pingr-ml-insights/internal/analytics"
	"github.com/rajnet70/Pingr-ml-insights/internal/cycle"
	"github.com/rajnet70/Pingr-ml-insights/internal/event"
)

// Result bundles everything a run produced for the reporting sink.
type Result struct {
	Events  []event.Event
	Cycles  []cycle.Cycle
	Outcome []cycle.Outcome // parallel to Cycles
	Buckets []analytics.BucketTable
	Symbols map[string]analytics.GroupStats
	Hours   map[int]analytics.GroupStats
	Summary Summary
}

// Writer renders a Result into CSV and JSON files under one directory.
type Writer struct {
	dir        string
	cleanedCSV bool
	log        zerolog.Logger
}

// NewWriter creates a writer targeting dir; cleanedCSV additionally exports
// the normalized event table.
func NewWriter(dir string, cleanedCSV bool, log zerolog.Logger) *Writer {
	return &Writer{dir: dir, cleanedCSV: cleanedCSV, log: log}
}

// WriteAll renders every table. Unavailable bucket dimensions are logged and
// skipped rather than failing the run.
func (w *Writer) WriteAll(res Result) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := w.writeCycles(res); err != nil {
		return err
	}
	for _, table := range res.Buckets {
		if table.Unavailable {
			w.log.Warn().Str("dimension", string(table.Dimension)).Msg("bucket aggregate unavailable, skipping")
			continue
		}
		if err := w.writeBuckets(table); err != nil {
			return err
		}
	}
	if err := w.writeSymbols(res.Symbols); err != nil {
		return err
	}
	if err := w.writeHours(res.Hours); err != nil {
		return err
	}
	if w.cleanedCSV {
		if err := w.writeEvents(res.Events); err != nil {
			return err
		}
	}
	return w.writeSummary(res.Summary)
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s rows: %w", name, err)
	}
	w.log.Info().Str("file", path).Int("rows", len(rows)).Msg("report written")
	return nil
}

func (w *Writer) writeCycles(res Result) error {
	header := []string{
		"symbol", "start_time", "start_hour", "start_rsi", "start_heat", "start_score", "start_macd",
		"end_time", "end_reason", "gain_percent",
		"success_by_gain", "success_by_structure", "failure",
	}
	rows := make([][]string, 0, len(res.Cycles))
	for i, c := range res.Cycles {
		var out cycle.Outcome
		if i < len(res.Outcome) {
			out = res.Outcome[i]
		}
		rows = append(rows, []string{
			c.Symbol,
			c.StartTime.Format(time.RFC3339),
			strconv.Itoa(c.StartHour),
			floatField(c.StartRSI),
			floatField(c.StartHeat),
			floatField(c.StartScore),
			stringField(c.StartMACD),
			timeField(c.EndTime),
			stringField(c.EndReason),
			floatField(c.GainPercent),
			strconv.FormatBool(out.SuccessByGain),
			strconv.FormatBool(out.SuccessByStructure),
			strconv.FormatBool(out.Failure),
		})
	}
	return w.writeCSV("cycles.csv", header, rows)
}

func (w *Writer) writeBuckets(table analytics.BucketTable) error {
	header := []string{"bucket", "count", "mean_gain", "success_by_gain", "success_by_structure", "failure", "indeterminate"}
	rows := make([][]string, 0, len(table.Rows))
	for _, label := range table.Binning.Labels {
		stats, exists := table.Rows[label]
		if !exists {
			continue
		}
		rows = append(rows, append([]string{label}, statFields(stats)...))
	}
	return w.writeCSV(fmt.Sprintf("buckets_%s.csv", table.Dimension), header, rows)
}

func (w *Writer) writeSymbols(groups map[string]analytics.GroupStats) error {
	header := []string{"symbol", "count", "mean_gain", "success_by_gain", "success_by_structure", "failure", "indeterminate"}
	symbols := make([]string, 0, len(groups))
	for symbol := range groups {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	rows := make([][]string, 0, len(symbols))
	for _, symbol := range symbols {
		rows = append(rows, append([]string{symbol}, statFields(groups[symbol])...))
	}
	return w.writeCSV("symbols.csv", header, rows)
}

func (w *Writer) writeHours(groups map[int]analytics.GroupStats) error {
	header := []string{"hour", "count", "mean_gain", "success_by_gain", "success_by_structure", "failure", "indeterminate"}
	hours := make([]int, 0, len(groups))
	for hour := range groups {
		hours = append(hours, hour)
	}
	sort.Ints(hours)
	rows := make([][]string, 0, len(hours))
	for _, hour := range hours {
		rows = append(rows, append([]string{strconv.Itoa(hour)}, statFields(groups[hour])...))
	}
	return w.writeCSV("hours.csv", header, rows)
}

func (w *Writer) writeEvents(events []event.Event) error {
	header := []string{"symbol", "timestamp", "event_type", "alert_sent", "rsi_15m", "signal_score", "heat_index", "macd_alignment", "rejection_reasons", "reason", "total_gain_percent"}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rejected := ""
		if len(ev.Rejected) > 0 {
			joined, _ := json.Marshal(ev.Rejected)
			rejected = string(joined)
		}
		rows = append(rows, []string{
			ev.Symbol,
			timeField(ev.Timestamp),
			ev.EventType,
			strconv.FormatBool(ev.AlertSent),
			floatField(ev.RSI15m),
			floatField(ev.SignalScore),
			floatField(ev.HeatIndex),
			stringField(ev.Context.MACDAlignment),
			rejected,
			stringField(ev.Meta.Reason),
			floatField(ev.Meta.TotalGainPercent),
		})
	}
	return w.writeCSV("cleaned_events.csv", header, rows)
}

func (w *Writer) writeSummary(summary Summary) error {
	path := filepath.Join(w.dir, "summary.json")
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	w.log.Info().Str("file", path).Msg("summary written")
	return nil
}

func statFields(stats analytics.GroupStats) []string {
	return []string{
		strconv.Itoa(stats.Count),
		floatField(stats.MeanGain()),
		strconv.Itoa(stats.SuccessByGain),
		strconv.Itoa(stats.SuccessByStructure),
		strconv.Itoa(stats.Failure),
		strconv.Itoa(stats.Indeterminate),
	}
}

func floatField(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func stringField(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func timeField(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}
