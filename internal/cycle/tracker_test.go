package cycle

import (
	"reflect"
	"testing"
	"time"

	"github.com/rajnet70/Pingr-ml-insights/internal/event"
)

var base = time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)

func at(minute int) *time.Time {
	ts := base.Add(time.Duration(minute) * time.Minute)
	return &ts
}

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }

func alert(symbol string, minute int) event.Event {
	return event.Event{
		Symbol:      symbol,
		Timestamp:   at(minute),
		EventType:   "spike_alert",
		AlertSent:   true,
		RSI15m:      fptr(58),
		HeatIndex:   fptr(1.4),
		SignalScore: fptr(6.5),
		Context:     event.Context{MACDAlignment: sptr("bullish")},
	}
}

func momentumEnd(symbol string, minute int, reason string, gain *float64) event.Event {
	return event.Event{
		Symbol:    symbol,
		Timestamp: at(minute),
		EventType: EventMomentumEnd,
		Meta:      event.Meta{Reason: sptr(reason), TotalGainPercent: gain},
	}
}

func TestTrackPairsAlertWithResolution(t *testing.T) {
	events := []event.Event{
		alert("DOGEUSDT", 0),
		momentumEnd("DOGEUSDT", 10, "rsi_weakening", fptr(0.4)),
	}

	cycles := NewTracker(LatestAlertWins).Track(events)
	if len(cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(cycles))
	}
	c := cycles[0]
	if c.Symbol != "DOGEUSDT" {
		t.Fatalf("unexpected symbol %q", c.Symbol)
	}
	if !c.StartTime.Equal(*at(0)) {
		t.Fatalf("unexpected start time %v", c.StartTime)
	}
	if c.StartHour != 14 {
		t.Fatalf("expected start hour 14, got %d", c.StartHour)
	}
	if c.EndTime == nil || !c.EndTime.Equal(*at(10)) {
		t.Fatalf("unexpected end time %v", c.EndTime)
	}
	if c.EndReason == nil || *c.EndReason != "rsi_weakening" {
		t.Fatalf("unexpected end reason %v", c.EndReason)
	}
	if c.GainPercent == nil || *c.GainPercent != 0.4 {
		t.Fatalf("unexpected gain %v", c.GainPercent)
	}
	if c.StartRSI == nil || *c.StartRSI != 58 {
		t.Fatalf("start RSI not copied from alert")
	}
	if c.StartMACD == nil || *c.StartMACD != "bullish" {
		t.Fatalf("start MACD not copied from alert")
	}
}

func TestTrackLatestAlertWins(t *testing.T) {
	events := []event.Event{
		alert("PEPEUSDT", 0),
		alert("PEPEUSDT", 5),
		momentumEnd("PEPEUSDT", 9, "target_hit", fptr(2.1)),
	}

	cycles := NewTracker(LatestAlertWins).Track(events)
	if len(cycles) != 1 {
		t.Fatalf("expected exactly 1 cycle, got %d", len(cycles))
	}
	if !cycles[0].StartTime.Equal(*at(5)) {
		t.Fatalf("expected the later alert to win, start=%v", cycles[0].StartTime)
	}
}

func TestTrackIgnoreWhileOpen(t *testing.T) {
	events := []event.Event{
		alert("PEPEUSDT", 0),
		alert("PEPEUSDT", 5),
		momentumEnd("PEPEUSDT", 9, "target_hit", fptr(2.1)),
	}

	cycles := NewTracker(IgnoreWhileOpen).Track(events)
	if len(cycles) != 1 {
		t.Fatalf("expected exactly 1 cycle, got %d", len(cycles))
	}
	if !cycles[0].StartTime.Equal(*at(0)) {
		t.Fatalf("expected the first alert to be kept, start=%v", cycles[0].StartTime)
	}
}

func TestTrackUnresolvedCycleFlushedAsStillActive(t *testing.T) {
	cycles := NewTracker(LatestAlertWins).Track([]event.Event{alert("SHIBUSDT", 0)})
	if len(cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(cycles))
	}
	c := cycles[0]
	if !c.StillActive() {
		t.Fatalf("expected still_active, got %v", c.EndReason)
	}
	if c.EndTime != nil {
		t.Fatalf("still_active cycle must have nil end time, got %v", c.EndTime)
	}
	if c.GainPercent != nil {
		t.Fatalf("still_active cycle must have nil gain, got %v", c.GainPercent)
	}
}

func TestTrackMomentumEndWithoutOpenCycleIsNoop(t *testing.T) {
	cycles := NewTracker(LatestAlertWins).Track([]event.Event{
		momentumEnd("BTCUSDT", 0, "timeout", nil),
	})
	if len(cycles) != 0 {
		t.Fatalf("expected no cycles, got %d", len(cycles))
	}
}

func TestTrackMultiSymbolScenario(t *testing.T) {
	// 3 symbols, 5 alerts, 3 resolutions, 2 symbols left unresolved.
	events := []event.Event{
		alert("AAA", 0),
		alert("BBB", 1),
		momentumEnd("AAA", 2, "target_hit", fptr(1.8)),
		alert("CCC", 3),
		momentumEnd("BBB", 4, "timeout", fptr(-0.2)),
		alert("AAA", 5),
		momentumEnd("AAA", 6, "price_drop_stop", fptr(-1.1)),
		alert("BBB", 7),
	}

	cycles := NewTracker(LatestAlertWins).Track(events)
	if len(cycles) != 5 {
		t.Fatalf("expected 5 cycles, got %d", len(cycles))
	}
	still := 0
	for _, c := range cycles {
		if c.StillActive() {
			still++
		}
		if c.EndTime != nil && c.EndTime.Before(c.StartTime) {
			t.Fatalf("cycle %s ends before it starts", c.Symbol)
		}
	}
	if still != 2 {
		t.Fatalf("expected 2 still_active cycles, got %d", still)
	}
	// Flush order is first-open order: CCC opened before BBB re-opened.
	if cycles[3].Symbol != "CCC" || cycles[4].Symbol != "BBB" {
		t.Fatalf("unexpected flush order: %s, %s", cycles[3].Symbol, cycles[4].Symbol)
	}
}

func TestTrackIsDeterministic(t *testing.T) {
	events := []event.Event{
		alert("AAA", 0),
		alert("BBB", 1),
		momentumEnd("AAA", 2, "target_hit", fptr(1.5)),
		alert("CCC", 3),
	}

	first := NewTracker(LatestAlertWins).Track(events)
	second := NewTracker(LatestAlertWins).Track(events)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("tracking the same input twice diverged:\n%+v\n%+v", first, second)
	}
}

func TestTrackEmptyInput(t *testing.T) {
	cycles := NewTracker(LatestAlertWins).Track(nil)
	if len(cycles) != 0 {
		t.Fatalf("expected no cycles from empty input, got %d", len(cycles))
	}
}

func TestObserveSnapshotAndFlush(t *testing.T) {
	tracker := NewTracker(LatestAlertWins)
	if closed := tracker.Observe(alert("DOGEUSDT", 0)); closed != nil {
		t.Fatalf("alert should not close a cycle")
	}
	if tracker.OpenCount() != 1 {
		t.Fatalf("expected 1 open cycle, got %d", tracker.OpenCount())
	}
	snap := tracker.Snapshot()
	if len(snap) != 1 || snap[0].Symbol != "DOGEUSDT" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	closed := tracker.Observe(momentumEnd("DOGEUSDT", 3, "target_hit", fptr(2.4)))
	if closed == nil || closed.GainPercent == nil || *closed.GainPercent != 2.4 {
		t.Fatalf("expected closed cycle with gain, got %+v", closed)
	}
	if tracker.OpenCount() != 0 {
		t.Fatalf("cycle should have left the open set")
	}
	if flushed := tracker.FlushOpen(); len(flushed) != 0 {
		t.Fatalf("nothing left to flush, got %d", len(flushed))
	}
}

func TestObserveIgnoresEventsWithoutTimestamp(t *testing.T) {
	tracker := NewTracker(LatestAlertWins)
	ev := alert("DOGEUSDT", 0)
	ev.Timestamp = nil
	if closed := tracker.Observe(ev); closed != nil || tracker.OpenCount() != 0 {
		t.Fatalf("timestamp-less event must be ignored")
	}
}
