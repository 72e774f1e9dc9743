// Package cycle pairs alert events with their momentum resolutions and
// classifies the realized outcomes.
package cycle

import (
	"sync"
	"time"

	"github.com/rajnet70/Pingr-ml-insights/internal/event"
	"github.com/rajnet70/Pingr-ml-insights/internal/metrics"
)

// EventMomentumEnd is the event_type tag that resolves an open cycle.
const EventMomentumEnd = "momentum_end"

// ReasonStillActive marks cycles force-closed at end of stream.
const ReasonStillActive = "still_active"

// ReAlertPolicy decides what happens when an alert arrives for a symbol that
// already has an open cycle.
type ReAlertPolicy int

const (
	// LatestAlertWins replaces the open cycle, silently discarding it.
	LatestAlertWins ReAlertPolicy = iota
	// IgnoreWhileOpen drops the new alert and keeps the open cycle.
	IgnoreWhileOpen
)

// Cycle is one alert-to-resolution episode for one symbol. Start* fields are
// snapshotted from the alert event; End fields stay nil until resolution.
type Cycle struct {
	Symbol      string
	StartTime   time.Time
	StartHour   int
	StartRSI    *float64
	StartHeat   *float64
	StartScore  *float64
	StartMACD   *string
	EndTime     *time.Time
	EndReason   *string
	GainPercent *float64
}

// StillActive reports whether the cycle was force-closed without resolution.
func (c Cycle) StillActive() bool {
	return c.EndReason != nil && *c.EndReason == ReasonStillActive
}

// Tracker owns the per-symbol open-cycle state. It is safe for a single
// writer with concurrent Snapshot readers, which is all the live mode needs.
type Tracker struct {
	mu     sync.Mutex
	policy ReAlertPolicy
	open   map[string]*Cycle
	order  []string // symbols in first-open order, for deterministic flushes
}

// NewTracker returns an empty tracker using the given re-alert policy.
func NewTracker(policy ReAlertPolicy) *Tracker {
	return &Tracker{policy: policy, open: make(map[string]*Cycle)}
}

// Track consumes a time-ordered event slice and returns every cycle closed by
// a momentum_end plus, at the end, every still-open cycle force-closed as
// still_active. Events must already be sorted (see event.SortByTime).
func (t *Tracker) Track(events []event.Event) []Cycle {
	cycles := make([]Cycle, 0)
	for _, ev := range events {
		if closed := t.Observe(ev); closed != nil {
			cycles = append(cycles, *closed)
		}
	}
	return append(cycles, t.FlushOpen()...)
}

// Observe feeds one event through the tracker and returns the cycle it
// closed, if any. Events that neither alert nor resolve are ignored; a
// momentum_end for a symbol with no open cycle is a no-op.
func (t *Tracker) Observe(ev event.Event) *Cycle {
	if ev.Symbol == "" || ev.Timestamp == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if ev.AlertSent {
		if _, exists := t.open[ev.Symbol]; exists {
			if t.policy == IgnoreWhileOpen {
				return nil
			}
			metrics.CyclesReplaced.WithLabelValues(ev.Symbol).Inc()
		} else {
			t.order = append(t.order, ev.Symbol)
		}
		t.open[ev.Symbol] = &Cycle{
			Symbol:     ev.Symbol,
			StartTime:  *ev.Timestamp,
			StartHour:  ev.Timestamp.Hour(),
			StartRSI:   ev.RSI15m,
			StartHeat:  ev.HeatIndex,
			StartScore: ev.SignalScore,
			StartMACD:  ev.Context.MACDAlignment,
		}
		metrics.CyclesOpened.WithLabelValues(ev.Symbol).Inc()
		return nil
	}

	if ev.EventType != EventMomentumEnd {
		return nil
	}
	open, exists := t.open[ev.Symbol]
	if !exists {
		return nil
	}
	open.EndTime = ev.Timestamp
	open.EndReason = ev.Meta.Reason
	open.GainPercent = ev.Meta.TotalGainPercent
	delete(t.open, ev.Symbol)
	t.dropFromOrder(ev.Symbol)
	metrics.CyclesClosed.WithLabelValues(ev.Symbol, reasonLabel(open.EndReason)).Inc()
	return open
}

// FlushOpen force-closes every remaining open cycle as still_active, with nil
// end time and gain, and returns them in first-open order.
func (t *Tracker) FlushOpen() []Cycle {
	t.mu.Lock()
	defer t.mu.Unlock()

	flushed := make([]Cycle, 0, len(t.open))
	for _, symbol := range t.order {
		open, exists := t.open[symbol]
		if !exists {
			continue
		}
		reason := ReasonStillActive
		open.EndReason = &reason
		flushed = append(flushed, *open)
		delete(t.open, symbol)
		metrics.CyclesClosed.WithLabelValues(symbol, ReasonStillActive).Inc()
	}
	t.order = t.order[:0]
	return flushed
}

// Snapshot returns a copy of the currently open cycles in first-open order.
func (t *Tracker) Snapshot() []Cycle {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Cycle, 0, len(t.open))
	for _, symbol := range t.order {
		if open, exists := t.open[symbol]; exists {
			out = append(out, *open)
		}
	}
	return out
}

// OpenCount reports how many symbols currently hold an open cycle.
func (t *Tracker) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

func (t *Tracker) dropFromOrder(symbol string) {
	for i, s := range t.order {
		if s == symbol {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

func reasonLabel(reason *string) string {
	if reason == nil {
		return "none"
	}
	return *reason
}
