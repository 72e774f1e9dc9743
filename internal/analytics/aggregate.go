package analytics

import (
	"github.com/rajnet70/Pingr-ml-insights/internal/cycle"
)

// GroupStats accumulates outcome counts and gain mass for one group of
// cycles. Outcome counts are independent tallies, not a partition.
type GroupStats struct {
	Count              int
	SuccessByGain      int
	SuccessByStructure int
	Failure            int
	Indeterminate      int
	GainCount          int
	GainSum            float64
}

// MeanGain returns the arithmetic mean over cycles with a measured gain, or
// nil when the group has none.
func (g GroupStats) MeanGain() *float64 {
	if g.GainCount == 0 {
		return nil
	}
	mean := g.GainSum / float64(g.GainCount)
	return &mean
}

func (g *GroupStats) add(c cycle.Cycle, out cycle.Outcome) {
	g.Count++
	if out.SuccessByGain {
		g.SuccessByGain++
	}
	if out.SuccessByStructure {
		g.SuccessByStructure++
	}
	if out.Failure {
		g.Failure++
	}
	if out.Indeterminate() {
		g.Indeterminate++
	}
	if c.GainPercent != nil {
		g.GainCount++
		g.GainSum += *c.GainPercent
	}
}

// BucketTable is the per-bucket aggregate for one dimension. Unavailable is
// set when quantile binning degenerated and the dimension was skipped.
type BucketTable struct {
	Dimension   Dimension
	Binning     Binning
	Rows        map[string]GroupStats
	Unavailable bool
}

// AggregateByBucket partitions cycles along one dimension using the given
// binning. Cycles with a nil metric, or a metric outside the edge range,
// receive no bucket and are excluded from this dimension's table.
func AggregateByBucket(cycles []cycle.Cycle, cls cycle.Classifier, dim Dimension, b Binning) BucketTable {
	table := BucketTable{Dimension: dim, Binning: b, Rows: make(map[string]GroupStats)}
	for _, c := range cycles {
		v := dim.Value(c)
		if v == nil {
			continue
		}
		label, ok := b.Assign(*v)
		if !ok {
			continue
		}
		stats := table.Rows[label]
		stats.add(c, cls.Classify(c))
		table.Rows[label] = stats
	}
	return table
}

// AggregateByQuantile derives a quartile binning from the cycles' own metric
// distribution and aggregates over it. A degenerate distribution yields an
// Unavailable table rather than an error.
func AggregateByQuantile(cycles []cycle.Cycle, cls cycle.Classifier, dim Dimension) BucketTable {
	values := make([]float64, 0, len(cycles))
	for _, c := range cycles {
		if v := dim.Value(c); v != nil {
			values = append(values, *v)
		}
	}
	binning, ok := QuantileBinning(values)
	if !ok {
		return BucketTable{Dimension: dim, Unavailable: true}
	}
	return AggregateByBucket(cycles, cls, dim, binning)
}

// AggregateBySymbol reduces cycles into per-symbol group stats.
func AggregateBySymbol(cycles []cycle.Cycle, cls cycle.Classifier) map[string]GroupStats {
	rows := make(map[string]GroupStats)
	for _, c := range cycles {
		stats := rows[c.Symbol]
		stats.add(c, cls.Classify(c))
		rows[c.Symbol] = stats
	}
	return rows
}

// AggregateByHour reduces cycles into hour-of-day group stats keyed by the
// hour the alert fired.
func AggregateByHour(cycles []cycle.Cycle, cls cycle.Classifier) map[int]GroupStats {
	rows := make(map[int]GroupStats)
	for _, c := range cycles {
		stats := rows[c.StartHour]
		stats.add(c, cls.Classify(c))
		rows[c.StartHour] = stats
	}
	return rows
}

// Totals reduces every cycle into a single group, for the run summary.
func Totals(cycles []cycle.Cycle, cls cycle.Classifier) GroupStats {
	var stats GroupStats
	for _, c := range cycles {
		stats.add(c, cls.Classify(c))
	}
	return stats
}
