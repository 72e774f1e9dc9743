// Package analytics buckets closed cycles along market-condition dimensions
// and reduces them into performance tables and tuning suggestions.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/rajnet70/Pingr-ml-insights/internal/cycle"
)

// Dimension names a start-condition metric a cycle can be bucketed on.
type Dimension string

const (
	DimensionRSI   Dimension = "rsi"
	DimensionHeat  Dimension = "heat"
	DimensionScore Dimension = "score"
)

// Value extracts this dimension's metric from a cycle, nil when unrecorded.
func (d Dimension) Value(c cycle.Cycle) *float64 {
	switch d {
	case DimensionRSI:
		return c.StartRSI
	case DimensionHeat:
		return c.StartHeat
	case DimensionScore:
		return c.StartScore
	}
	return nil
}

// Binning is an ordered edge set with one label per half-open interval
// [Edges[i], Edges[i+1]). Values outside the range receive no label.
type Binning struct {
	Edges  []float64
	Labels []string
}

// NewBinning validates that edges are strictly increasing and that there is
// exactly one label per interval.
func NewBinning(edges []float64, labels []string) (Binning, error) {
	if len(edges) < 2 {
		return Binning{}, fmt.Errorf("binning needs at least 2 edges, got %d", len(edges))
	}
	if len(labels) != len(edges)-1 {
		return Binning{}, fmt.Errorf("binning needs %d labels for %d edges, got %d", len(edges)-1, len(edges), len(labels))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return Binning{}, fmt.Errorf("binning edges must be strictly increasing at index %d", i)
		}
	}
	return Binning{Edges: edges, Labels: labels}, nil
}

// Assign returns the label whose interval contains v, or ok=false when v
// falls outside every interval.
func (b Binning) Assign(v float64) (string, bool) {
	for i := 0; i < len(b.Labels); i++ {
		if v >= b.Edges[i] && v < b.Edges[i+1] {
			return b.Labels[i], true
		}
	}
	return "", false
}

// QuantileBinning derives a quartile split over the given values. Degenerate
// (equal) edges are deduplicated; when fewer than 2 distinct edges survive
// the distribution cannot be bucketed and ok is false.
func QuantileBinning(values []float64) (Binning, bool) {
	if len(values) == 0 {
		return Binning{}, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	raw := []float64{
		sorted[0],
		quantile(sorted, 0.25),
		quantile(sorted, 0.50),
		quantile(sorted, 0.75),
		sorted[len(sorted)-1],
	}
	edges := raw[:1]
	for _, e := range raw[1:] {
		if e > edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	if len(edges) < 2 {
		return Binning{}, false
	}
	// Nudge the top edge so the maximum lands inside the last interval.
	edges[len(edges)-1] = math.Nextafter(edges[len(edges)-1], math.Inf(1))
	labels := make([]string, len(edges)-1)
	for i := range labels {
		labels[i] = fmt.Sprintf("q%d", i+1)
	}
	return Binning{Edges: edges, Labels: labels}, true
}

// quantile linearly interpolates over an ascending slice.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
