package analytics

import "fmt"

// TuningReport names the best-performing bucket per dimension and carries
// rule-based configuration suggestions derived from the winners.
type TuningReport struct {
	Best        map[Dimension]string `json:"best_bucket"`
	Suggestions []string             `json:"suggestions"`
}

// Summarize picks each dimension's winner by maximum mean gain, ties broken
// by label-definition order, and emits advisory suggestions. Unavailable
// tables and buckets without a measured mean are skipped.
func Summarize(tables []BucketTable) TuningReport {
	report := TuningReport{Best: make(map[Dimension]string)}
	for _, table := range tables {
		if table.Unavailable || len(table.Rows) == 0 {
			continue
		}
		winner, ok := bestLabel(table)
		if !ok {
			continue
		}
		report.Best[table.Dimension] = winner
		report.Suggestions = append(report.Suggestions, suggest(table, winner)...)
	}
	return report
}

func bestLabel(table BucketTable) (string, bool) {
	var (
		winner string
		best   float64
		found  bool
	)
	for _, label := range table.Binning.Labels {
		stats, exists := table.Rows[label]
		if !exists {
			continue
		}
		mean := stats.MeanGain()
		if mean == nil {
			continue
		}
		if !found || *mean > best {
			winner, best, found = label, *mean, true
		}
	}
	return winner, found
}

func suggest(table BucketTable, winner string) []string {
	labels := table.Binning.Labels
	switch table.Dimension {
	case DimensionRSI:
		if winner == "ideal" {
			return []string{"RSI edge concentrates in the ideal zone; tighten the upper RSI bound to stay inside it"}
		}
		if len(labels) > 0 && winner == labels[len(labels)-1] {
			return []string{"highest RSI zone wins; late-momentum entries are paying off, consider raising the RSI ceiling"}
		}
		return []string{fmt.Sprintf("best RSI zone is %q; bias entries toward it", winner)}
	case DimensionHeat:
		if len(labels) > 0 && winner == labels[0] {
			return []string{"lowest heat zone wins; the heat filter may be too aggressive"}
		}
		return []string{fmt.Sprintf("heat zone %q outperforms; avoid low-heat entries", winner)}
	case DimensionScore:
		if len(labels) > 0 && winner == labels[len(labels)-1] {
			return []string{"top score zone wins; raise the minimum signal score"}
		}
		return []string{fmt.Sprintf("score zone %q wins; score above it adds no edge, review score weighting", winner)}
	}
	return nil
}
