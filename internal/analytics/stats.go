package analytics

import (
	"math"
	"sort"
)

// Stats is a distribution summary in the shape the original tracker printed:
// count, mean, std, min, quartiles, max.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Describe summarizes a value slice. ok is false for empty input.
func Describe(values []float64) (Stats, bool) {
	if len(values) == 0 {
		return Stats{}, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	std := 0.0
	if len(sorted) > 1 {
		ss := 0.0
		for _, v := range sorted {
			d := v - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(len(sorted)-1))
	}

	return Stats{
		Count:  len(sorted),
		Mean:   mean,
		Std:    std,
		Min:    sorted[0],
		Q25:    quantile(sorted, 0.25),
		Median: quantile(sorted, 0.50),
		Q75:    quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}, true
}
