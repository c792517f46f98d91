package eval

import "sort"

// LatencySummary describes a latency distribution in seconds.
type LatencySummary struct {
	N      int
	Mean   float64
	Median float64
	P95    float64
	Max    float64
}

// SummarizeLatencies computes mean, median, p95 and max over latency samples
// in seconds. P95 uses the nearest-rank index int(0.95*(n-1)) on the sorted
// samples. An empty input returns the zero summary.
func SummarizeLatencies(seconds []float64) LatencySummary {
	if len(seconds) == 0 {
		return LatencySummary{}
	}
	sorted := append([]float64(nil), seconds...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	n := len(sorted)

	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return LatencySummary{
		N:      n,
		Mean:   sum / float64(n),
		Median: median,
		P95:    sorted[int(0.95*float64(n-1))],
		Max:    sorted[n-1],
	}
}
