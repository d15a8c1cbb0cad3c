package watch

import "sort"

// SeriesPoint is a derived observation: percentage change vs the baseline.
type SeriesPoint struct {
	Ts  float64 // unix seconds
	Pct float64
}

// BuildSeries turns a price snapshot into a percentage-change series.
// Points are stable-sorted by timestamp (arrival order breaks ties). The
// baseline is the earliest point still retained, so it shifts forward as the
// rolling window evicts. A zero baseline yields an all-zero series.
func BuildSeries(points []PricePoint) []SeriesPoint {
	if len(points) == 0 {
		return nil
	}

	sorted := make([]PricePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ts < sorted[j].Ts })

	p0 := sorted[0].Price
	out := make([]SeriesPoint, len(sorted))
	for i, p := range sorted {
		pct := 0.0
		if p0 != 0 {
			pct = (p.Price/p0 - 1.0) * 100.0
		}
		out[i] = SeriesPoint{Ts: p.Ts, Pct: pct}
	}
	return out
}
