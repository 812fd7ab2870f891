package fundamentals

import (
	"math"

	"github.com/dkwon/alphadesk/internal/contracts"
)

// YoYGrowth returns (latest - prev) / prev for one metric of a
// two-period snapshot. A zero or missing prior period, or a missing
// latest value, yields exactly 0.0 — never infinity and never an error,
// so one sparse statement line can't poison the feature vector.
func YoYGrowth(snap contracts.FinancialSnapshot, metric string) float64 {
	latest, okLatest := snap.Latest[metric]
	prev, okPrev := snap.Prev[metric]
	if !okLatest || !okPrev || prev == 0 {
		return 0.0
	}
	return (latest - prev) / prev
}

// GrowthVector builds the YoY feature vector in the given metric order
func GrowthVector(snap contracts.FinancialSnapshot, metrics []string) []float64 {
	out := make([]float64, len(metrics))
	for i, m := range metrics {
		out[i] = YoYGrowth(snap, m)
	}
	return out
}

// growthOrNaN is the training-time variant: a missing pair is NaN so
// the correlation filter can count valid pairs, unlike inference where
// missing collapses to 0.
func growthOrNaN(latest, prev map[string]float64, metric string) float64 {
	v2, okLatest := latest[metric]
	v1, okPrev := prev[metric]
	if !okLatest || !okPrev || v1 == 0 {
		return math.NaN()
	}
	return (v2 - v1) / v1
}
