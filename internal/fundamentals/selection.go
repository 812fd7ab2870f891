package fundamentals

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SelectionOptions tunes the correlation-based feature filter
type SelectionOptions struct {
	// MinPairs is the minimum number of rows where both the feature and
	// the target are present for the correlation to count.
	MinPairs int

	// TargetCorr is the minimum |r| against the target.
	TargetCorr float64

	// InterCorr drops a candidate correlating above this |r| with any
	// higher-ranked candidate.
	InterCorr float64
}

// DefaultSelectionOptions returns the thresholds the pipeline trains with
func DefaultSelectionOptions() SelectionOptions {
	return SelectionOptions{MinPairs: 30, TargetCorr: 0.15, InterCorr: 0.8}
}

// SelectFeatures filters a YoY-growth matrix down to the metrics worth
// modeling: correlated enough with the target, backed by enough valid
// pairs, and not redundant with a stronger candidate. Column order of
// the result is by |r| descending.
//
// growth is row-major with NaN marking a missing value; target is the
// per-row price change.
func SelectFeatures(growth [][]float64, target []float64, names []string, opts SelectionOptions) []string {
	type candidate struct {
		col  int
		corr float64
	}

	var cands []candidate
	for j := range names {
		var xs, ys []float64
		for i, row := range growth {
			if math.IsNaN(row[j]) || math.IsNaN(target[i]) {
				continue
			}
			xs = append(xs, row[j])
			ys = append(ys, target[i])
		}
		if len(xs) < opts.MinPairs {
			continue
		}
		r := stat.Correlation(xs, ys, nil)
		if math.IsNaN(r) || math.Abs(r) < opts.TargetCorr {
			continue
		}
		cands = append(cands, candidate{col: j, corr: r})
	}

	sort.SliceStable(cands, func(a, b int) bool {
		return math.Abs(cands[a].corr) > math.Abs(cands[b].corr)
	})

	// A candidate correlating too tightly with any higher-ranked
	// candidate (kept or not) is redundant.
	var selected []string
	for j, cand := range cands {
		redundant := false
		for i := 0; i < j; i++ {
			if math.Abs(pairwiseCorr(growth, cands[i].col, cand.col)) > opts.InterCorr {
				redundant = true
				break
			}
		}
		if !redundant {
			selected = append(selected, names[cand.col])
		}
	}
	return selected
}

// pairwiseCorr correlates two growth columns over rows where both are
// present. Fewer than two pairs yields NaN, which never trips the
// redundancy threshold.
func pairwiseCorr(growth [][]float64, a, b int) float64 {
	var xs, ys []float64
	for _, row := range growth {
		if math.IsNaN(row[a]) || math.IsNaN(row[b]) {
			continue
		}
		xs = append(xs, row[a])
		ys = append(ys, row[b])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
