package training

import (
	"fmt"
	"sort"
	"time"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/models"
)

const ensembleSize = 3

// DirectionSelection is the outcome of direction-model selection: the
// single best model by validation F1, the full report, and the top-3
// weighted ensemble when more than one candidate exists.
type DirectionSelection struct {
	Best     *DirectionResult
	Report   []DirectionResult
	Ensemble *DirectionEnsemble
}

// DirectionMember is one weighted ensemble member
type DirectionMember struct {
	Result *DirectionResult
	Weight float64
}

// DirectionEnsemble votes with validation-F1 weights over member
// probabilities.
type DirectionEnsemble struct {
	Members []DirectionMember
}

// MagnitudeSelection is the regression counterpart, scored by
// validation R². Only members with strictly positive R² may join the
// ensemble.
type MagnitudeSelection struct {
	Best     *MagnitudeResult
	Report   []MagnitudeResult
	Ensemble *MagnitudeEnsemble
}

// MagnitudeMember is one weighted ensemble member
type MagnitudeMember struct {
	Result *MagnitudeResult
	Weight float64
}

// MagnitudeEnsemble averages member predictions with validation-R²
// weights.
type MagnitudeEnsemble struct {
	Members []MagnitudeMember
}

// Pipeline is the complete trained artifact for one ticker
type Pipeline struct {
	Ticker string
	Schema contracts.FeatureSchema

	Direction *DirectionSelection
	Magnitude *MagnitudeSelection

	Confidence contracts.ConfidenceLabel
	TrainedAt  time.Time
}

// SelectDirection picks the best model and builds the ensemble.
// Ties resolve to the earlier catalog entry: only a strictly greater
// score displaces the incumbent.
func SelectDirection(results []DirectionResult) (*DirectionSelection, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: empty direction report", contracts.ErrNoViableModel)
	}

	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].Validation.F1 > results[best].Validation.F1 {
			best = i
		}
	}

	sel := &DirectionSelection{Best: &results[best], Report: results}

	top := topIndices(len(results), func(i int) float64 { return results[i].Validation.F1 }, nil)
	if len(top) > 1 {
		var total float64
		for _, i := range top {
			total += results[i].Validation.F1
		}
		// An all-zero-F1 top set carries no signal to weight
		if total > 0 {
			ens := &DirectionEnsemble{}
			for _, i := range top {
				ens.Members = append(ens.Members, DirectionMember{
					Result: &results[i],
					Weight: results[i].Validation.F1 / total,
				})
			}
			sel.Ensemble = ens
		}
	}
	return sel, nil
}

// SelectMagnitude picks the best model and builds the ensemble from
// candidates with strictly positive validation R², so a useless member
// can never depress another's effective weight.
func SelectMagnitude(results []MagnitudeResult) (*MagnitudeSelection, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: empty magnitude report", contracts.ErrNoViableModel)
	}

	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].Validation.R2 > results[best].Validation.R2 {
			best = i
		}
	}

	sel := &MagnitudeSelection{Best: &results[best], Report: results}

	top := topIndices(len(results),
		func(i int) float64 { return results[i].Validation.R2 },
		func(i int) bool { return results[i].Validation.R2 > 0 })
	if len(top) > 1 {
		var total float64
		for _, i := range top {
			total += results[i].Validation.R2
		}
		ens := &MagnitudeEnsemble{}
		for _, i := range top {
			ens.Members = append(ens.Members, MagnitudeMember{
				Result: &results[i],
				Weight: results[i].Validation.R2 / total,
			})
		}
		sel.Ensemble = ens
	}
	return sel, nil
}

// topIndices returns up to ensembleSize indices sorted by score
// descending. The sort is stable, so catalog order breaks ties.
func topIndices(n int, score func(int) float64, keep func(int) bool) []int {
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if keep != nil && !keep(i) {
			continue
		}
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return score(idx[a]) > score(idx[b])
	})
	if len(idx) > ensembleSize {
		idx = idx[:ensembleSize]
	}
	return idx
}

// Predict runs one direction model over raw (unscaled) feature rows,
// returning hard labels and positive-class probabilities. Models
// without probability output fall back to the hard label.
func (r *DirectionResult) Predict(x [][]float64) ([]int, []float64, error) {
	proc := x
	if r.Scaler != nil {
		var err error
		if proc, err = r.Scaler.Transform(x); err != nil {
			return nil, nil, err
		}
	}

	labels, err := r.Model.Predict(proc)
	if err != nil {
		return nil, nil, err
	}

	var probs []float64
	if pm, ok := r.Model.(models.ProbaClassifier); ok {
		if probs, err = pm.PredictProba(proc); err != nil {
			return nil, nil, err
		}
	} else {
		probs = make([]float64, len(labels))
		for i, l := range labels {
			probs[i] = float64(l)
		}
	}
	return labels, probs, nil
}

// Predict runs one magnitude model over raw feature rows, reapplying
// the captured price normalization on both sides.
func (r *MagnitudeResult) Predict(x [][]float64) ([]float64, error) {
	proc := x
	if r.PriceNorm != 1 && r.PriceNorm != 0 {
		proc = divideColumn(proc, r.CloseIndex, r.PriceNorm)
	}
	if r.Scaler != nil {
		var err error
		if proc, err = r.Scaler.Transform(proc); err != nil {
			return nil, err
		}
	}
	pred, err := r.Model.Predict(proc)
	if err != nil {
		return nil, err
	}
	if r.PriceNorm != 1 && r.PriceNorm != 0 {
		pred = multiplyAll(pred, r.PriceNorm)
	}
	return pred, nil
}

// Predict returns the ensemble's hard labels and weighted probabilities
func (e *DirectionEnsemble) Predict(x [][]float64) ([]int, []float64, error) {
	weighted := make([]float64, len(x))
	for _, m := range e.Members {
		_, probs, err := m.Result.Predict(x)
		if err != nil {
			return nil, nil, fmt.Errorf("ensemble member %s: %w", m.Result.Name, err)
		}
		for i, p := range probs {
			weighted[i] += p * m.Weight
		}
	}
	labels := make([]int, len(weighted))
	for i, p := range weighted {
		if p >= 0.5 {
			labels[i] = 1
		}
	}
	return labels, weighted, nil
}

// Predict returns the weighted sum of member predictions
func (e *MagnitudeEnsemble) Predict(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for _, m := range e.Members {
		pred, err := m.Result.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("ensemble member %s: %w", m.Result.Name, err)
		}
		for i, v := range pred {
			out[i] += v * m.Weight
		}
	}
	return out, nil
}

// Grade maps the pipeline's best validation scores to a confidence label
func (p *Pipeline) Grade() contracts.ConfidenceLabel {
	return contracts.GradeConfidence(p.Direction.Best.Validation.F1, p.Magnitude.Best.Validation.R2)
}
