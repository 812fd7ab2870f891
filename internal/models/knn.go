package models

import (
	"fmt"
	"math"
	"sort"
)

// KNNClassifier predicts by majority vote among the k nearest training
// rows under Euclidean distance. Distances depend on feature scale, so
// the catalog marks it scale-sensitive. Fit just memorizes the data.
type KNNClassifier struct {
	K      int         `json:"k"`
	X      [][]float64 `json:"x"`
	Labels []int       `json:"labels"`
}

// NewKNNClassifier creates a classifier with the given neighbor count
func NewKNNClassifier(k int) *KNNClassifier {
	return &KNNClassifier{K: k}
}

// Fit memorizes the training partition
func (m *KNNClassifier) Fit(x [][]float64, y []int) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("knn fit: %d rows vs %d labels", len(x), len(y))
	}
	if m.K > len(x) {
		return fmt.Errorf("knn fit: k=%d exceeds %d training rows", m.K, len(x))
	}
	m.X = x
	m.Labels = y
	return nil
}

// Predict returns hard labels at the 0.5 probability threshold
func (m *KNNClassifier) Predict(x [][]float64) ([]int, error) {
	probs, err := m.PredictProba(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, p := range probs {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

// PredictProba returns the positive fraction among the k neighbors
func (m *KNNClassifier) PredictProba(x [][]float64) ([]float64, error) {
	if m.X == nil {
		return nil, fmt.Errorf("knn model not fitted")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		neighbors, err := nearest(m.X, row, m.K)
		if err != nil {
			return nil, err
		}
		var pos float64
		for _, idx := range neighbors {
			pos += float64(m.Labels[idx])
		}
		out[i] = pos / float64(m.K)
	}
	return out, nil
}

// KNNRegressor predicts the mean target among the k nearest training rows.
type KNNRegressor struct {
	K       int         `json:"k"`
	X       [][]float64 `json:"x"`
	Targets []float64   `json:"targets"`
}

// NewKNNRegressor creates a regressor with the given neighbor count
func NewKNNRegressor(k int) *KNNRegressor {
	return &KNNRegressor{K: k}
}

// Fit memorizes the training partition
func (m *KNNRegressor) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("knn fit: %d rows vs %d targets", len(x), len(y))
	}
	if m.K > len(x) {
		return fmt.Errorf("knn fit: k=%d exceeds %d training rows", m.K, len(x))
	}
	m.X = x
	m.Targets = y
	return nil
}

// Predict returns the mean neighbor target per row
func (m *KNNRegressor) Predict(x [][]float64) ([]float64, error) {
	if m.X == nil {
		return nil, fmt.Errorf("knn model not fitted")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		neighbors, err := nearest(m.X, row, m.K)
		if err != nil {
			return nil, err
		}
		var sum float64
		for _, idx := range neighbors {
			sum += m.Targets[idx]
		}
		out[i] = sum / float64(m.K)
	}
	return out, nil
}

// nearest returns the indices of the k training rows closest to row.
// Distance ties resolve by training-row index so predictions stay
// deterministic.
func nearest(x [][]float64, row []float64, k int) ([]int, error) {
	if len(row) != len(x[0]) {
		return nil, fmt.Errorf("knn expects %d features, got %d", len(x[0]), len(row))
	}
	type candidate struct {
		idx  int
		dist float64
	}
	cands := make([]candidate, len(x))
	for i, train := range x {
		var d float64
		for j, v := range train {
			diff := v - row[j]
			d += diff * diff
		}
		cands[i] = candidate{idx: i, dist: math.Sqrt(d)}
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].dist != cands[b].dist {
			return cands[a].dist < cands[b].dist
		}
		return cands[a].idx < cands[b].idx
	})
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = cands[i].idx
	}
	return out, nil
}
