package models

import (
	"fmt"
	"math"
	"math/rand"
)

// BoostingConfig controls both gradient-boosting variants
type BoostingConfig struct {
	Iterations   int     `json:"iterations"`
	LearningRate float64 `json:"learning_rate"`
	MaxDepth     int     `json:"max_depth"`
	MinSamples   int     `json:"min_samples"`
	Seed         int64   `json:"seed"`
}

// GradientBoostingRegressor fits shallow CART trees to the residuals of
// the running prediction, shrunk by the learning rate.
type GradientBoostingRegressor struct {
	Config BoostingConfig `json:"config"`
	Base   float64        `json:"base"`
	Roots  []*TreeNode    `json:"roots"`
}

// NewGradientBoostingRegressor creates a regressor with the given settings
func NewGradientBoostingRegressor(cfg BoostingConfig) *GradientBoostingRegressor {
	return &GradientBoostingRegressor{Config: cfg}
}

// Fit runs Config.Iterations boosting rounds on squared error
func (m *GradientBoostingRegressor) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("boosting fit: %d rows vs %d targets", len(x), len(y))
	}

	var sum float64
	for _, v := range y {
		sum += v
	}
	m.Base = sum / float64(len(y))

	rng := rand.New(rand.NewSource(m.Config.Seed))
	cfg := treeConfig{maxDepth: m.Config.MaxDepth, minSamplesSplit: m.Config.MinSamples}
	idx := allRows(len(x))

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = m.Base
	}
	residual := make([]float64, len(y))

	m.Roots = make([]*TreeNode, 0, m.Config.Iterations)
	for t := 0; t < m.Config.Iterations; t++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		root := growTree(x, residual, idx, cfg, 0, rng)
		m.Roots = append(m.Roots, root)
		for i, row := range x {
			pred[i] += m.Config.LearningRate * root.Evaluate(row)
		}
	}
	return nil
}

// Predict sums the shrunk tree outputs over the base value
func (m *GradientBoostingRegressor) Predict(x [][]float64) ([]float64, error) {
	if len(m.Roots) == 0 {
		return nil, fmt.Errorf("gradient boosting not fitted")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		v := m.Base
		for _, root := range m.Roots {
			v += m.Config.LearningRate * root.Evaluate(row)
		}
		out[i] = v
	}
	return out, nil
}

// GradientBoostingClassifier boosts on the logistic loss: each round
// fits a tree to the residual between the label and the current
// predicted probability, accumulated in log-odds space.
type GradientBoostingClassifier struct {
	Config BoostingConfig `json:"config"`
	Base   float64        `json:"base"`
	Roots  []*TreeNode    `json:"roots"`
}

// NewGradientBoostingClassifier creates a classifier with the given settings
func NewGradientBoostingClassifier(cfg BoostingConfig) *GradientBoostingClassifier {
	return &GradientBoostingClassifier{Config: cfg}
}

// Fit runs Config.Iterations boosting rounds on the log loss
func (m *GradientBoostingClassifier) Fit(x [][]float64, y []int) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("boosting fit: %d rows vs %d labels", len(x), len(y))
	}

	var pos float64
	for _, v := range y {
		pos += float64(v)
	}
	p := pos / float64(len(y))
	// Clamp so a single-class partition keeps finite log-odds
	p = math.Min(math.Max(p, 1e-6), 1-1e-6)
	m.Base = math.Log(p / (1 - p))

	rng := rand.New(rand.NewSource(m.Config.Seed))
	cfg := treeConfig{maxDepth: m.Config.MaxDepth, minSamplesSplit: m.Config.MinSamples}
	idx := allRows(len(x))

	score := make([]float64, len(y))
	for i := range score {
		score[i] = m.Base
	}
	residual := make([]float64, len(y))

	m.Roots = make([]*TreeNode, 0, m.Config.Iterations)
	for t := 0; t < m.Config.Iterations; t++ {
		for i := range y {
			residual[i] = float64(y[i]) - sigmoid(score[i])
		}
		root := growTree(x, residual, idx, cfg, 0, rng)
		m.Roots = append(m.Roots, root)
		for i, row := range x {
			score[i] += m.Config.LearningRate * root.Evaluate(row)
		}
	}
	return nil
}

// Predict returns hard labels at the 0.5 probability threshold
func (m *GradientBoostingClassifier) Predict(x [][]float64) ([]int, error) {
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

// PredictProba returns the positive-class probability per row
func (m *GradientBoostingClassifier) PredictProba(x [][]float64) ([]float64, error) {
	if len(m.Roots) == 0 {
		return nil, fmt.Errorf("gradient boosting not fitted")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		score := m.Base
		for _, root := range m.Roots {
			score += m.Config.LearningRate * root.Evaluate(row)
		}
		out[i] = sigmoid(score)
	}
	return out, nil
}

func allRows(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
