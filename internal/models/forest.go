package models

import (
	"fmt"
	"math"
	"math/rand"
)

// ForestConfig controls both forest variants
type ForestConfig struct {
	Trees           int   `json:"trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	Seed            int64 `json:"seed"`
}

// RandomForestClassifier is a bagged ensemble of CART trees fit on 0/1
// labels. The predicted probability is the mean leaf value across trees.
type RandomForestClassifier struct {
	Config ForestConfig `json:"config"`
	Roots  []*TreeNode  `json:"roots"`
}

// NewRandomForestClassifier creates a forest with the given settings
func NewRandomForestClassifier(cfg ForestConfig) *RandomForestClassifier {
	return &RandomForestClassifier{Config: cfg}
}

// Fit grows Config.Trees trees on bootstrap samples
func (m *RandomForestClassifier) Fit(x [][]float64, y []int) error {
	yf := make([]float64, len(y))
	for i, v := range y {
		yf[i] = float64(v)
	}
	roots, err := fitForest(x, yf, m.Config, classificationFeatureCap(x))
	if err != nil {
		return err
	}
	m.Roots = roots
	return nil
}

// Predict returns hard labels at the 0.5 probability threshold
func (m *RandomForestClassifier) Predict(x [][]float64) ([]int, error) {
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

// PredictProba returns the mean positive-class fraction across trees
func (m *RandomForestClassifier) PredictProba(x [][]float64) ([]float64, error) {
	if len(m.Roots) == 0 {
		return nil, fmt.Errorf("random forest not fitted")
	}
	return forestPredict(m.Roots, x), nil
}

// RandomForestRegressor is the regression twin: mean tree output.
type RandomForestRegressor struct {
	Config ForestConfig `json:"config"`
	Roots  []*TreeNode  `json:"roots"`
}

// NewRandomForestRegressor creates a forest with the given settings
func NewRandomForestRegressor(cfg ForestConfig) *RandomForestRegressor {
	return &RandomForestRegressor{Config: cfg}
}

// Fit grows Config.Trees trees on bootstrap samples
func (m *RandomForestRegressor) Fit(x [][]float64, y []float64) error {
	roots, err := fitForest(x, y, m.Config, regressionFeatureCap(x))
	if err != nil {
		return err
	}
	m.Roots = roots
	return nil
}

// Predict returns the mean tree output per row
func (m *RandomForestRegressor) Predict(x [][]float64) ([]float64, error) {
	if len(m.Roots) == 0 {
		return nil, fmt.Errorf("random forest not fitted")
	}
	return forestPredict(m.Roots, x), nil
}

// classificationFeatureCap is the sqrt(d) convention
func classificationFeatureCap(x [][]float64) int {
	if len(x) == 0 {
		return 0
	}
	return int(math.Ceil(math.Sqrt(float64(len(x[0])))))
}

// regressionFeatureCap is the d/3 convention
func regressionFeatureCap(x [][]float64) int {
	if len(x) == 0 {
		return 0
	}
	k := len(x[0]) / 3
	if k < 1 {
		k = 1
	}
	return k
}

func fitForest(x [][]float64, y []float64, cfg ForestConfig, maxFeatures int) ([]*TreeNode, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("forest fit: %d rows vs %d targets", len(x), len(y))
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	treeCfg := treeConfig{
		maxDepth:        cfg.MaxDepth,
		minSamplesSplit: cfg.MinSamplesSplit,
		maxFeatures:     maxFeatures,
	}

	n := len(x)
	roots := make([]*TreeNode, cfg.Trees)
	for t := 0; t < cfg.Trees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		roots[t] = growTree(x, y, idx, treeCfg, 0, rng)
	}
	return roots, nil
}

func forestPredict(roots []*TreeNode, x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		var sum float64
		for _, root := range roots {
			sum += root.Evaluate(row)
		}
		out[i] = sum / float64(len(roots))
	}
	return out
}
