package models

import (
	"math/rand"
	"sort"
)

// TreeNode is one node of a CART regression tree. Classification trees
// reuse it by fitting on 0/1 labels, so a leaf value doubles as the
// positive-class fraction.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`

	Left  *TreeNode `json:"left,omitempty"`
	Right *TreeNode `json:"right,omitempty"`
}

// Evaluate walks the tree for one feature row
func (n *TreeNode) Evaluate(row []float64) float64 {
	node := n
	for !node.Leaf {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

type treeConfig struct {
	maxDepth        int
	minSamplesSplit int
	// maxFeatures caps the number of candidate features per split;
	// 0 means all features.
	maxFeatures int
}

// growTree fits a variance-reduction CART tree on the rows selected by
// idx. The rng drives the per-split feature subsample and must be the
// caller's seeded source.
func growTree(x [][]float64, y []float64, idx []int, cfg treeConfig, depth int, rng *rand.Rand) *TreeNode {
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	mean := sum / float64(len(idx))

	if depth >= cfg.maxDepth || len(idx) < cfg.minSamplesSplit || pure(y, idx) {
		return &TreeNode{Leaf: true, Value: mean}
	}

	feature, threshold, ok := bestSplit(x, y, idx, cfg, rng)
	if !ok {
		return &TreeNode{Leaf: true, Value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &TreeNode{Leaf: true, Value: mean}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(x, y, left, cfg, depth+1, rng),
		Right:     growTree(x, y, right, cfg, depth+1, rng),
	}
}

func pure(y []float64, idx []int) bool {
	first := y[idx[0]]
	for _, i := range idx[1:] {
		if y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit scans candidate features for the threshold minimizing the
// weighted sum of squared errors of the two children.
func bestSplit(x [][]float64, y []float64, idx []int, cfg treeConfig, rng *rand.Rand) (int, float64, bool) {
	d := len(x[idx[0]])
	features := make([]int, d)
	for j := range features {
		features[j] = j
	}
	if cfg.maxFeatures > 0 && cfg.maxFeatures < d {
		rng.Shuffle(d, func(a, b int) {
			features[a], features[b] = features[b], features[a]
		})
		features = features[:cfg.maxFeatures]
	}

	bestScore := -1.0
	bestFeature := -1
	bestThreshold := 0.0

	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}
	n := float64(len(idx))
	baseSSE := totalSq - totalSum*totalSum/n

	order := make([]int, len(idx))
	for _, f := range features {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return x[order[a]][f] < x[order[b]][f]
		})

		var leftSum, leftSq float64
		for k := 0; k < len(order)-1; k++ {
			v := y[order[k]]
			leftSum += v
			leftSq += v * v

			cur, next := x[order[k]][f], x[order[k+1]][f]
			if cur == next {
				continue
			}

			nl := float64(k + 1)
			nr := n - nl
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			gain := baseSSE - sse
			if gain > bestScore {
				bestScore = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	if bestFeature < 0 || bestScore <= 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}
