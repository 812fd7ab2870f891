package models

import (
	"fmt"
	"math"
	"math/rand"
)

// MLPConfig controls both multilayer-perceptron variants
type MLPConfig struct {
	Hidden   []int   `json:"hidden"`
	MaxIter  int     `json:"max_iter"`
	LR       float64 `json:"lr"`
	Momentum float64 `json:"momentum"`
	Seed     int64   `json:"seed"`
}

// DefaultMLPConfig mirrors the (100, 50) hidden layout used across the
// catalog.
func DefaultMLPConfig(seed int64) MLPConfig {
	return MLPConfig{
		Hidden:   []int{100, 50},
		MaxIter:  300,
		LR:       0.001,
		Momentum: 0.9,
		Seed:     seed,
	}
}

// mlpNet is a fully connected ReLU network with a single linear output
// unit, trained by full-batch gradient descent with momentum.
type mlpNet struct {
	// W[l][i][j] is the weight from unit j of layer l to unit i of
	// layer l+1; B[l][i] is the bias of unit i of layer l+1.
	W [][][]float64 `json:"w"`
	B [][]float64   `json:"b"`

	vW [][][]float64
	vB [][]float64
}

func newMLPNet(sizes []int, rng *rand.Rand) *mlpNet {
	net := &mlpNet{}
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		scale := math.Sqrt(2.0 / float64(in))
		w := make([][]float64, out)
		vw := make([][]float64, out)
		for i := range w {
			w[i] = make([]float64, in)
			vw[i] = make([]float64, in)
			for j := range w[i] {
				w[i][j] = rng.NormFloat64() * scale
			}
		}
		net.W = append(net.W, w)
		net.vW = append(net.vW, vw)
		net.B = append(net.B, make([]float64, out))
		net.vB = append(net.vB, make([]float64, out))
	}
	return net
}

// forward returns every layer's activations, input included. Hidden
// layers apply ReLU; the output unit stays linear.
func (net *mlpNet) forward(row []float64) [][]float64 {
	acts := make([][]float64, len(net.W)+1)
	acts[0] = row
	for l := range net.W {
		out := make([]float64, len(net.W[l]))
		last := l == len(net.W)-1
		for i := range net.W[l] {
			z := net.B[l][i]
			for j, v := range acts[l] {
				z += net.W[l][i][j] * v
			}
			if !last && z < 0 {
				z = 0
			}
			out[i] = z
		}
		acts[l+1] = out
	}
	return acts
}

// train runs full-batch backpropagation. gradOut computes the output
// unit's loss gradient for one sample (MSE residual for regression,
// probability residual for the logistic head).
func (net *mlpNet) train(x [][]float64, cfg MLPConfig, gradOut func(i int, out float64) float64) {
	n := float64(len(x))
	for epoch := 0; epoch < cfg.MaxIter; epoch++ {
		gW := zerosLike(net.W)
		gB := zerosLikeVec(net.B)

		for i, row := range x {
			acts := net.forward(row)
			// delta starts at the output unit and walks backwards
			delta := []float64{gradOut(i, acts[len(acts)-1][0])}
			for l := len(net.W) - 1; l >= 0; l-- {
				for u := range net.W[l] {
					gB[l][u] += delta[u]
					for j, v := range acts[l] {
						gW[l][u][j] += delta[u] * v
					}
				}
				if l == 0 {
					break
				}
				prev := make([]float64, len(acts[l]))
				for j := range prev {
					if acts[l][j] <= 0 {
						continue // ReLU gate
					}
					var sum float64
					for u := range net.W[l] {
						sum += net.W[l][u][j] * delta[u]
					}
					prev[j] = sum
				}
				delta = prev
			}
		}

		for l := range net.W {
			for i := range net.W[l] {
				net.vB[l][i] = cfg.Momentum*net.vB[l][i] - cfg.LR*gB[l][i]/n
				net.B[l][i] += net.vB[l][i]
				for j := range net.W[l][i] {
					net.vW[l][i][j] = cfg.Momentum*net.vW[l][i][j] - cfg.LR*gW[l][i][j]/n
					net.W[l][i][j] += net.vW[l][i][j]
				}
			}
		}
	}
}

func (net *mlpNet) output(row []float64) float64 {
	acts := net.forward(row)
	return acts[len(acts)-1][0]
}

func zerosLike(w [][][]float64) [][][]float64 {
	out := make([][][]float64, len(w))
	for l := range w {
		out[l] = make([][]float64, len(w[l]))
		for i := range w[l] {
			out[l][i] = make([]float64, len(w[l][i]))
		}
	}
	return out
}

func zerosLikeVec(b [][]float64) [][]float64 {
	out := make([][]float64, len(b))
	for l := range b {
		out[l] = make([]float64, len(b[l]))
	}
	return out
}

// MLPClassifier is a ReLU network with a logistic output head. Like the
// other scale-sensitive models it expects standardized inputs.
type MLPClassifier struct {
	Config MLPConfig `json:"config"`
	Net    *mlpNet   `json:"net"`
}

// NewMLPClassifier creates a classifier with the given settings
func NewMLPClassifier(cfg MLPConfig) *MLPClassifier {
	return &MLPClassifier{Config: cfg}
}

// Fit trains the network on the log loss
func (m *MLPClassifier) Fit(x [][]float64, y []int) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("mlp fit: %d rows vs %d labels", len(x), len(y))
	}
	rng := rand.New(rand.NewSource(m.Config.Seed))
	sizes := append(append([]int{len(x[0])}, m.Config.Hidden...), 1)
	m.Net = newMLPNet(sizes, rng)
	m.Net.train(x, m.Config, func(i int, out float64) float64 {
		return sigmoid(out) - float64(y[i])
	})
	return nil
}

// Predict returns hard labels at the 0.5 probability threshold
func (m *MLPClassifier) Predict(x [][]float64) ([]int, error) {
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

// PredictProba returns the logistic output per row
func (m *MLPClassifier) PredictProba(x [][]float64) ([]float64, error) {
	if m.Net == nil {
		return nil, fmt.Errorf("mlp model not fitted")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = sigmoid(m.Net.output(row))
	}
	return out, nil
}

// MLPRegressor is the same network with a linear head trained on MSE.
type MLPRegressor struct {
	Config MLPConfig `json:"config"`
	Net    *mlpNet   `json:"net"`
}

// NewMLPRegressor creates a regressor with the given settings
func NewMLPRegressor(cfg MLPConfig) *MLPRegressor {
	return &MLPRegressor{Config: cfg}
}

// Fit trains the network on squared error
func (m *MLPRegressor) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("mlp fit: %d rows vs %d targets", len(x), len(y))
	}
	rng := rand.New(rand.NewSource(m.Config.Seed))
	sizes := append(append([]int{len(x[0])}, m.Config.Hidden...), 1)
	m.Net = newMLPNet(sizes, rng)
	m.Net.train(x, m.Config, func(i int, out float64) float64 {
		return out - y[i]
	})
	return nil
}

// Predict returns the network output per row
func (m *MLPRegressor) Predict(x [][]float64) ([]float64, error) {
	if m.Net == nil {
		return nil, fmt.Errorf("mlp model not fitted")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = m.Net.output(row)
	}
	return out, nil
}
