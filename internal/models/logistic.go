package models

import (
	"fmt"
	"math"
)

// LogisticRegression is a binary classifier trained by full-batch
// gradient descent on the log loss with light L2 regularization. Inputs
// are expected to be standardized; the catalog marks it scale-sensitive.
type LogisticRegression struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`

	MaxIter int     `json:"max_iter"`
	LR      float64 `json:"lr"`
	L2      float64 `json:"l2"`
	Tol     float64 `json:"tol"`
}

// NewLogisticRegression creates a classifier with the default
// optimization settings.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		MaxIter: 1000,
		LR:      0.1,
		L2:      1e-4,
		Tol:     1e-6,
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Fit trains the weights on the given matrix and binary labels
func (m *LogisticRegression) Fit(x [][]float64, y []int) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("logistic fit: %d rows vs %d labels", len(x), len(y))
	}
	d := len(x[0])
	m.Weights = make([]float64, d)
	m.Intercept = 0

	n := float64(len(x))
	grad := make([]float64, d)
	for iter := 0; iter < m.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradB float64
		for i, row := range x {
			err := sigmoid(m.decision(row)) - float64(y[i])
			for j, v := range row {
				grad[j] += err * v
			}
			gradB += err
		}

		var step float64
		for j := range m.Weights {
			g := grad[j]/n + m.L2*m.Weights[j]
			m.Weights[j] -= m.LR * g
			step += math.Abs(m.LR * g)
		}
		m.Intercept -= m.LR * gradB / n
		step += math.Abs(m.LR * gradB / n)

		if step < m.Tol {
			break
		}
	}
	return nil
}

func (m *LogisticRegression) decision(row []float64) float64 {
	z := m.Intercept
	for j, v := range row {
		z += m.Weights[j] * v
	}
	return z
}

// Predict returns hard labels at the 0.5 probability threshold
func (m *LogisticRegression) Predict(x [][]float64) ([]int, error) {
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

// PredictProba returns the probability of the positive class
func (m *LogisticRegression) PredictProba(x [][]float64) ([]float64, error) {
	if m.Weights == nil {
		return nil, fmt.Errorf("logistic model not fitted")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(m.Weights) {
			return nil, fmt.Errorf("logistic model expects %d features, got %d", len(m.Weights), len(row))
		}
		out[i] = sigmoid(m.decision(row))
	}
	return out, nil
}
