package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// RidgeRegression solves the L2-penalized least squares problem in
// closed form: (XᵀX + αI)β = Xᵀy, with an unpenalized intercept handled
// by centering. Scale-sensitive, so the catalog pairs it with a scaler.
type RidgeRegression struct {
	Alpha     float64   `json:"alpha"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewRidgeRegression creates a regressor with the given penalty
func NewRidgeRegression(alpha float64) *RidgeRegression {
	return &RidgeRegression{Alpha: alpha}
}

// Fit solves the normal equations on centered data
func (m *RidgeRegression) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("ridge fit: %d rows vs %d targets", len(x), len(y))
	}
	n := len(x)
	d := len(x[0])

	// Center columns and target so the intercept stays unpenalized
	colMean := make([]float64, d)
	for _, row := range x {
		for j, v := range row {
			colMean[j] += v
		}
	}
	for j := range colMean {
		colMean[j] /= float64(n)
	}
	var yMean float64
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(n)

	xc := mat.NewDense(n, d, nil)
	yc := mat.NewVecDense(n, nil)
	for i, row := range x {
		for j, v := range row {
			xc.Set(i, j, v-colMean[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	// XᵀX + αI
	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())
	for j := 0; j < d; j++ {
		gram.SetSym(j, j, gram.At(j, j)+m.Alpha)
	}

	var xty mat.VecDense
	xty.MulVec(xc.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return fmt.Errorf("ridge fit: gram matrix not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return fmt.Errorf("ridge fit: solve failed: %w", err)
	}

	m.Weights = make([]float64, d)
	m.Intercept = yMean
	for j := 0; j < d; j++ {
		m.Weights[j] = beta.AtVec(j)
		m.Intercept -= m.Weights[j] * colMean[j]
	}
	return nil
}

// Predict returns the linear response for each row
func (m *RidgeRegression) Predict(x [][]float64) ([]float64, error) {
	if m.Weights == nil {
		return nil, fmt.Errorf("ridge model not fitted")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(m.Weights) {
			return nil, fmt.Errorf("ridge model expects %d features, got %d", len(m.Weights), len(row))
		}
		v := m.Intercept
		for j, f := range row {
			v += m.Weights[j] * f
		}
		out[i] = v
	}
	return out, nil
}
