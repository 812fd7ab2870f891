package models

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes columns to zero mean and unit variance.
// Fit only ever sees the training partition; validation, test, and
// inference rows are transformed with the training statistics.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit computes per-column mean and standard deviation
func (s *StandardScaler) Fit(x [][]float64) error {
	if len(x) == 0 {
		return fmt.Errorf("scaler fit on empty matrix")
	}
	d := len(x[0])
	s.Mean = make([]float64, d)
	s.Std = make([]float64, d)

	col := make([]float64, len(x))
	for j := 0; j < d; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		s.Mean[j] = mean
		// Constant columns pass through unscaled
		if std == 0 {
			std = 1
		}
		s.Std[j] = std
	}
	return nil
}

// Transform returns a standardized copy of x
func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	if s.Mean == nil {
		return nil, fmt.Errorf("scaler not fitted")
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("scaler expects %d columns, got %d", len(s.Mean), len(row))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform fits on x and returns its standardized copy
func (s *StandardScaler) FitTransform(x [][]float64) ([][]float64, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
