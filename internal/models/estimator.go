package models

// Classifier predicts a binary next-period direction label (1 up, 0
// down). Implementations are single-goroutine objects: Fit once, then
// Predict from any number of callers.
type Classifier interface {
	Fit(x [][]float64, y []int) error
	Predict(x [][]float64) ([]int, error)
}

// ProbaClassifier is implemented by classifiers that can report the
// probability of the positive class. Ensembles prefer probabilities and
// fall back to hard labels for members without them.
type ProbaClassifier interface {
	Classifier
	PredictProba(x [][]float64) ([]float64, error)
}

// Regressor predicts the next-period percentage move
type Regressor interface {
	Fit(x [][]float64, y []float64) error
	Predict(x [][]float64) ([]float64, error)
}
