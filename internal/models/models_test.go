package models

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable builds a 2-feature dataset where the label is decided by
// the sign of x0 + x1.
func separable(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		a := rng.Float64()*4 - 2
		b := rng.Float64()*4 - 2
		x[i] = []float64{a, b}
		if a+b > 0 {
			y[i] = 1
		}
	}
	return x, y
}

func TestStandardScaler(t *testing.T) {
	s := &StandardScaler{}
	train := [][]float64{{1, 10}, {2, 20}, {3, 30}}

	scaled, err := s.FitTransform(train)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, s.Mean[0], 1e-12)
	assert.InDelta(t, 20.0, s.Mean[1], 1e-12)
	assert.InDelta(t, 0.0, scaled[1][0], 1e-12, "mean row scales to zero")

	// Transform reuses the training statistics
	out, err := s.Transform([][]float64{{2, 20}})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, out[0][0], 1e-12)
	assert.InDelta(t, 0.0, out[0][1], 1e-12)

	_, err = s.Transform([][]float64{{1, 2, 3}})
	assert.Error(t, err, "column count mismatch")
}

func TestStandardScalerConstantColumn(t *testing.T) {
	s := &StandardScaler{}
	out, err := s.FitTransform([][]float64{{5, 1}, {5, 2}, {5, 3}})
	require.NoError(t, err)
	for _, row := range out {
		assert.InDelta(t, 0.0, row[0], 1e-12, "constant column centers without blowing up")
	}
}

func TestLogisticRegressionSeparable(t *testing.T) {
	x, y := separable(200, 1)
	m := NewLogisticRegression()
	require.NoError(t, m.Fit(x, y))

	pred, err := m.Predict(x)
	require.NoError(t, err)
	metrics := EvaluateClassification(y, pred)
	assert.Greater(t, metrics.Accuracy, 0.95)

	probs, err := m.PredictProba([][]float64{{2, 2}, {-2, -2}})
	require.NoError(t, err)
	assert.Greater(t, probs[0], 0.9)
	assert.Less(t, probs[1], 0.1)
}

func TestRidgeRecoversLinearFit(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	var x [][]float64
	var y []float64
	for i := 0; i < 300; i++ {
		a := rng.NormFloat64()
		b := rng.NormFloat64()
		x = append(x, []float64{a, b})
		y = append(y, 2*a-3*b+1)
	}

	m := NewRidgeRegression(1e-6)
	require.NoError(t, m.Fit(x, y))
	assert.InDelta(t, 2.0, m.Weights[0], 1e-3)
	assert.InDelta(t, -3.0, m.Weights[1], 1e-3)
	assert.InDelta(t, 1.0, m.Intercept, 1e-3)

	pred, err := m.Predict([][]float64{{1, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, pred[0], 1e-2)
}

func TestRandomForestClassifier(t *testing.T) {
	x, y := separable(300, 3)
	m := NewRandomForestClassifier(ForestConfig{Trees: 30, MaxDepth: 6, MinSamplesSplit: 5, Seed: 42})
	require.NoError(t, m.Fit(x, y))

	pred, err := m.Predict(x)
	require.NoError(t, err)
	assert.Greater(t, EvaluateClassification(y, pred).Accuracy, 0.9)

	probs, err := m.PredictProba(x)
	require.NoError(t, err)
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestRandomForestDeterminism(t *testing.T) {
	x, y := separable(200, 4)

	fit := func() []float64 {
		m := NewRandomForestClassifier(ForestConfig{Trees: 20, MaxDepth: 5, MinSamplesSplit: 5, Seed: 42})
		require.NoError(t, m.Fit(x, y))
		probs, err := m.PredictProba(x)
		require.NoError(t, err)
		return probs
	}

	assert.Equal(t, fit(), fit(), "same seed reproduces the forest exactly")
}

func TestGradientBoostingRegressor(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	var x [][]float64
	var y []float64
	var mean float64
	for i := 0; i < 300; i++ {
		a := rng.Float64()*2 - 1
		x = append(x, []float64{a})
		target := a*a + 0.5*a
		y = append(y, target)
		mean += target
	}
	mean /= float64(len(y))

	m := NewGradientBoostingRegressor(BoostingConfig{Iterations: 80, LearningRate: 0.1, MaxDepth: 3, MinSamples: 2, Seed: 42})
	require.NoError(t, m.Fit(x, y))

	pred, err := m.Predict(x)
	require.NoError(t, err)

	var sseModel, sseMean float64
	for i := range y {
		sseModel += (pred[i] - y[i]) * (pred[i] - y[i])
		sseMean += (mean - y[i]) * (mean - y[i])
	}
	assert.Less(t, sseModel, sseMean/10, "boosting beats the mean predictor on a nonlinear target")
}

func TestGradientBoostingClassifierProba(t *testing.T) {
	x, y := separable(300, 6)
	m := NewGradientBoostingClassifier(BoostingConfig{Iterations: 60, LearningRate: 0.1, MaxDepth: 3, MinSamples: 2, Seed: 42})
	require.NoError(t, m.Fit(x, y))

	pred, err := m.Predict(x)
	require.NoError(t, err)
	assert.Greater(t, EvaluateClassification(y, pred).Accuracy, 0.9)
}

func TestKNNClassifier(t *testing.T) {
	x := [][]float64{{0, 0}, {0, 0.1}, {0.1, 0}, {5, 5}, {5, 5.1}, {5.1, 5}}
	y := []int{0, 0, 0, 1, 1, 1}

	m := NewKNNClassifier(3)
	require.NoError(t, m.Fit(x, y))

	probs, err := m.PredictProba([][]float64{{0.05, 0.05}, {5.05, 5.05}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, probs[0])
	assert.Equal(t, 1.0, probs[1])

	pred, err := m.Predict([][]float64{{0.05, 0.05}, {5.05, 5.05}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, pred)
}

func TestKNNRegressor(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {10}, {11}, {12}}
	y := []float64{0, 1, 2, 10, 11, 12}

	m := NewKNNRegressor(3)
	require.NoError(t, m.Fit(x, y))

	pred, err := m.Predict([][]float64{{1}, {11}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, pred[0], 1e-12)
	assert.InDelta(t, 11.0, pred[1], 1e-12)

	err = NewKNNRegressor(10).Fit(x, y)
	assert.Error(t, err, "k larger than the training set")
}

func TestMLPClassifierSeparable(t *testing.T) {
	x, y := separable(200, 7)
	cfg := MLPConfig{Hidden: []int{8}, MaxIter: 200, LR: 0.05, Momentum: 0.9, Seed: 42}
	m := NewMLPClassifier(cfg)
	require.NoError(t, m.Fit(x, y))

	pred, err := m.Predict(x)
	require.NoError(t, err)
	assert.Greater(t, EvaluateClassification(y, pred).Accuracy, 0.85)
}

func TestEvaluateClassification(t *testing.T) {
	yTrue := []int{1, 1, 0, 0, 1, 0}
	yPred := []int{1, 0, 0, 1, 1, 0}

	m := EvaluateClassification(yTrue, yPred)
	assert.InDelta(t, 4.0/6.0, m.Accuracy, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.Precision, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.Recall, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.F1, 1e-12)
}

func TestEvaluateClassificationZeroDivision(t *testing.T) {
	// No predicted positives and no actual positives
	m := EvaluateClassification([]int{0, 0, 0}, []int{0, 0, 0})
	assert.Equal(t, 1.0, m.Accuracy)
	assert.Equal(t, 0.0, m.Precision)
	assert.Equal(t, 0.0, m.Recall)
	assert.Equal(t, 0.0, m.F1)
}

func TestEvaluateRegression(t *testing.T) {
	yTrue := []float64{1, 2, 3, 4}
	yPred := []float64{1.5, 2.5, 2.5, 4.5}

	m := EvaluateRegression(yTrue, yPred, 2.0)
	assert.InDelta(t, 0.5, m.MAE, 1e-12)
	assert.InDelta(t, 0.5, m.RMSE, 1e-12)
	assert.InDelta(t, 25.0, m.NRMSE, 1e-9)
	assert.Less(t, m.R2, 1.0)

	perfect := EvaluateRegression(yTrue, yTrue, 0)
	assert.InDelta(t, 1.0, perfect.R2, 1e-12)
	assert.Equal(t, 0.0, perfect.NRMSE, "zero denominator leaves NRMSE unset")
}

func TestEvaluateRegressionBalancedTarget(t *testing.T) {
	// Signed moves of a balanced ticker cancel to ~0; the denominator is
	// the mean absolute target, so NRMSE stays on the same scale as the
	// moves themselves instead of exploding.
	yTrue := []float64{2, -2, 1.5, -1.5}
	yPred := []float64{1.5, -1.5, 1, -1}

	m := EvaluateRegression(yTrue, yPred, 1.75)
	assert.InDelta(t, 0.5, m.RMSE, 1e-12)
	assert.InDelta(t, 0.5/1.75*100, m.NRMSE, 1e-9)
	assert.Less(t, m.NRMSE, 100.0)
}

func TestCatalogsAndCapabilities(t *testing.T) {
	dir := DirectionCatalog(Capabilities{})
	names := make([]string, len(dir))
	for i, spec := range dir {
		names[i] = spec.Name
		require.NotNil(t, spec.NewClassifier, "%s must build a classifier", spec.Name)
	}
	assert.Equal(t, []string{NameLogistic, NameForest, NameBoosting, NameKNN}, names,
		"declaration order is the tie-break contract")

	withMLP := DirectionCatalog(Capabilities{EnableMLP: true})
	assert.Equal(t, NameMLP, withMLP[len(withMLP)-1].Name)

	mag := MagnitudeCatalog(Capabilities{EnableMLP: true})
	assert.Equal(t, NameRidge, mag[0].Name)
	for _, spec := range mag {
		require.NotNil(t, spec.NewRegressor, "%s must build a regressor", spec.Name)
	}
	assert.True(t, mag[0].NeedsScaling)
	assert.True(t, mag[0].NeedsPriceNorm)
}

func TestUnmarshalRoundTrip(t *testing.T) {
	x, y := separable(100, 8)

	forest := NewRandomForestClassifier(ForestConfig{Trees: 5, MaxDepth: 4, MinSamplesSplit: 5, Seed: 42})
	require.NoError(t, forest.Fit(x, y))
	want, err := forest.PredictProba(x)
	require.NoError(t, err)

	blob, err := json.Marshal(forest)
	require.NoError(t, err)
	decoded, err := UnmarshalClassifier(NameForest, blob)
	require.NoError(t, err)

	proba, ok := decoded.(ProbaClassifier)
	require.True(t, ok)
	got, err := proba.PredictProba(x)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = UnmarshalClassifier("nope", blob)
	assert.Error(t, err)
}
