package fundamentals

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/models"
	"github.com/dkwon/alphadesk/pkg/logger"
)

// Sample is one company-year of training data: the raw metric values
// for two consecutive periods and the following year's price change.
type Sample struct {
	Latest map[string]float64 `json:"latest"`
	Prev   map[string]float64 `json:"prev"`

	// PriceChange is the fractional year-over-year price move
	PriceChange float64 `json:"price_change"`
}

// Artifact is the persisted fundamentals direction model: the fitted
// classifier plus the exact ordered feature list it was trained on.
type Artifact struct {
	Schema   contracts.FeatureSchema            `json:"schema"`
	Features []string                           `json:"features"`
	Model    *models.GradientBoostingClassifier `json:"model"`
}

// Report summarizes the held-out evaluation of a training run
type Report struct {
	Selected []string
	Holdout  contracts.ClassificationMetrics
	Samples  int
}

// Trainer fits the fundamentals direction model
type Trainer struct {
	logger *logger.Logger
	opts   SelectionOptions
	seed   int64
}

// NewTrainer creates a trainer with the default selection thresholds
func NewTrainer(log *logger.Logger, seed int64) *Trainer {
	return &Trainer{logger: log, opts: DefaultSelectionOptions(), seed: seed}
}

// Train selects YoY-growth features against the price-change target,
// fits a boosted classifier on an 80/20 shuffled split, and returns
// the artifact with its holdout report.
func (t *Trainer) Train(samples []Sample, metrics []string) (*Artifact, *Report, error) {
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("%w: no fundamentals samples", contracts.ErrDataUnavailable)
	}

	growth := make([][]float64, len(samples))
	target := make([]float64, len(samples))
	for i, s := range samples {
		row := make([]float64, len(metrics))
		for j, m := range metrics {
			row[j] = growthOrNaN(s.Latest, s.Prev, m)
		}
		growth[i] = row
		target[i] = s.PriceChange
	}

	selected := SelectFeatures(growth, target, metrics, t.opts)
	if len(selected) == 0 {
		return nil, nil, fmt.Errorf("%w: no feature cleared the correlation filter", contracts.ErrNoViableModel)
	}

	colOf := make(map[string]int, len(metrics))
	for j, m := range metrics {
		colOf[m] = j
	}

	// Missing growth fills with 0 so every sample stays usable
	x := make([][]float64, len(samples))
	y := make([]int, len(samples))
	for i := range samples {
		row := make([]float64, len(selected))
		for j, name := range selected {
			v := growth[i][colOf[name]]
			if math.IsNaN(v) {
				v = 0
			}
			row[j] = v
		}
		x[i] = row
		if target[i] > 0 {
			y[i] = 1
		}
	}

	trainX, trainY, testX, testY := holdoutSplit(x, y, 0.2, t.seed)
	if len(trainX) == 0 || len(testX) == 0 {
		return nil, nil, fmt.Errorf("%w: %d samples cannot fill a holdout split", contracts.ErrInsufficientHistory, len(x))
	}

	model := models.NewGradientBoostingClassifier(models.BoostingConfig{
		Iterations:   100,
		LearningRate: 0.1,
		MaxDepth:     4,
		MinSamples:   2,
		Seed:         t.seed,
	})
	if err := model.Fit(trainX, trainY); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", contracts.ErrModelFit, err)
	}

	pred, err := model.Predict(testX)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", contracts.ErrModelFit, err)
	}
	report := &Report{
		Selected: selected,
		Holdout:  models.EvaluateClassification(testY, pred),
		Samples:  len(x),
	}

	t.logger.WithFields(map[string]interface{}{
		"samples":    len(x),
		"features":   len(selected),
		"holdout_f1": report.Holdout.F1,
	}).Info("Trained fundamentals direction model")

	return &Artifact{
		Schema:   contracts.NewFeatureSchema(selected),
		Features: selected,
		Model:    model,
	}, report, nil
}

// holdoutSplit shuffles indices with the given seed and carves off the
// trailing fraction as the holdout.
func holdoutSplit(x [][]float64, y []int, testFrac float64, seed int64) ([][]float64, []int, [][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(len(x))
	cut := len(x) - int(float64(len(x))*testFrac)

	var trainX, testX [][]float64
	var trainY, testY []int
	for i, p := range idx {
		if i < cut {
			trainX = append(trainX, x[p])
			trainY = append(trainY, y[p])
		} else {
			testX = append(testX, x[p])
			testY = append(testY, y[p])
		}
	}
	return trainX, trainY, testX, testY
}

// Predict builds the YoY-growth vector for a snapshot and returns the
// predicted direction with the probability of that direction.
func (a *Artifact) Predict(snap contracts.FinancialSnapshot) (contracts.Direction, float64, error) {
	if a.Model == nil {
		return "", 0, fmt.Errorf("%w: fundamentals model missing", contracts.ErrArtifactNotFound)
	}
	if err := a.Schema.Validate(a.Features); err != nil {
		return "", 0, err
	}

	row := GrowthVector(snap, a.Features)
	probs, err := a.Model.PredictProba([][]float64{row})
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", contracts.ErrModelFit, err)
	}

	if probs[0] >= 0.5 {
		return contracts.DirectionUp, probs[0], nil
	}
	return contracts.DirectionDown, 1 - probs[0], nil
}
