package predict

import (
	"fmt"
	"math"
	"time"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/training"
)

// Combine merges the trained direction and magnitude artifacts into the
// final prediction for one feature row. An uncertain direction call
// shrinks the predicted move toward zero: a coin-flip probability
// yields a 0% final prediction regardless of the raw magnitude.
func Combine(p *training.Pipeline, row []float64) (*contracts.Prediction, error) {
	if len(row) != len(p.Schema.Names) {
		return nil, fmt.Errorf("%w: row has %d features, pipeline expects %d",
			contracts.ErrArtifactMismatch, len(row), len(p.Schema.Names))
	}
	x := [][]float64{row}

	var labels []int
	var probs []float64
	var err error
	usingDirEnsemble := p.Direction.Ensemble != nil
	if usingDirEnsemble {
		labels, probs, err = p.Direction.Ensemble.Predict(x)
	} else {
		labels, probs, err = p.Direction.Best.Predict(x)
	}
	if err != nil {
		return nil, fmt.Errorf("direction predict: %w", err)
	}

	var magnitudes []float64
	usingMagEnsemble := p.Magnitude.Ensemble != nil
	if usingMagEnsemble {
		magnitudes, err = p.Magnitude.Ensemble.Predict(x)
	} else {
		magnitudes, err = p.Magnitude.Best.Predict(x)
	}
	if err != nil {
		return nil, fmt.Errorf("magnitude predict: %w", err)
	}

	prob := probs[0]
	raw := math.Abs(magnitudes[0])

	direction := contracts.DirectionDown
	sign := -1.0
	if labels[0] == 1 {
		direction = contracts.DirectionUp
		sign = 1.0
	}

	signed := raw * sign
	confidenceScore := math.Abs(prob-0.5) * 2

	return &contracts.Prediction{
		Ticker:                 p.Ticker,
		Direction:              direction,
		DirectionConfidence:    prob,
		RawMagnitudePct:        raw,
		SignedMagnitudePct:     signed,
		FinalPct:               signed * confidenceScore,
		ConfidenceScore:        confidenceScore,
		Confidence:             p.Confidence,
		UsingDirectionEnsemble: usingDirEnsemble,
		UsingMagnitudeEnsemble: usingMagEnsemble,
		PredictedAt:            time.Now().UTC(),
	}, nil
}
