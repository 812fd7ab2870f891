package contracts

import "time"

// Direction of the predicted next-period move
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Prediction is the combined direction+magnitude forecast served to
// callers.
//
// FinalPct is the signed magnitude shrunk by the confidence score, so a
// coin-flip direction call reports a move near zero instead of a
// confidently-sized number on a weak signal.
type Prediction struct {
	Ticker string `json:"ticker"`

	Direction Direction `json:"direction"`
	// DirectionConfidence is the probability of UP, in [0,1].
	DirectionConfidence float64 `json:"direction_confidence"`

	// RawMagnitudePct is the unsigned predicted move size.
	RawMagnitudePct float64 `json:"raw_magnitude_pct"`
	// SignedMagnitudePct carries the direction's sign.
	SignedMagnitudePct float64 `json:"signed_magnitude_pct"`
	// FinalPct = SignedMagnitudePct * ConfidenceScore.
	FinalPct float64 `json:"final_prediction_pct"`

	// ConfidenceScore = |DirectionConfidence - 0.5| * 2.
	ConfidenceScore float64 `json:"confidence_score"`

	// Overall pipeline confidence from validation metrics.
	Confidence ConfidenceLabel `json:"confidence"`

	UsingDirectionEnsemble bool `json:"using_direction_ensemble"`
	UsingMagnitudeEnsemble bool `json:"using_magnitude_ensemble"`

	PredictedAt time.Time `json:"predicted_at"`
}
