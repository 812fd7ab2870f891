package contracts

import "errors"

// Error taxonomy for the prediction pipeline. Public entry points wrap
// these sentinels so callers can classify failures without string
// matching.
var (
	// ErrDataUnavailable means the upstream fetch returned an empty or
	// too-short series. Never retried automatically.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrInsufficientHistory means feature engineering dropped too many
	// rows to leave a usable sample.
	ErrInsufficientHistory = errors.New("insufficient history after feature engineering")

	// ErrModelFit means an individual estimator failed during fit or
	// predict. Recovered locally by the trainer.
	ErrModelFit = errors.New("model fit failed")

	// ErrNoViableModel means every model failed or no usable candidate
	// survived selection.
	ErrNoViableModel = errors.New("no viable model")

	// ErrArtifactMismatch means an inference request's feature vector does
	// not align with the loaded model's expected feature schema.
	ErrArtifactMismatch = errors.New("artifact feature schema mismatch")

	// ErrArtifactNotFound means no serialized bundle exists for the key.
	ErrArtifactNotFound = errors.New("artifact not found")
)
