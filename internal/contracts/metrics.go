package contracts

// ClassificationMetrics scores a direction model on one partition.
// Zero-division cases (no predicted positives, no actual positives)
// score 0, never error.
type ClassificationMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// RegressionMetrics scores a magnitude model on one partition.
// NRMSE is RMSE divided by the mean absolute training-target value, as
// a percentage, so different tickers stay comparable even when signed
// moves net out to zero.
type RegressionMetrics struct {
	R2    float64 `json:"r2"`
	MAE   float64 `json:"mae"`
	RMSE  float64 `json:"rmse"`
	NRMSE float64 `json:"nrmse"`
}

// ConfidenceLabel is the coarse summary of a trained pipeline's
// validation quality.
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "high"
	ConfidenceMedium ConfidenceLabel = "medium"
	ConfidenceLow    ConfidenceLabel = "low"
)

// GradeConfidence maps the best direction model's validation F1 and the
// best magnitude model's validation R² to a label.
func GradeConfidence(dirF1, magR2 float64) ConfidenceLabel {
	switch {
	case dirF1 > 0.6 && magR2 > 0.3:
		return ConfidenceHigh
	case dirF1 > 0.55 && magR2 > 0.15:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
