package models

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/dkwon/alphadesk/internal/contracts"
)

// EvaluateClassification scores predicted direction labels against the
// truth. Degenerate denominators (no predicted positives, no actual
// positives) score 0 rather than erroring.
func EvaluateClassification(yTrue, yPred []int) contracts.ClassificationMetrics {
	var tp, fp, fn, correct float64
	for i := range yTrue {
		if yPred[i] == yTrue[i] {
			correct++
		}
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			tp++
		case yPred[i] == 1 && yTrue[i] == 0:
			fp++
		case yPred[i] == 0 && yTrue[i] == 1:
			fn++
		}
	}

	m := contracts.ClassificationMetrics{}
	if len(yTrue) > 0 {
		m.Accuracy = correct / float64(len(yTrue))
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// EvaluateRegression scores predicted magnitudes against the truth.
// NRMSE normalizes RMSE by the mean ABSOLUTE training target: a signed
// mean would sit near zero for any balanced ticker and blow the metric
// up, defeating cross-ticker comparison. meanAbsTarget of 0 leaves
// NRMSE at 0.
func EvaluateRegression(yTrue, yPred []float64, meanAbsTarget float64) contracts.RegressionMetrics {
	m := contracts.RegressionMetrics{}
	n := len(yTrue)
	if n == 0 {
		return m
	}

	var sumAbs, sumSq float64
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		sumAbs += math.Abs(d)
		sumSq += d * d
	}
	m.MAE = sumAbs / float64(n)
	m.RMSE = math.Sqrt(sumSq / float64(n))
	m.R2 = stat.RSquaredFrom(yPred, yTrue, nil)

	if meanAbsTarget != 0 {
		m.NRMSE = m.RMSE / math.Abs(meanAbsTarget) * 100
	}
	return m
}
