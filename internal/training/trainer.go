package training

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/dataset"
	"github.com/dkwon/alphadesk/internal/models"
	"github.com/dkwon/alphadesk/pkg/logger"
)

// DirectionResult is one successfully trained direction model with its
// validation and test scorecards. Test metrics are reported only; they
// never feed selection.
type DirectionResult struct {
	Name   string
	Model  models.Classifier
	Scaler *models.StandardScaler

	Validation contracts.ClassificationMetrics
	Test       contracts.ClassificationMetrics
}

// MagnitudeResult is one successfully trained magnitude model.
// PriceNorm is the mean train close the inputs were divided by for
// price-normalized models, 1 otherwise; inference must reuse it.
type MagnitudeResult struct {
	Name   string
	Model  models.Regressor
	Scaler *models.StandardScaler

	PriceNorm  float64
	CloseIndex int

	Validation contracts.RegressionMetrics
	Test       contracts.RegressionMetrics
}

// Trainer fans the estimator catalog out over a bounded worker pool.
// Each catalog entry trains independently; one model's failure is
// logged and excluded without aborting the others.
type Trainer struct {
	logger *logger.Logger
	caps   models.Capabilities
	seed   int64

	// workers caps pool size; 0 means min(catalog size, NumCPU)
	workers int
}

// NewTrainer creates a trainer with the given capability flags and the
// seed handed to every stochastic estimator.
func NewTrainer(log *logger.Logger, caps models.Capabilities, seed int64) *Trainer {
	return &Trainer{logger: log, caps: caps, seed: seed}
}

func (t *Trainer) poolSize(catalog int) int {
	size := t.workers
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if size > catalog {
		size = catalog
	}
	if size < 1 {
		size = 1
	}
	return size
}

// runPool dispatches n tasks across the bounded pool and waits for all
// of them to settle. Task results land in index-addressed slots, so the
// output order never depends on scheduling.
func (t *Trainer) runPool(n int, task func(i int)) {
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < t.poolSize(n); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				task(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// TrainDirection trains every classifier in the catalog and returns the
// successful results in catalog order. All models failing is a hard
// error.
func (t *Trainer) TrainDirection(ds *dataset.Dataset) ([]DirectionResult, error) {
	catalog := models.DirectionCatalog(t.caps)
	results := make([]*DirectionResult, len(catalog))
	errs := make([]error, len(catalog))

	t.runPool(len(catalog), func(i int) {
		res, err := t.trainOneDirection(catalog[i], ds)
		results[i], errs[i] = res, err
	})

	out := make([]DirectionResult, 0, len(catalog))
	for i, res := range results {
		if errs[i] != nil {
			t.logger.WithError(errs[i]).WithField("model", catalog[i].Name).
				Warn("Direction model failed, excluding from report")
			continue
		}
		out = append(out, *res)
		t.logger.WithFields(map[string]interface{}{
			"model":   res.Name,
			"val_f1":  res.Validation.F1,
			"val_acc": res.Validation.Accuracy,
		}).Debug("Trained direction model")
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: all %d direction models failed", contracts.ErrNoViableModel, len(catalog))
	}
	return out, nil
}

func (t *Trainer) trainOneDirection(spec models.Spec, ds *dataset.Dataset) (res *DirectionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %s panicked: %v", contracts.ErrModelFit, spec.Name, r)
		}
	}()

	xTrain, xVal, xTest := ds.Train.X, ds.Val.X, ds.Test.X
	var scaler *models.StandardScaler
	if spec.NeedsScaling {
		scaler = &models.StandardScaler{}
		if xTrain, err = scaler.FitTransform(xTrain); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
		}
		if xVal, err = scaler.Transform(xVal); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
		}
		if xTest, err = scaler.Transform(xTest); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
		}
	}

	model := spec.NewClassifier(t.seed)
	if err := model.Fit(xTrain, ds.Train.Dir); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
	}

	valPred, err := model.Predict(xVal)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
	}
	testPred, err := model.Predict(xTest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
	}

	return &DirectionResult{
		Name:       spec.Name,
		Model:      model,
		Scaler:     scaler,
		Validation: models.EvaluateClassification(ds.Val.Dir, valPred),
		Test:       models.EvaluateClassification(ds.Test.Dir, testPred),
	}, nil
}

// TrainMagnitude trains every regressor in the catalog and returns the
// successful results in catalog order. closeIndex locates the raw Close
// feature for price-normalized models.
func (t *Trainer) TrainMagnitude(ds *dataset.Dataset, closeIndex int) ([]MagnitudeResult, error) {
	catalog := models.MagnitudeCatalog(t.caps)
	results := make([]*MagnitudeResult, len(catalog))
	errs := make([]error, len(catalog))

	t.runPool(len(catalog), func(i int) {
		res, err := t.trainOneMagnitude(catalog[i], ds, closeIndex)
		results[i], errs[i] = res, err
	})

	out := make([]MagnitudeResult, 0, len(catalog))
	for i, res := range results {
		if errs[i] != nil {
			t.logger.WithError(errs[i]).WithField("model", catalog[i].Name).
				Warn("Magnitude model failed, excluding from report")
			continue
		}
		out = append(out, *res)
		t.logger.WithFields(map[string]interface{}{
			"model":  res.Name,
			"val_r2": res.Validation.R2,
		}).Debug("Trained magnitude model")
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: all %d magnitude models failed", contracts.ErrNoViableModel, len(catalog))
	}
	return out, nil
}

func (t *Trainer) trainOneMagnitude(spec models.Spec, ds *dataset.Dataset, closeIndex int) (res *MagnitudeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %s panicked: %v", contracts.ErrModelFit, spec.Name, r)
		}
	}()

	xTrain, xVal, xTest := ds.Train.X, ds.Val.X, ds.Test.X
	yTrain := ds.Train.Mag

	priceNorm := 1.0
	if spec.NeedsPriceNorm {
		priceNorm = meanColumn(xTrain, closeIndex)
		if priceNorm == 0 {
			priceNorm = 1
		}
		xTrain = divideColumn(xTrain, closeIndex, priceNorm)
		xVal = divideColumn(xVal, closeIndex, priceNorm)
		xTest = divideColumn(xTest, closeIndex, priceNorm)
		yTrain = divideAll(yTrain, priceNorm)
	}

	var scaler *models.StandardScaler
	if spec.NeedsScaling {
		scaler = &models.StandardScaler{}
		if xTrain, err = scaler.FitTransform(xTrain); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
		}
		if xVal, err = scaler.Transform(xVal); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
		}
		if xTest, err = scaler.Transform(xTest); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
		}
	}

	model := spec.NewRegressor(t.seed)
	if err := model.Fit(xTrain, yTrain); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
	}

	valPred, err := model.Predict(xVal)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
	}
	testPred, err := model.Predict(xTest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelFit, spec.Name, err)
	}
	// Undo the target normalization before scoring
	if priceNorm != 1 {
		valPred = multiplyAll(valPred, priceNorm)
		testPred = multiplyAll(testPred, priceNorm)
	}

	trainScale := meanAbs(ds.Train.Mag)
	return &MagnitudeResult{
		Name:       spec.Name,
		Model:      model,
		Scaler:     scaler,
		PriceNorm:  priceNorm,
		CloseIndex: closeIndex,
		Validation: models.EvaluateRegression(ds.Val.Mag, valPred, trainScale),
		Test:       models.EvaluateRegression(ds.Test.Mag, testPred, trainScale),
	}, nil
}

// meanAbs is the NRMSE denominator: signed means cancel on balanced
// tickers, absolute means do not.
func meanAbs(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += math.Abs(v)
	}
	return sum / float64(len(x))
}

func meanColumn(x [][]float64, j int) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, row := range x {
		sum += row[j]
	}
	return sum / float64(len(x))
}

func divideColumn(x [][]float64, j int, c float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		cp := make([]float64, len(row))
		copy(cp, row)
		cp[j] /= c
		out[i] = cp
	}
	return out
}

func divideAll(x []float64, c float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v / c
	}
	return out
}

func multiplyAll(x []float64, c float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v * c
	}
	return out
}
