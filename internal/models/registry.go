package models

import (
	"encoding/json"
	"fmt"
)

// Catalog entry names. Stable identifiers: persisted artifacts refer to
// these when reconstructing estimators.
const (
	NameLogistic = "logistic_regression"
	NameRidge    = "ridge"
	NameForest   = "random_forest"
	NameBoosting = "gradient_boosting"
	NameKNN      = "knn"
	NameMLP      = "mlp"
)

// Capabilities gates optional catalog entries. Resolved once at startup
// from config, never re-checked mid-run.
type Capabilities struct {
	EnableMLP bool
}

// Spec is one named estimator factory in the static registry. Catalog
// slice order is part of the contract: ties on validation score resolve
// to the earlier entry.
type Spec struct {
	Name string

	// NeedsScaling pairs the model with a StandardScaler fit on the
	// train partition only.
	NeedsScaling bool

	// NeedsPriceNorm divides the raw Close feature (and the regression
	// target) by the mean train close before fitting; predictions are
	// multiplied back by the captured constant.
	NeedsPriceNorm bool

	NewClassifier func(seed int64) Classifier
	NewRegressor  func(seed int64) Regressor
}

func forestConfig(seed int64) ForestConfig {
	return ForestConfig{Trees: 200, MaxDepth: 10, MinSamplesSplit: 5, Seed: seed}
}

func boostingConfig(seed int64) BoostingConfig {
	return BoostingConfig{Iterations: 150, LearningRate: 0.05, MaxDepth: 5, MinSamples: 2, Seed: seed}
}

// DirectionCatalog returns the classification registry in declaration
// order.
func DirectionCatalog(caps Capabilities) []Spec {
	catalog := []Spec{
		{
			Name:         NameLogistic,
			NeedsScaling: true,
			NewClassifier: func(int64) Classifier {
				return NewLogisticRegression()
			},
		},
		{
			Name: NameForest,
			NewClassifier: func(seed int64) Classifier {
				return NewRandomForestClassifier(forestConfig(seed))
			},
		},
		{
			Name: NameBoosting,
			NewClassifier: func(seed int64) Classifier {
				return NewGradientBoostingClassifier(boostingConfig(seed))
			},
		},
		{
			Name:         NameKNN,
			NeedsScaling: true,
			NewClassifier: func(int64) Classifier {
				return NewKNNClassifier(5)
			},
		},
	}
	if caps.EnableMLP {
		catalog = append(catalog, Spec{
			Name:         NameMLP,
			NeedsScaling: true,
			NewClassifier: func(seed int64) Classifier {
				return NewMLPClassifier(DefaultMLPConfig(seed))
			},
		})
	}
	return catalog
}

// MagnitudeCatalog returns the regression registry in declaration order.
func MagnitudeCatalog(caps Capabilities) []Spec {
	catalog := []Spec{
		{
			Name:           NameRidge,
			NeedsScaling:   true,
			NeedsPriceNorm: true,
			NewRegressor: func(int64) Regressor {
				return NewRidgeRegression(1.0)
			},
		},
		{
			Name: NameForest,
			NewRegressor: func(seed int64) Regressor {
				return NewRandomForestRegressor(forestConfig(seed))
			},
		},
		{
			Name: NameBoosting,
			NewRegressor: func(seed int64) Regressor {
				return NewGradientBoostingRegressor(boostingConfig(seed))
			},
		},
		{
			Name:         NameKNN,
			NeedsScaling: true,
			NewRegressor: func(int64) Regressor {
				return NewKNNRegressor(5)
			},
		},
	}
	if caps.EnableMLP {
		catalog = append(catalog, Spec{
			Name:           NameMLP,
			NeedsScaling:   true,
			NeedsPriceNorm: true,
			NewRegressor: func(seed int64) Regressor {
				return NewMLPRegressor(DefaultMLPConfig(seed))
			},
		})
	}
	return catalog
}

// UnmarshalClassifier reconstructs a fitted classifier from its
// serialized form by catalog name.
func UnmarshalClassifier(name string, data []byte) (Classifier, error) {
	var m Classifier
	switch name {
	case NameLogistic:
		m = &LogisticRegression{}
	case NameForest:
		m = &RandomForestClassifier{}
	case NameBoosting:
		m = &GradientBoostingClassifier{}
	case NameKNN:
		m = &KNNClassifier{}
	case NameMLP:
		m = &MLPClassifier{}
	default:
		return nil, fmt.Errorf("unknown classifier %q", name)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode classifier %s: %w", name, err)
	}
	return m, nil
}

// UnmarshalRegressor reconstructs a fitted regressor from its serialized
// form by catalog name.
func UnmarshalRegressor(name string, data []byte) (Regressor, error) {
	var m Regressor
	switch name {
	case NameRidge:
		m = &RidgeRegression{}
	case NameForest:
		m = &RandomForestRegressor{}
	case NameBoosting:
		m = &GradientBoostingRegressor{}
	case NameKNN:
		m = &KNNRegressor{}
	case NameMLP:
		m = &MLPRegressor{}
	default:
		return nil, fmt.Errorf("unknown regressor %q", name)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode regressor %s: %w", name, err)
	}
	return m, nil
}
