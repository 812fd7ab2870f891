package artifacts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/models"
	"github.com/dkwon/alphadesk/internal/training"
)

// envelope is the persisted form of a trained pipeline. Estimators are
// stored as raw JSON next to their catalog name so decoding can pick
// the right concrete type.
type envelope struct {
	Version    int                       `json:"version"`
	Ticker     string                    `json:"ticker"`
	Schema     contracts.FeatureSchema   `json:"schema"`
	Direction  directionBundle           `json:"direction"`
	Magnitude  magnitudeBundle           `json:"magnitude"`
	Confidence contracts.ConfidenceLabel `json:"confidence"`
	TrainedAt  time.Time                 `json:"trained_at"`
}

type directionEntry struct {
	Name       string                          `json:"name"`
	Model      json.RawMessage                 `json:"model"`
	Scaler     *models.StandardScaler          `json:"scaler,omitempty"`
	Validation contracts.ClassificationMetrics `json:"validation"`
	Test       contracts.ClassificationMetrics `json:"test"`
}

type magnitudeEntry struct {
	Name       string                      `json:"name"`
	Model      json.RawMessage             `json:"model"`
	Scaler     *models.StandardScaler      `json:"scaler,omitempty"`
	PriceNorm  float64                     `json:"price_norm"`
	CloseIndex int                         `json:"close_index"`
	Validation contracts.RegressionMetrics `json:"validation"`
	Test       contracts.RegressionMetrics `json:"test"`
}

// memberRef points into the report slice, preserving ensemble identity
// without duplicating the serialized model.
type memberRef struct {
	Index  int     `json:"index"`
	Weight float64 `json:"weight"`
}

type directionBundle struct {
	Best     int              `json:"best"`
	Report   []directionEntry `json:"report"`
	Ensemble []memberRef      `json:"ensemble,omitempty"`
}

type magnitudeBundle struct {
	Best     int              `json:"best"`
	Report   []magnitudeEntry `json:"report"`
	Ensemble []memberRef      `json:"ensemble,omitempty"`
}

// Encode serializes a trained pipeline to its storage form
func Encode(p *training.Pipeline) ([]byte, error) {
	env := envelope{
		Version:    contracts.SchemaVersion,
		Ticker:     p.Ticker,
		Schema:     p.Schema,
		Confidence: p.Confidence,
		TrainedAt:  p.TrainedAt,
	}

	var err error
	if env.Direction, err = encodeDirection(p.Direction); err != nil {
		return nil, err
	}
	if env.Magnitude, err = encodeMagnitude(p.Magnitude); err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func encodeDirection(sel *training.DirectionSelection) (directionBundle, error) {
	var b directionBundle
	b.Best = -1
	for i := range sel.Report {
		r := &sel.Report[i]
		raw, err := json.Marshal(r.Model)
		if err != nil {
			return b, fmt.Errorf("encode direction model %s: %w", r.Name, err)
		}
		b.Report = append(b.Report, directionEntry{
			Name:       r.Name,
			Model:      raw,
			Scaler:     r.Scaler,
			Validation: r.Validation,
			Test:       r.Test,
		})
		if r == sel.Best || r.Name == sel.Best.Name {
			b.Best = i
		}
	}
	if b.Best < 0 {
		return b, fmt.Errorf("encode direction: best model not in report")
	}
	if sel.Ensemble != nil {
		for _, m := range sel.Ensemble.Members {
			idx := indexOfDirection(sel.Report, m.Result.Name)
			if idx < 0 {
				return b, fmt.Errorf("encode direction: ensemble member %s not in report", m.Result.Name)
			}
			b.Ensemble = append(b.Ensemble, memberRef{Index: idx, Weight: m.Weight})
		}
	}
	return b, nil
}

func encodeMagnitude(sel *training.MagnitudeSelection) (magnitudeBundle, error) {
	var b magnitudeBundle
	b.Best = -1
	for i := range sel.Report {
		r := &sel.Report[i]
		raw, err := json.Marshal(r.Model)
		if err != nil {
			return b, fmt.Errorf("encode magnitude model %s: %w", r.Name, err)
		}
		b.Report = append(b.Report, magnitudeEntry{
			Name:       r.Name,
			Model:      raw,
			Scaler:     r.Scaler,
			PriceNorm:  r.PriceNorm,
			CloseIndex: r.CloseIndex,
			Validation: r.Validation,
			Test:       r.Test,
		})
		if r == sel.Best || r.Name == sel.Best.Name {
			b.Best = i
		}
	}
	if b.Best < 0 {
		return b, fmt.Errorf("encode magnitude: best model not in report")
	}
	if sel.Ensemble != nil {
		for _, m := range sel.Ensemble.Members {
			idx := indexOfMagnitude(sel.Report, m.Result.Name)
			if idx < 0 {
				return b, fmt.Errorf("encode magnitude: ensemble member %s not in report", m.Result.Name)
			}
			b.Ensemble = append(b.Ensemble, memberRef{Index: idx, Weight: m.Weight})
		}
	}
	return b, nil
}

func indexOfDirection(report []training.DirectionResult, name string) int {
	for i := range report {
		if report[i].Name == name {
			return i
		}
	}
	return -1
}

func indexOfMagnitude(report []training.MagnitudeResult, name string) int {
	for i := range report {
		if report[i].Name == name {
			return i
		}
	}
	return -1
}

// Decode reconstructs a pipeline from its storage form, rejecting
// envelopes written under a different schema version.
func Decode(data []byte) (*training.Pipeline, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if env.Version != contracts.SchemaVersion {
		return nil, fmt.Errorf("%w: artifact written at schema v%d, runtime is v%d",
			contracts.ErrArtifactMismatch, env.Version, contracts.SchemaVersion)
	}

	direction, err := decodeDirection(env.Direction)
	if err != nil {
		return nil, err
	}
	magnitude, err := decodeMagnitude(env.Magnitude)
	if err != nil {
		return nil, err
	}

	return &training.Pipeline{
		Ticker:     env.Ticker,
		Schema:     env.Schema,
		Direction:  direction,
		Magnitude:  magnitude,
		Confidence: env.Confidence,
		TrainedAt:  env.TrainedAt,
	}, nil
}

func decodeDirection(b directionBundle) (*training.DirectionSelection, error) {
	if len(b.Report) == 0 || b.Best < 0 || b.Best >= len(b.Report) {
		return nil, fmt.Errorf("%w: direction bundle has no usable best model", contracts.ErrArtifactMismatch)
	}

	report := make([]training.DirectionResult, len(b.Report))
	for i, e := range b.Report {
		model, err := models.UnmarshalClassifier(e.Name, e.Model)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contracts.ErrArtifactMismatch, err)
		}
		report[i] = training.DirectionResult{
			Name:       e.Name,
			Model:      model,
			Scaler:     e.Scaler,
			Validation: e.Validation,
			Test:       e.Test,
		}
	}

	sel := &training.DirectionSelection{Best: &report[b.Best], Report: report}
	if len(b.Ensemble) > 0 {
		ens := &training.DirectionEnsemble{}
		for _, ref := range b.Ensemble {
			if ref.Index < 0 || ref.Index >= len(report) {
				return nil, fmt.Errorf("%w: direction ensemble index %d out of range", contracts.ErrArtifactMismatch, ref.Index)
			}
			ens.Members = append(ens.Members, training.DirectionMember{
				Result: &report[ref.Index],
				Weight: ref.Weight,
			})
		}
		sel.Ensemble = ens
	}
	return sel, nil
}

func decodeMagnitude(b magnitudeBundle) (*training.MagnitudeSelection, error) {
	if len(b.Report) == 0 || b.Best < 0 || b.Best >= len(b.Report) {
		return nil, fmt.Errorf("%w: magnitude bundle has no usable best model", contracts.ErrArtifactMismatch)
	}

	report := make([]training.MagnitudeResult, len(b.Report))
	for i, e := range b.Report {
		model, err := models.UnmarshalRegressor(e.Name, e.Model)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contracts.ErrArtifactMismatch, err)
		}
		report[i] = training.MagnitudeResult{
			Name:       e.Name,
			Model:      model,
			Scaler:     e.Scaler,
			PriceNorm:  e.PriceNorm,
			CloseIndex: e.CloseIndex,
			Validation: e.Validation,
			Test:       e.Test,
		}
	}

	sel := &training.MagnitudeSelection{Best: &report[b.Best], Report: report}
	if len(b.Ensemble) > 0 {
		ens := &training.MagnitudeEnsemble{}
		for _, ref := range b.Ensemble {
			if ref.Index < 0 || ref.Index >= len(report) {
				return nil, fmt.Errorf("%w: magnitude ensemble index %d out of range", contracts.ErrArtifactMismatch, ref.Index)
			}
			ens.Members = append(ens.Members, training.MagnitudeMember{
				Result: &report[ref.Index],
				Weight: ref.Weight,
			})
		}
		sel.Ensemble = ens
	}
	return sel, nil
}
