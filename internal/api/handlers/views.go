package handlers

import (
	"time"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/training"
)

// PipelineView is the API projection of a trained pipeline: names,
// scores, and ensemble weights, never the fitted estimator state.
type PipelineView struct {
	Ticker        string                    `json:"ticker"`
	SchemaVersion int                       `json:"schema_version"`
	Features      int                       `json:"features"`
	Confidence    contracts.ConfidenceLabel `json:"confidence"`
	TrainedAt     time.Time                 `json:"trained_at"`

	Direction DirectionView `json:"direction"`
	Magnitude MagnitudeView `json:"magnitude"`
}

type DirectionView struct {
	Best     string               `json:"best"`
	Report   []DirectionScorecard `json:"report"`
	Ensemble []EnsembleMemberView `json:"ensemble,omitempty"`
}

type MagnitudeView struct {
	Best     string               `json:"best"`
	Report   []MagnitudeScorecard `json:"report"`
	Ensemble []EnsembleMemberView `json:"ensemble,omitempty"`
}

type DirectionScorecard struct {
	Name       string                          `json:"name"`
	Validation contracts.ClassificationMetrics `json:"validation"`
	Test       contracts.ClassificationMetrics `json:"test"`
}

type MagnitudeScorecard struct {
	Name       string                      `json:"name"`
	Validation contracts.RegressionMetrics `json:"validation"`
	Test       contracts.RegressionMetrics `json:"test"`
}

type EnsembleMemberView struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

func pipelineView(p *training.Pipeline) PipelineView {
	v := PipelineView{
		Ticker:        p.Ticker,
		SchemaVersion: p.Schema.Version,
		Features:      len(p.Schema.Names),
		Confidence:    p.Confidence,
		TrainedAt:     p.TrainedAt,
		Direction:     DirectionView{Best: p.Direction.Best.Name},
		Magnitude:     MagnitudeView{Best: p.Magnitude.Best.Name},
	}

	for _, r := range p.Direction.Report {
		v.Direction.Report = append(v.Direction.Report, DirectionScorecard{
			Name: r.Name, Validation: r.Validation, Test: r.Test,
		})
	}
	if p.Direction.Ensemble != nil {
		for _, m := range p.Direction.Ensemble.Members {
			v.Direction.Ensemble = append(v.Direction.Ensemble, EnsembleMemberView{
				Name: m.Result.Name, Weight: m.Weight,
			})
		}
	}

	for _, r := range p.Magnitude.Report {
		v.Magnitude.Report = append(v.Magnitude.Report, MagnitudeScorecard{
			Name: r.Name, Validation: r.Validation, Test: r.Test,
		})
	}
	if p.Magnitude.Ensemble != nil {
		for _, m := range p.Magnitude.Ensemble.Members {
			v.Magnitude.Ensemble = append(v.Magnitude.Ensemble, EnsembleMemberView{
				Name: m.Result.Name, Weight: m.Weight,
			})
		}
	}
	return v
}
