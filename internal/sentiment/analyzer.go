package sentiment

import (
	"fmt"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/models"
	"github.com/dkwon/alphadesk/pkg/logger"
)

// Label is a three-way sentiment class
type Label string

const (
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
	LabelPositive Label = "positive"
)

// Labels in class-index order
var classes = []Label{LabelNegative, LabelNeutral, LabelPositive}

const defaultMaxFeatures = 5000

// Analyzer scores free text into negative/neutral/positive using a
// TF-IDF vectorizer and one logistic head per class.
type Analyzer struct {
	Vectorizer *Vectorizer                  `json:"vectorizer"`
	Heads      []*models.LogisticRegression `json:"heads"`

	logger *logger.Logger
}

// NewAnalyzer creates an untrained analyzer
func NewAnalyzer(log *logger.Logger) *Analyzer {
	return &Analyzer{
		Vectorizer: NewVectorizer(defaultMaxFeatures),
		logger:     log,
	}
}

// SetLogger re-attaches a logger after decoding a stored analyzer
func (a *Analyzer) SetLogger(log *logger.Logger) { a.logger = log }

// Train fits the vectorizer and one-vs-rest logistic heads
func (a *Analyzer) Train(texts []string, labels []Label) error {
	if len(texts) == 0 || len(texts) != len(labels) {
		return fmt.Errorf("sentiment train: %d texts vs %d labels", len(texts), len(labels))
	}

	x, err := a.Vectorizer.FitTransform(texts)
	if err != nil {
		return err
	}

	classIdx := make(map[Label]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	a.Heads = make([]*models.LogisticRegression, len(classes))
	for c, class := range classes {
		y := make([]int, len(labels))
		for i, l := range labels {
			if _, ok := classIdx[l]; !ok {
				return fmt.Errorf("sentiment train: unknown label %q", l)
			}
			if l == class {
				y[i] = 1
			}
		}
		head := models.NewLogisticRegression()
		if err := head.Fit(x, y); err != nil {
			return fmt.Errorf("%w: sentiment head %s: %v", contracts.ErrModelFit, class, err)
		}
		a.Heads[c] = head
	}

	a.logger.WithFields(map[string]interface{}{
		"documents": len(texts),
		"vocab":     len(a.Vectorizer.Vocabulary),
	}).Info("Trained sentiment analyzer")
	return nil
}

// Predict labels each text with the class whose head scores highest
func (a *Analyzer) Predict(texts []string) ([]Label, error) {
	if len(a.Heads) != len(classes) {
		return nil, fmt.Errorf("sentiment analyzer not trained")
	}
	x, err := a.Vectorizer.Transform(texts)
	if err != nil {
		return nil, err
	}

	probs := make([][]float64, len(classes))
	for c, head := range a.Heads {
		p, err := head.PredictProba(x)
		if err != nil {
			return nil, err
		}
		probs[c] = p
	}

	out := make([]Label, len(texts))
	for i := range texts {
		best, bestP := 0, probs[0][i]
		for c := 1; c < len(classes); c++ {
			if probs[c][i] > bestP {
				best, bestP = c, probs[c][i]
			}
		}
		out[i] = classes[best]
	}
	return out, nil
}

// Summary aggregates per-text labels into headline counts and a net
// score in [-1, 1].
type Summary struct {
	Total    int     `json:"total"`
	Positive int     `json:"positive"`
	Neutral  int     `json:"neutral"`
	Negative int     `json:"negative"`
	Net      float64 `json:"net"`
}

// Summarize predicts every text and aggregates the labels
func (a *Analyzer) Summarize(texts []string) (*Summary, error) {
	labels, err := a.Predict(texts)
	if err != nil {
		return nil, err
	}
	s := &Summary{Total: len(labels)}
	for _, l := range labels {
		switch l {
		case LabelPositive:
			s.Positive++
		case LabelNegative:
			s.Negative++
		default:
			s.Neutral++
		}
	}
	if s.Total > 0 {
		s.Net = float64(s.Positive-s.Negative) / float64(s.Total)
	}
	return s, nil
}
