package sentiment

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/dkwon/alphadesk/pkg/logger"
)

// LoadCorpus reads a labeled training corpus from a two-column CSV of
// label,text rows. Labels must be negative, neutral or positive; a
// single header row is tolerated and skipped.
func LoadCorpus(path string) ([]string, []Label, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sentiment corpus: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	var texts []string
	var labels []Label
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("sentiment corpus %s: %w", path, err)
		}
		line++

		label := Label(rec[0])
		if !knownLabel(label) {
			if line == 1 {
				continue // header row
			}
			return nil, nil, fmt.Errorf("sentiment corpus %s line %d: unknown label %q", path, line, rec[0])
		}
		texts = append(texts, rec[1])
		labels = append(labels, label)
	}

	if len(texts) == 0 {
		return nil, nil, fmt.Errorf("sentiment corpus %s: no labeled rows", path)
	}
	return texts, labels, nil
}

// TrainFromCorpus loads a labeled CSV corpus and fits a fresh analyzer
// on it. This is the startup path behind SENTIMENT_ENABLED.
func TrainFromCorpus(log *logger.Logger, path string) (*Analyzer, error) {
	texts, labels, err := LoadCorpus(path)
	if err != nil {
		return nil, err
	}

	a := NewAnalyzer(log)
	if err := a.Train(texts, labels); err != nil {
		return nil, err
	}
	return a, nil
}

func knownLabel(l Label) bool {
	for _, c := range classes {
		if l == c {
			return true
		}
	}
	return false
}
