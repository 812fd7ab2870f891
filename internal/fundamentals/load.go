package fundamentals

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dkwon/alphadesk/internal/contracts"
)

// LoadSamples reads a JSON array of training samples from disk
func LoadSamples(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fundamentals samples: %w", err)
	}

	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("parse fundamentals samples %s: %w", path, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s holds no samples", contracts.ErrDataUnavailable, path)
	}
	return samples, nil
}

// LoadSnapshot reads one two-period financial snapshot from disk
func LoadSnapshot(path string) (*contracts.FinancialSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read financial snapshot: %w", err)
	}

	var snap contracts.FinancialSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse financial snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// MetricNames returns the sorted union of metric names seen in either
// period of any sample, so the candidate list is stable across runs.
func MetricNames(samples []Sample) []string {
	seen := make(map[string]bool)
	for _, s := range samples {
		for m := range s.Latest {
			seen[m] = true
		}
		for m := range s.Prev {
			seen[m] = true
		}
	}

	names := make([]string, 0, len(seen))
	for m := range seen {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}
