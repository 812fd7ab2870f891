package dataset

import "fmt"

// Targets holds the two supervised targets derived from an aligned
// close/next-close pair: the next-period direction label and the signed
// percentage move.
type Targets struct {
	// Direction is 1 when the next close is strictly above the current
	// close, 0 otherwise.
	Direction []int

	// Magnitude is (next - current) / current * 100, sign included.
	Magnitude []float64
}

// Len returns the number of labeled rows
func (t *Targets) Len() int {
	return len(t.Direction)
}

// BuildTargets derives direction and magnitude labels from the current
// and next-day closes of each retained row. Closes are traded prices and
// never zero, so the ratio needs no division guard.
func BuildTargets(closes, nextCloses []float64) (*Targets, error) {
	if len(closes) != len(nextCloses) {
		return nil, fmt.Errorf("misaligned targets: %d closes vs %d next closes",
			len(closes), len(nextCloses))
	}

	t := &Targets{
		Direction: make([]int, len(closes)),
		Magnitude: make([]float64, len(closes)),
	}
	for i := range closes {
		if nextCloses[i] > closes[i] {
			t.Direction[i] = 1
		}
		t.Magnitude[i] = (nextCloses[i] - closes[i]) / closes[i] * 100
	}
	return t, nil
}
