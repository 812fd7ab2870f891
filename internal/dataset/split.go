package dataset

import "fmt"

// Partition is one temporal slice of the supervised dataset
type Partition struct {
	X   [][]float64
	Dir []int
	Mag []float64
}

// Len returns the number of rows in the partition
func (p Partition) Len() int {
	return len(p.X)
}

// Dataset is the train/validation/test split of one ticker's feature
// matrix. Partitions are contiguous index ranges of the original row
// order; no shuffling ever happens.
type Dataset struct {
	Train Partition
	Val   Partition
	Test  Partition

	// Boundary indices into the original matrix
	TrainEnd int
	ValEnd   int
}

// Split partitions rows at floor(trainFrac*n) and floor(valFrac*n).
// Fractions are cumulative (0.6/0.8 yields 60/20/20). Any empty
// partition is an error: downstream metrics are undefined on zero rows.
func Split(x [][]float64, targets *Targets, trainFrac, valFrac float64) (*Dataset, error) {
	n := len(x)
	if targets.Len() != n {
		return nil, fmt.Errorf("misaligned split input: %d rows vs %d targets", n, targets.Len())
	}
	if trainFrac <= 0 || valFrac <= trainFrac || valFrac >= 1 {
		return nil, fmt.Errorf("invalid split fractions %.2f/%.2f", trainFrac, valFrac)
	}

	trainEnd := int(float64(n) * trainFrac)
	valEnd := int(float64(n) * valFrac)
	if trainEnd == 0 || valEnd == trainEnd || valEnd == n {
		return nil, fmt.Errorf("split of %d rows leaves an empty partition (%d/%d/%d)",
			n, trainEnd, valEnd-trainEnd, n-valEnd)
	}

	slice := func(lo, hi int) Partition {
		return Partition{
			X:   x[lo:hi],
			Dir: targets.Direction[lo:hi],
			Mag: targets.Magnitude[lo:hi],
		}
	}

	return &Dataset{
		Train:    slice(0, trainEnd),
		Val:      slice(trainEnd, valEnd),
		Test:     slice(valEnd, n),
		TrainEnd: trainEnd,
		ValEnd:   valEnd,
	}, nil
}
