// Package metrics computes the evaluation statistics reported after a
// simulation batch: ability estimation accuracy and the Barrada test
// overlap rate derived from the item exposure counts of one cap pass.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch reports paired sequences of different lengths.
var ErrLengthMismatch = errors.New("sequence lengths differ")

// RMSE returns the population root-mean-squared error between the paired
// true and estimated ability sequences.
func RMSE(actual, estimated []float64) (float64, error) {
	if len(actual) != len(estimated) {
		return 0, fmt.Errorf("%w: %d actual, %d estimated", ErrLengthMismatch, len(actual), len(estimated))
	}
	if len(actual) == 0 {
		return 0, errors.New("no abilities to compare")
	}
	return floats.Distance(actual, estimated, 2) / math.Sqrt(float64(len(actual))), nil
}

// OverlapRate returns the test overlap statistic
//
//	T = (bankSize/testLength)·Var(exposures) + testLength/bankSize
//
// where Var is the population variance of the exposure counts across the
// whole bank after a completed cap pass. Equal exposure of every item
// minimizes T at testLength/bankSize.
func OverlapRate(exposures []int, testLength int) (float64, error) {
	if len(exposures) == 0 {
		return 0, errors.New("no exposure counts")
	}
	if testLength <= 0 {
		return 0, fmt.Errorf("test length must be positive, got %d", testLength)
	}

	counts := make([]float64, len(exposures))
	for i, n := range exposures {
		counts[i] = float64(n)
	}

	bankSize := float64(len(exposures))
	return (bankSize/float64(testLength))*stat.PopVariance(counts, nil) + float64(testLength)/bankSize, nil
}
