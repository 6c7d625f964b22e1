// Package testutil provides shared test helpers for the sim packages: float
// comparisons and distribution checks that do not depend on sim itself.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertDistribution checks that probs is a probability distribution: no
// negative or NaN entry and a sum within tol of one.
func AssertDistribution(t *testing.T, name string, probs []float64, tol float64) {
	t.Helper()
	sum := 0.0
	for i, p := range probs {
		if p < 0 || math.IsNaN(p) {
			t.Errorf("%s[%d] = %v, want a non-negative probability", name, i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > tol {
		t.Errorf("%s sums to %v, want 1 (tol %v)", name, sum, tol)
	}
}

// AssertSliceNear compares two float slices element-wise with absolute tolerance.
func AssertSliceNear(t *testing.T, name string, want, got []float64, absTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: got %d values, want %d", name, len(got), len(want))
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > absTol {
			t.Errorf("%s[%d]: got %v, want %v", name, i, got[i], want[i])
		}
	}
}
