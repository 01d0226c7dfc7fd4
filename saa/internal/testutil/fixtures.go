// Package testutil provides shared fixtures and assertion helpers for the
// saa test packages.
package testutil

import "testing"

// ReferenceOptimum is the unique LP optimum of the reference site at the
// emission modes (75.6, 90.0, 27.8): paver at its 20% floor, RC at the
// smallest value meeting the structural floor, pervious taking the rest.
var ReferenceOptimum = [3]float64{101.08, 60.648, 343.672}

// ReferenceObjective is 75.6·101.08 + 90·60.648 + 27.8·343.672.
const ReferenceObjective = 22654.0496

// ReferenceModes is the mode vector of the default emission model.
var ReferenceModes = [3]float64{75.6, 90.0, 27.8}

// InDeltaSlice fails t when any element of got differs from want by more
// than delta.
func InDeltaSlice(t *testing.T, want, got []float64, delta float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length mismatch: want %d, got %d", len(want), len(got))
	}
	for i := range want {
		if d := want[i] - got[i]; d > delta || d < -delta {
			t.Errorf("element %d: want %v, got %v (delta %v)", i, want[i], got[i], delta)
		}
	}
}

// WithinRelative fails t when got is not within rel·|want| of want.
func WithinRelative(t *testing.T, want, got, rel float64, msg string) {
	t.Helper()
	tol := rel * want
	if tol < 0 {
		tol = -tol
	}
	if d := got - want; d > tol || d < -tol {
		t.Errorf("%s: got %v, want %v ± %v", msg, got, want, tol)
	}
}
