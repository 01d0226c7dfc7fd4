package saa

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/pave-saa/saa/linprog"
)

func TestMetrics_RecordsSolvesBatchesAndBounds(t *testing.T) {
	// GIVEN an estimator wired to a metrics registry
	m := NewMetrics()
	gen, err := NewScenarioGenerator(DefaultEmissionModel())
	require.NoError(t, err)
	solver := NewAllocationSolver(NewConstraintSystem(DefaultProblemParameters()), nil).WithMetrics(m)
	est, err := NewBoundEstimator(gen, solver, smallEstimatorConfig())
	require.NoError(t, err)
	est.WithMetrics(m)

	// WHEN estimated
	got, err := est.Estimate(context.Background(), NewPartitionedRNG(NewRunKey(6)))
	require.NoError(t, err)

	// THEN every batch solve and the final bounds are visible
	assert.Equal(t, 8.0, testutil.ToFloat64(m.solves.WithLabelValues(string(linprog.StatusOptimal))))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.batches.WithLabelValues("succeeded")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.solveSeconds))
	assert.Equal(t, got.GapPercent, testutil.ToFloat64(m.gapPercent))
	assert.Equal(t, got.LowerBound, testutil.ToFloat64(m.lowerBound))
	assert.Equal(t, got.UpperBound, testutil.ToFloat64(m.upperBound))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.observeBatch(true)
	m.observeSolve(linprog.StatusOptimal, 0)
	m.observeEstimate(&BoundEstimate{})
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.observeBatch(false)
	path := filepath.Join(t.TempDir(), "pave.prom")

	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `pave_saa_batches_total{outcome="failed"} 1`), string(data))
}
