package saa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/pave-saa/saa/trace"
)

func TestRun_ReferenceCase(t *testing.T) {
	// GIVEN the reference site with a reduced sampling plan
	cfg := RunConfig{
		Params:     DefaultProblemParameters(),
		Emissions:  DefaultEmissionModel(),
		Scenarios:  1000,
		Estimator:  smallEstimatorConfig(),
		Key:        NewRunKey(42),
		TraceLevel: trace.TraceLevelBatches,
	}

	// WHEN run end to end
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	// THEN the best estimate is feasible and every stage produced output
	require.True(t, res.Solve.Success, res.Solve.Message)
	assert.True(t, AllSatisfied(res.Checks))
	assert.InDelta(t, 100.0, res.Shares.Sum(), 1e-9)
	assert.Equal(t, 1000, res.ReferenceRisk.N)
	require.NotNil(t, res.Bounds)
	assert.Equal(t, 2000, res.ValidationRisk.N)
	assert.InDelta(t, res.Bounds.UpperBound, res.ValidationRisk.Mean, 1e-6)
	assert.Len(t, res.Trace.Batches, 8)
	assert.Empty(t, res.Diagnosis)

	// The reference mean is close to the analytic means, so the optimum
	// keeps the same binding structure as the mode solution.
	x := *res.Solve.Allocation
	lo, _ := cfg.Params.PaverBounds()
	assert.InDelta(t, lo, x[Paver], 1e-6)
}

func TestRun_InfeasibleReportsDiagnosisWithoutError(t *testing.T) {
	p := DefaultProblemParameters()
	p.StrengthFloor = 1.5

	res, err := Run(context.Background(), RunConfig{
		Params:    p,
		Emissions: DefaultEmissionModel(),
		Scenarios: 100,
		Estimator: smallEstimatorConfig(),
		Key:       NewRunKey(1),
	})

	require.NoError(t, err)
	assert.False(t, res.Solve.Success)
	assert.NotEmpty(t, res.Solve.Message)
	assert.NotEmpty(t, res.Diagnosis)
	assert.Nil(t, res.Bounds)
}

func TestRun_SameKeySameResult(t *testing.T) {
	cfg := RunConfig{
		Params:    DefaultProblemParameters(),
		Emissions: DefaultEmissionModel(),
		Scenarios: 300,
		Estimator: smallEstimatorConfig(),
		Key:       NewRunKey(77),
	}
	a, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	cfg.Estimator.Workers = 3
	b, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Solve, b.Solve)
	assert.Equal(t, a.ReferenceRisk, b.ReferenceRisk)
	assert.Equal(t, a.Bounds.LowerBound, b.Bounds.LowerBound)
	assert.Equal(t, a.Bounds.UpperBound, b.Bounds.UpperBound)
	assert.Equal(t, a.ValidationRisk, b.ValidationRisk)
}

func TestRun_InvalidParameters(t *testing.T) {
	p := DefaultProblemParameters()
	p.TotalArea = -1
	_, err := Run(context.Background(), RunConfig{Params: p, Emissions: DefaultEmissionModel(), Estimator: smallEstimatorConfig()})
	assert.Error(t, err)
}
