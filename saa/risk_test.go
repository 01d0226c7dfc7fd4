package saa

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeRisk_KnownValues(t *testing.T) {
	// GIVEN x = (1, 0, 0) so realized emission is the paver coefficient
	alloc := Allocation{1, 0, 0}
	batch := ScenarioBatch{{5, 0, 0}, {1, 0, 0}, {3, 0, 0}, {2, 0, 0}, {4, 0, 0}}

	// WHEN summarized
	rs, err := SummarizeRisk(alloc, batch)
	require.NoError(t, err)

	// THEN order statistics use linear interpolation at p/100·(n−1)
	assert.Equal(t, 5, rs.N)
	assert.InDelta(t, 3.0, rs.Mean, 1e-12)
	assert.InDelta(t, 1.2, rs.P5, 1e-12)  // rank 0.2 between 1 and 2
	assert.InDelta(t, 4.8, rs.P95, 1e-12) // rank 3.8 between 4 and 5
	assert.Equal(t, 1.0, rs.Min)
	assert.Equal(t, 5.0, rs.Max)
	assert.InDelta(t, 1.5811388300841898, rs.StdDev, 1e-12)
}

func TestSummarizeRisk_IdempotentAndNonMutating(t *testing.T) {
	// GIVEN a generated batch
	gen, err := NewScenarioGenerator(DefaultEmissionModel())
	require.NoError(t, err)
	batch, err := gen.Generate(NewPartitionedRNG(NewRunKey(3)).ForSubsystem(SubsystemValidation), 500)
	require.NoError(t, err)
	before := append(ScenarioBatch(nil), batch...)
	alloc := Allocation{101.08, 60.648, 343.672}

	// WHEN summarized twice
	a, err := SummarizeRisk(alloc, batch)
	require.NoError(t, err)
	b, err := SummarizeRisk(alloc, batch)
	require.NoError(t, err)

	// THEN both summaries match and the batch is untouched
	assert.Equal(t, a, b)
	assert.Equal(t, before, batch)
	assert.LessOrEqual(t, a.Min, a.P5)
	assert.LessOrEqual(t, a.P5, a.Mean)
	assert.LessOrEqual(t, a.Mean, a.P95)
	assert.LessOrEqual(t, a.P95, a.Max)
}

func TestSummarizeRisk_EmptyBatch(t *testing.T) {
	_, err := SummarizeRisk(Allocation{1, 1, 1}, nil)
	assert.True(t, errors.Is(err, ErrEmptyBatch))
}

func TestSummarizeRisk_SingleScenario(t *testing.T) {
	rs, err := SummarizeRisk(Allocation{1, 2, 3}, ScenarioBatch{{1, 1, 1}})
	require.NoError(t, err)
	assert.Equal(t, RiskSummary{Mean: 6, P5: 6, P95: 6, Min: 6, Max: 6, StdDev: 0, N: 1}, rs)
}

func TestRealizedEmissions_Order(t *testing.T) {
	got := RealizedEmissions(Allocation{1, 10, 100}, ScenarioBatch{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	assert.Equal(t, []float64{1, 10, 100}, got)
}
