package saa

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyBatch is returned when a risk summary is requested over zero scenarios.
var ErrEmptyBatch = errors.New("empty scenario batch")

// RiskSummary describes the empirical distribution of realized total
// emissions (kgCO2e) of one allocation. P5 is the best-case tail, P95 the
// worst-case tail.
type RiskSummary struct {
	Mean   float64 `json:"mean"`
	P5     float64 `json:"p5"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	N      int     `json:"n"`
}

// RealizedEmissions returns alloc·scenario for every scenario, in batch order.
func RealizedEmissions(alloc Allocation, batch ScenarioBatch) []float64 {
	out := make([]float64, len(batch))
	for i, s := range batch {
		out[i] = alloc.Dot(s)
	}
	return out
}

// SummarizeRisk computes the risk summary of alloc over batch. Neither input
// is modified. StdDev is the sample standard deviation and is 0 for a single
// scenario.
func SummarizeRisk(alloc Allocation, batch ScenarioBatch) (RiskSummary, error) {
	if len(batch) == 0 {
		return RiskSummary{}, fmt.Errorf("summarize risk: %w", ErrEmptyBatch)
	}
	realized := RealizedEmissions(alloc, batch)
	sorted := make([]float64, len(realized))
	copy(sorted, realized)
	sort.Float64s(sorted)

	rs := RiskSummary{
		Mean: stat.Mean(realized, nil),
		P5:   CalculatePercentile(sorted, 5),
		P95:  CalculatePercentile(sorted, 95),
		Min:  floats.Min(sorted),
		Max:  floats.Max(sorted),
		N:    len(realized),
	}
	if len(realized) > 1 {
		rs.StdDev = stat.StdDev(realized, nil)
	}
	return rs, nil
}
