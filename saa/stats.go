package saa

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

type IntOrFloat64 interface {
	int | int64 | float64
}

// CalculatePercentile returns the p-th percentile (0 ≤ p ≤ 100) of data,
// which MUST already be sorted ascending. Values between order statistics
// are linearly interpolated at rank p/100·(n−1). Returns NaN for empty data.
func CalculatePercentile[T IntOrFloat64](data []T, p float64) float64 {
	n := len(data)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return float64(data[0])
	}
	if p >= 100 {
		return float64(data[n-1])
	}

	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if upperIdx >= n {
		upperIdx = n - 1
	}
	lowerVal := float64(data[lowerIdx])
	if lowerIdx == upperIdx {
		return lowerVal
	}
	upperVal := float64(data[upperIdx])
	return lowerVal + (upperVal-lowerVal)*(rank-float64(lowerIdx))
}

// Interval is a closed interval [Lo, Hi].
type Interval struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// DefaultConfidenceLevel is used for bound confidence intervals.
const DefaultConfidenceLevel = 0.95

// meanConfidence returns the mean of x, its standard error, and a two-sided
// Student-t confidence interval at the given level. Fewer than two
// observations give a zero standard error and a point interval.
func meanConfidence(x []float64, level float64) (mean, stdErr float64, ci Interval) {
	if len(x) == 0 {
		return math.NaN(), math.NaN(), Interval{Lo: math.NaN(), Hi: math.NaN()}
	}
	mean = stat.Mean(x, nil)
	if len(x) < 2 {
		return mean, 0, Interval{Lo: mean, Hi: mean}
	}
	n := float64(len(x))
	stdErr = stat.StdErr(stat.StdDev(x, nil), n)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}.Quantile(1 - (1-level)/2)
	return mean, stdErr, Interval{Lo: mean - t*stdErr, Hi: mean + t*stdErr}
}
