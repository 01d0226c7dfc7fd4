// Package linprog defines the linear-programming collaborator used by the
// allocation solver and provides a backend built on gonum's simplex.
//
// A Problem is given in general form:
//
//	minimize   cᵀx
//	s.t.       A_ub·x ≤ b_ub
//	           A_eq·x = b_eq
//	           lo ≤ x ≤ hi
//
// Bounds may be infinite. Solvers must be safe for concurrent use.
package linprog

import (
	"fmt"
	"math"
)

// Status classifies the outcome of a solve.
type Status string

const (
	StatusOptimal          Status = "optimal"
	StatusInfeasible       Status = "infeasible"
	StatusUnbounded        Status = "unbounded"
	StatusNumericalFailure Status = "numerical_failure"
	StatusInvalidInput     Status = "invalid_input"
)

// Bound is a closed interval for one variable. Use math.Inf for open ends.
type Bound struct {
	Lo, Hi float64
}

// NonNegative is the bound [0, +∞).
var NonNegative = Bound{Lo: 0, Hi: math.Inf(1)}

// Free is the bound (−∞, +∞).
var Free = Bound{Lo: math.Inf(-1), Hi: math.Inf(1)}

// Problem is an LP in general form. Rows of AUb and AEq must have len(C)
// columns; Bounds must have len(C) entries.
type Problem struct {
	C      []float64
	AUb    [][]float64
	BUb    []float64
	AEq    [][]float64
	BEq    []float64
	Bounds []Bound
}

// Result is produced fresh by every Solve call.
type Result struct {
	Success   bool
	X         []float64 // nil unless Success
	Objective float64   // cᵀx; NaN unless Success
	Status    Status
	Message   string
}

// Solver solves a Problem. Implementations must not retain or mutate the
// problem's slices and must be reentrant.
type Solver interface {
	Solve(p Problem) Result
}

// NumVars returns the number of decision variables.
func (p Problem) NumVars() int { return len(p.C) }

// Validate checks dimensions and finiteness. It does not check feasibility.
func (p Problem) Validate() error {
	n := len(p.C)
	if n == 0 {
		return fmt.Errorf("objective vector is empty")
	}
	for j, v := range p.C {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("objective[%d] must be finite, got %v", j, v)
		}
	}
	if len(p.AUb) != len(p.BUb) {
		return fmt.Errorf("inequality matrix has %d rows but rhs has %d entries", len(p.AUb), len(p.BUb))
	}
	if len(p.AEq) != len(p.BEq) {
		return fmt.Errorf("equality matrix has %d rows but rhs has %d entries", len(p.AEq), len(p.BEq))
	}
	if err := validateRows("inequality", p.AUb, p.BUb, n); err != nil {
		return err
	}
	if err := validateRows("equality", p.AEq, p.BEq, n); err != nil {
		return err
	}
	if len(p.AEq) > n {
		return fmt.Errorf("%d equality rows exceed %d variables", len(p.AEq), n)
	}
	if len(p.Bounds) != n {
		return fmt.Errorf("got %d bounds for %d variables", len(p.Bounds), n)
	}
	for j, b := range p.Bounds {
		if math.IsNaN(b.Lo) || math.IsNaN(b.Hi) {
			return fmt.Errorf("bound[%d] is NaN", j)
		}
		if math.IsInf(b.Lo, 1) || math.IsInf(b.Hi, -1) {
			return fmt.Errorf("bound[%d] = [%v, %v] is empty", j, b.Lo, b.Hi)
		}
	}
	return nil
}

func validateRows(kind string, rows [][]float64, rhs []float64, n int) error {
	for i, row := range rows {
		if len(row) != n {
			return fmt.Errorf("%s row %d has %d columns, want %d", kind, i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s row %d column %d must be finite, got %v", kind, i, j, v)
			}
		}
		if math.IsNaN(rhs[i]) || math.IsInf(rhs[i], 0) {
			return fmt.Errorf("%s rhs %d must be finite, got %v", kind, i, rhs[i])
		}
	}
	return nil
}

func failure(status Status, format string, args ...any) Result {
	return Result{
		Success:   false,
		Objective: math.NaN(),
		Status:    status,
		Message:   fmt.Sprintf(format, args...),
	}
}
