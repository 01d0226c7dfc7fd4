package linprog

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// DefaultTolerance is the reduced-cost tolerance passed to lp.Simplex.
const DefaultTolerance = 1e-10

// Simplex solves problems with gonum's dense simplex (lp.Simplex).
//
// Bounds are folded into standard form before the solve:
//   - finite lower bound: x = lo + y, y ≥ 0
//   - only a finite upper bound: x = hi − y, y ≥ 0
//   - free: x = y⁺ − y⁻
//   - both bounds finite: an extra row y + s = hi − lo
//
// Every inequality row gets its own slack column, so the assembled matrix
// has full row rank whenever the equality rows are independent.
type Simplex struct {
	Tol float64
}

// NewSimplex returns a Simplex backend with DefaultTolerance.
func NewSimplex() *Simplex {
	return &Simplex{Tol: DefaultTolerance}
}

// term maps one standard-form column back to an original variable.
type term struct {
	col  int
	sign float64
}

// standardForm is the assembled equality-form LP plus the mapping back to x.
type standardForm struct {
	c       []float64
	rows    [][]float64
	rhs     []float64
	offset  []float64 // x_j = offset_j + Σ sign·y
	terms   [][]term
	numCols int
}

// Solve implements Solver.
func (s *Simplex) Solve(p Problem) (res Result) {
	if err := p.Validate(); err != nil {
		return failure(StatusInvalidInput, "invalid problem: %v", err)
	}
	for j, b := range p.Bounds {
		if b.Lo > b.Hi {
			return failure(StatusInfeasible, "variable %d has empty bounds [%g, %g]", j, b.Lo, b.Hi)
		}
	}

	sf := buildStandardForm(p)
	if r, done := sf.pruneDegenerate(); done {
		return r
	}

	tol := s.Tol
	if tol <= 0 {
		tol = DefaultTolerance
	}

	y := make([]float64, sf.numCols)
	if len(sf.rows) > 0 {
		if len(sf.rows) > sf.numCols {
			return failure(StatusNumericalFailure, "standard form has %d rows but only %d columns", len(sf.rows), sf.numCols)
		}
		defer func() {
			if r := recover(); r != nil {
				res = failure(StatusNumericalFailure, "simplex panicked: %v", r)
			}
		}()
		a := mat.NewDense(len(sf.rows), sf.numCols, nil)
		for i, row := range sf.rows {
			a.SetRow(i, row)
		}
		_, optY, err := lp.Simplex(sf.c, a, sf.rhs, tol, nil)
		if err != nil {
			return simplexFailure(err)
		}
		copy(y, optY)
	}

	x := sf.toOriginal(y)
	obj := 0.0
	for j, cj := range p.C {
		obj += cj * x[j]
	}
	return Result{
		Success:   true,
		X:         x,
		Objective: obj,
		Status:    StatusOptimal,
		Message:   "Optimization terminated successfully.",
	}
}

func buildStandardForm(p Problem) *standardForm {
	n := p.NumVars()
	sf := &standardForm{
		offset: make([]float64, n),
		terms:  make([][]term, n),
	}

	// Variable columns.
	var bounded []int
	for j, b := range p.Bounds {
		loFinite := !math.IsInf(b.Lo, -1)
		hiFinite := !math.IsInf(b.Hi, 1)
		switch {
		case loFinite:
			sf.offset[j] = b.Lo
			sf.terms[j] = []term{{col: sf.numCols, sign: 1}}
			sf.numCols++
			if hiFinite {
				bounded = append(bounded, j)
			}
		case hiFinite:
			sf.offset[j] = b.Hi
			sf.terms[j] = []term{{col: sf.numCols, sign: -1}}
			sf.numCols++
		default:
			sf.terms[j] = []term{{col: sf.numCols, sign: 1}, {col: sf.numCols + 1, sign: -1}}
			sf.numCols += 2
		}
	}
	varCols := sf.numCols
	numSlacks := len(p.AUb) + len(bounded)
	sf.numCols += numSlacks

	sf.c = make([]float64, sf.numCols)
	for j, cj := range p.C {
		for _, t := range sf.terms[j] {
			sf.c[t.col] = cj * t.sign
		}
	}

	slack := varCols
	for i, row := range p.AUb {
		r, rhs := sf.substitute(row, p.BUb[i])
		r[slack] = 1
		slack++
		sf.rows = append(sf.rows, r)
		sf.rhs = append(sf.rhs, rhs)
	}
	for _, j := range bounded {
		r := make([]float64, sf.numCols)
		r[sf.terms[j][0].col] = 1
		r[slack] = 1
		slack++
		sf.rows = append(sf.rows, r)
		sf.rhs = append(sf.rhs, p.Bounds[j].Hi-p.Bounds[j].Lo)
	}
	for i, row := range p.AEq {
		r, rhs := sf.substitute(row, p.BEq[i])
		sf.rows = append(sf.rows, r)
		sf.rhs = append(sf.rhs, rhs)
	}
	return sf
}

// substitute rewrites Σ a_j x_j (≤|=) b in terms of the standard-form columns.
func (sf *standardForm) substitute(row []float64, b float64) ([]float64, float64) {
	r := make([]float64, sf.numCols)
	rhs := b
	for j, a := range row {
		if a == 0 {
			continue
		}
		rhs -= a * sf.offset[j]
		for _, t := range sf.terms[j] {
			r[t.col] += a * t.sign
		}
	}
	return r, rhs
}

// pruneDegenerate removes all-zero rows and columns, which lp.Simplex rejects.
// It returns done=true with a final result when the pruning alone decides
// the problem.
func (sf *standardForm) pruneDegenerate() (Result, bool) {
	// Zero rows can only come from equality rows (inequality rows carry a slack).
	keptRows := sf.rows[:0]
	keptRHS := sf.rhs[:0]
	for i, row := range sf.rows {
		if isZero(row) {
			if math.Abs(sf.rhs[i]) > 1e-9 {
				return failure(StatusInfeasible, "equality row reduces to 0 = %g", sf.rhs[i]), true
			}
			continue
		}
		keptRows = append(keptRows, row)
		keptRHS = append(keptRHS, sf.rhs[i])
	}
	sf.rows, sf.rhs = keptRows, keptRHS

	// A column absent from every row is pinned at 0 unless its cost is
	// negative, in which case the LP is unbounded.
	remap := make([]int, sf.numCols)
	kept := 0
	for col := 0; col < sf.numCols; col++ {
		used := false
		for _, row := range sf.rows {
			if row[col] != 0 {
				used = true
				break
			}
		}
		if !used {
			if sf.c[col] < 0 {
				return failure(StatusUnbounded, "objective decreases without bound along an unconstrained variable"), true
			}
			remap[col] = -1
			continue
		}
		remap[col] = kept
		kept++
	}
	if kept == sf.numCols {
		return Result{}, false
	}

	newC := make([]float64, kept)
	for col, to := range remap {
		if to >= 0 {
			newC[to] = sf.c[col]
		}
	}
	for i, row := range sf.rows {
		nr := make([]float64, kept)
		for col, to := range remap {
			if to >= 0 {
				nr[to] = row[col]
			}
		}
		sf.rows[i] = nr
	}
	for j, ts := range sf.terms {
		var nts []term
		for _, t := range ts {
			if remap[t.col] >= 0 {
				nts = append(nts, term{col: remap[t.col], sign: t.sign})
			}
		}
		sf.terms[j] = nts
	}
	sf.c = newC
	sf.numCols = kept
	return Result{}, false
}

func (sf *standardForm) toOriginal(y []float64) []float64 {
	x := make([]float64, len(sf.offset))
	for j := range x {
		x[j] = sf.offset[j]
		for _, t := range sf.terms[j] {
			x[j] += t.sign * y[t.col]
		}
	}
	return x
}

func simplexFailure(err error) Result {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return failure(StatusInfeasible, "The problem is infeasible. (%v)", err)
	case errors.Is(err, lp.ErrUnbounded):
		return failure(StatusUnbounded, "The problem is unbounded. (%v)", err)
	default:
		return failure(StatusNumericalFailure, "Simplex failed: %v", err)
	}
}

func isZero(row []float64) bool {
	for _, v := range row {
		if v != 0 {
			return false
		}
	}
	return true
}
