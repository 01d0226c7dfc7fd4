package saa

import (
	"math"
	"time"

	"github.com/inference-sim/pave-saa/saa/linprog"
)

// Constraint row indices of the inequality system A_ub·x ≤ b_ub.
const (
	RowBudget = iota
	RowStructural
	RowDrainage
	RowPerviousDominance
	RowRCCap
	NumInequalityRows
)

// InequalityRowNames labels the rows of ConstraintSystem.AUb.
var InequalityRowNames = [NumInequalityRows]string{
	"budget",
	"structural_floor",
	"drainage_floor",
	"pervious_dominance",
	"rc_ratio_cap",
}

// rcCapShare caps RC at half of the other two materials' combined area.
const rcCapShare = 0.5

// ConstraintSystem is the fixed LP structure for one ProblemParameters:
// five inequality rows, one equality row and per-variable bounds. Built once
// by NewConstraintSystem and never modified; only the objective changes
// between solves.
type ConstraintSystem struct {
	params ProblemParameters
	aUb    [NumInequalityRows]Vec3
	bUb    [NumInequalityRows]float64
	aEq    Vec3
	bEq    float64
	bounds [NumMaterials]linprog.Bound
}

// NewConstraintSystem assembles the LP rows. Every "≥" constraint is stored
// sign-flipped as "≤".
func NewConstraintSystem(p ProblemParameters) *ConstraintSystem {
	q := p.TotalArea
	cs := &ConstraintSystem{params: p}

	cs.aUb[RowBudget] = p.UnitCost
	cs.bUb[RowBudget] = p.Budget

	cs.aUb[RowStructural] = Vec3{-p.Strength[Paver], -p.Strength[RC], -p.Strength[Pervious]}
	cs.bUb[RowStructural] = -p.StrengthFloor * q

	cs.aUb[RowDrainage] = Vec3{-p.Drainage[Paver], -p.Drainage[RC], -p.Drainage[Pervious]}
	cs.bUb[RowDrainage] = -p.DrainageFloor * q

	cs.aUb[RowPerviousDominance] = Vec3{0, 1, -1}
	cs.bUb[RowPerviousDominance] = 0

	cs.aUb[RowRCCap] = Vec3{-rcCapShare, 1, -rcCapShare}
	cs.bUb[RowRCCap] = 0

	cs.aEq = Vec3{1, 1, 1}
	cs.bEq = q

	lo, hi := p.PaverBounds()
	cs.bounds = [NumMaterials]linprog.Bound{
		Paver:    {Lo: lo, Hi: hi},
		RC:       linprog.NonNegative,
		Pervious: linprog.NonNegative,
	}
	return cs
}

// Params returns the parameters the system was built from.
func (cs *ConstraintSystem) Params() ProblemParameters { return cs.params }

// Inequality returns a copy of row i of A_ub and its right-hand side.
func (cs *ConstraintSystem) Inequality(i int) (Vec3, float64) {
	return cs.aUb[i], cs.bUb[i]
}

// Problem builds a fresh linprog.Problem for the given objective. The
// returned slices are newly allocated so backends can never alias the
// shared system.
func (cs *ConstraintSystem) Problem(objective Vec3) linprog.Problem {
	aUb := make([][]float64, NumInequalityRows)
	bUb := make([]float64, NumInequalityRows)
	for i := range cs.aUb {
		aUb[i] = cs.aUb[i].Slice()
		bUb[i] = cs.bUb[i]
	}
	bounds := make([]linprog.Bound, NumMaterials)
	copy(bounds, cs.bounds[:])
	return linprog.Problem{
		C:      objective.Slice(),
		AUb:    aUb,
		BUb:    bUb,
		AEq:    [][]float64{cs.aEq.Slice()},
		BEq:    []float64{cs.bEq},
		Bounds: bounds,
	}
}

// SolveResult is the outcome of one AllocationSolver call. Allocation is nil
// and Objective is NaN unless Success.
type SolveResult struct {
	Success    bool
	Allocation *Allocation
	Objective  float64
	Status     linprog.Status
	Message    string
}

// AllocationSolver minimizes expected emissions over the fixed constraint
// system. Safe for concurrent use when the underlying linprog.Solver is.
type AllocationSolver struct {
	system  *ConstraintSystem
	lp      linprog.Solver
	metrics *Metrics
}

// NewAllocationSolver binds a constraint system to an LP backend. A nil
// backend selects linprog.NewSimplex().
func NewAllocationSolver(system *ConstraintSystem, backend linprog.Solver) *AllocationSolver {
	if backend == nil {
		backend = linprog.NewSimplex()
	}
	return &AllocationSolver{system: system, lp: backend}
}

// WithMetrics returns a copy of the solver that records every solve in m.
func (s *AllocationSolver) WithMetrics(m *Metrics) *AllocationSolver {
	cp := *s
	cp.metrics = m
	return &cp
}

// System returns the solver's constraint system.
func (s *AllocationSolver) System() *ConstraintSystem { return s.system }

// clampEpsilon absorbs simplex round-off around zero-valued areas.
const clampEpsilon = 1e-9

// Solve minimizes expected·x. Infeasible, unbounded or numerically failed
// problems return Success=false with the backend's diagnostic; the inputs
// are never pre-checked for consistency here.
func (s *AllocationSolver) Solve(expected Vec3) SolveResult {
	start := time.Now()
	res := s.lp.Solve(s.system.Problem(expected))
	s.metrics.observeSolve(res.Status, time.Since(start))

	if !res.Success {
		return SolveResult{
			Success:   false,
			Objective: math.NaN(),
			Status:    res.Status,
			Message:   res.Message,
		}
	}
	var x Allocation
	for i := range x {
		v := res.X[i]
		if math.Abs(v) < clampEpsilon {
			v = 0
		}
		x[i] = v
	}
	return SolveResult{
		Success:    true,
		Allocation: &x,
		Objective:  expected.Dot(x),
		Status:     res.Status,
		Message:    res.Message,
	}
}
