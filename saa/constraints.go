package saa

import (
	"fmt"

	"github.com/inference-sim/pave-saa/saa/linprog"
)

// Relation is the comparison a constraint check applies to LHS and RHS.
type Relation string

const (
	RelLE Relation = "<="
	RelGE Relation = ">="
	RelEQ Relation = "="
)

// DefaultCheckTolerance absorbs simplex round-off when checking an allocation.
const DefaultCheckTolerance = 1e-6

// ConstraintCheck is one verified constraint of an allocation.
type ConstraintCheck struct {
	Name      string   `json:"name"`
	LHS       float64  `json:"lhs"`
	RHS       float64  `json:"rhs"`
	Relation  Relation `json:"relation"`
	Satisfied bool     `json:"satisfied"`
}

func newCheck(name string, lhs float64, rel Relation, rhs, tol float64) ConstraintCheck {
	var ok bool
	switch rel {
	case RelLE:
		ok = lhs <= rhs+tol
	case RelGE:
		ok = lhs >= rhs-tol
	default:
		ok = lhs >= rhs-tol && lhs <= rhs+tol
	}
	return ConstraintCheck{Name: name, LHS: lhs, RHS: rhs, Relation: rel, Satisfied: ok}
}

// CheckAllocation verifies alloc against every constraint of p, expressed in
// the units a site engineer reads: area in m², shares and strength/drainage
// as fractions of Q, cost in currency. Share and ratio checks are scaled by
// Q, so tol applies to the unscaled form.
func CheckAllocation(p ProblemParameters, alloc Allocation, tol float64) []ConstraintCheck {
	q := p.TotalArea
	lo, hi := p.PaverBounds()
	return []ConstraintCheck{
		newCheck("total_area", alloc.Sum(), RelEQ, q, tol),
		newCheck("paver_share_min", alloc[Paver], RelGE, lo, tol),
		newCheck("paver_share_max", alloc[Paver], RelLE, hi, tol),
		newCheck("structural_floor", p.Strength.Dot(alloc)/q, RelGE, p.StrengthFloor, tol/q),
		newCheck("drainage_floor", p.Drainage.Dot(alloc)/q, RelGE, p.DrainageFloor, tol/q),
		newCheck("pervious_dominance", alloc[Pervious], RelGE, alloc[RC], tol),
		newCheck("rc_ratio_cap", alloc[RC], RelLE, rcCapShare*(alloc[Paver]+alloc[Pervious]), tol),
		newCheck("budget", TotalCost(p, alloc), RelLE, p.Budget, tol*p.UnitCost.Sum()),
		newCheck("non_negative", minComponent(alloc), RelGE, 0, tol),
	}
}

// AllSatisfied reports whether every check passed.
func AllSatisfied(checks []ConstraintCheck) bool {
	for _, c := range checks {
		if !c.Satisfied {
			return false
		}
	}
	return true
}

// AllocationShares returns each material's area as a percentage of Q.
func AllocationShares(p ProblemParameters, alloc Allocation) Vec3 {
	var v Vec3
	for i := range alloc {
		v[i] = 100 * alloc[i] / p.TotalArea
	}
	return v
}

// TotalCost returns C·x.
func TotalCost(p ProblemParameters, alloc Allocation) float64 {
	return p.UnitCost.Dot(alloc)
}

func minComponent(v Vec3) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

// DiagnoseInfeasibility explains why the constraint system of p admits no
// allocation. Each constraint is relaxed in turn and the relaxed LP solved
// with backend (nil selects linprog.NewSimplex()); a constraint whose
// removal restores feasibility is reported with the attainable limit. If no
// single relaxation helps, generic hints are returned. Returns nil when the
// system is feasible.
func DiagnoseInfeasibility(p ProblemParameters, backend linprog.Solver) []string {
	if backend == nil {
		backend = linprog.NewSimplex()
	}
	cs := NewConstraintSystem(p)
	if res := backend.Solve(cs.Problem(p.UnitCost)); res.Success {
		return nil
	}

	var causes []string
	if err := p.ValidateStrict(); err != nil {
		causes = append(causes, fmt.Sprintf("parameter out of range: %v", err))
	}

	q := p.TotalArea
	if res := backend.Solve(relaxRow(cs.Problem(p.UnitCost), RowBudget)); res.Success {
		causes = append(causes, fmt.Sprintf(
			"budget %.0f is below the cheapest mix satisfying the other constraints (%.0f)", p.Budget, res.Objective))
	}
	if res := backend.Solve(relaxRow(cs.Problem(negate(p.Strength)), RowStructural)); res.Success {
		causes = append(causes, fmt.Sprintf(
			"structural floor %.3f exceeds the attainable strength ratio %.3f", p.StrengthFloor, -res.Objective/q))
	}
	if res := backend.Solve(relaxRow(cs.Problem(negate(p.Drainage)), RowDrainage)); res.Success {
		causes = append(causes, fmt.Sprintf(
			"drainage floor %.3f exceeds the attainable drainage ratio %.3f", p.DrainageFloor, -res.Objective/q))
	}
	for _, row := range []int{RowPerviousDominance, RowRCCap} {
		if res := backend.Solve(relaxRow(cs.Problem(p.UnitCost), row)); res.Success {
			causes = append(causes, fmt.Sprintf(
				"mix-ratio constraint %q conflicts with the paver share [%.0f%%, %.0f%%] and the floors",
				InequalityRowNames[row], 100*p.PaverRatioMin, 100*p.PaverRatioMax))
		}
	}

	if len(causes) == 0 {
		causes = []string{
			"constraints conflict with each other (e.g. paver share against the drainage floor)",
			"budget is too low to satisfy every constraint",
			"strength_floor or drainage_floor is set too high",
		}
	}
	return causes
}

// relaxRow drops inequality row i from prob.
func relaxRow(prob linprog.Problem, i int) linprog.Problem {
	prob.AUb = append(prob.AUb[:i:i], prob.AUb[i+1:]...)
	prob.BUb = append(prob.BUb[:i:i], prob.BUb[i+1:]...)
	return prob
}

func negate(v Vec3) Vec3 {
	return Vec3{-v[Paver], -v[RC], -v[Pervious]}
}
