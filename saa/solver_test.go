package saa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/pave-saa/saa/internal/testutil"
	"github.com/inference-sim/pave-saa/saa/linprog"
)

func newReferenceSolver() *AllocationSolver {
	return NewAllocationSolver(NewConstraintSystem(DefaultProblemParameters()), nil)
}

func TestSolve_ReferenceModes_KnownOptimum(t *testing.T) {
	// GIVEN the reference site and the emission modes
	s := newReferenceSolver()

	// WHEN solved
	res := s.Solve(testutil.ReferenceModes)

	// THEN the unique vertex is returned
	require.True(t, res.Success, res.Message)
	assert.Equal(t, linprog.StatusOptimal, res.Status)
	testutil.InDeltaSlice(t, testutil.ReferenceOptimum[:], res.Allocation.Slice(), 1e-6)
	assert.InDelta(t, testutil.ReferenceObjective, res.Objective, 1e-4)
}

func TestSolve_SolutionIsFeasible(t *testing.T) {
	// GIVEN many random objectives from the emission model
	p := DefaultProblemParameters()
	s := NewAllocationSolver(NewConstraintSystem(p), nil)
	gen, err := NewScenarioGenerator(DefaultEmissionModel())
	require.NoError(t, err)
	batch, err := gen.Generate(NewPartitionedRNG(NewRunKey(3)).ForSubsystem(SubsystemReference), 200)
	require.NoError(t, err)

	for i, e := range batch {
		// WHEN each is solved
		res := s.Solve(e)
		require.True(t, res.Success, "scenario %d: %s", i, res.Message)

		// THEN every constraint holds and the area sums to Q
		x := *res.Allocation
		assert.InDelta(t, p.TotalArea, x.Sum(), 1e-6)
		for _, c := range CheckAllocation(p, x, DefaultCheckTolerance) {
			assert.True(t, c.Satisfied, "scenario %d: %s %v %s %v", i, c.Name, c.LHS, c.Relation, c.RHS)
		}
		assert.InDelta(t, e.Dot(x), res.Objective, 1e-9)
	}
}

func TestSolve_InfeasibleStructuralFloor(t *testing.T) {
	// GIVEN a structural floor above what any mix can reach
	p := DefaultProblemParameters()
	p.StrengthFloor = 1.5
	require.NoError(t, p.Validate(), "out-of-range floors are left to the solver")
	s := NewAllocationSolver(NewConstraintSystem(p), nil)

	// WHEN solved
	res := s.Solve(testutil.ReferenceModes)

	// THEN it fails without an allocation
	assert.False(t, res.Success)
	assert.Nil(t, res.Allocation)
	assert.True(t, math.IsNaN(res.Objective))
	assert.Equal(t, linprog.StatusInfeasible, res.Status)
	assert.NotEmpty(t, res.Message)
}

func TestSolve_CheapRC_RespectsRatioCaps(t *testing.T) {
	// GIVEN RC made by far the cleanest material
	s := newReferenceSolver()

	// WHEN solved
	res := s.Solve(Vec3{80, 1, 80})

	// THEN RC is limited by pervious dominance (x2 ≤ x3) and the RC cap
	require.True(t, res.Success, res.Message)
	x := *res.Allocation
	assert.LessOrEqual(t, x[RC], x[Pervious]+1e-6)
	assert.LessOrEqual(t, x[RC], 0.5*(x[Paver]+x[Pervious])+1e-6)
}

func TestConstraintSystem_ProblemIsFresh(t *testing.T) {
	// GIVEN one shared system
	cs := NewConstraintSystem(DefaultProblemParameters())

	// WHEN a caller mutates a built problem
	p1 := cs.Problem(Vec3{1, 2, 3})
	p1.AUb[RowBudget][0] = -999
	p1.Bounds[Paver].Lo = -1

	// THEN the next problem is unaffected
	p2 := cs.Problem(Vec3{1, 2, 3})
	row, rhs := cs.Inequality(RowBudget)
	assert.Equal(t, row.Slice(), p2.AUb[RowBudget])
	assert.Equal(t, DefaultProblemParameters().Budget, rhs)
	assert.InDelta(t, 101.08, p2.Bounds[Paver].Lo, 1e-9)
}

func TestConstraintSystem_RowSigns(t *testing.T) {
	p := DefaultProblemParameters()
	cs := NewConstraintSystem(p)

	row, rhs := cs.Inequality(RowStructural)
	assert.Equal(t, Vec3{-0.7, -1.0, -0.5}, row)
	assert.InDelta(t, -0.6*505.4, rhs, 1e-9)

	row, rhs = cs.Inequality(RowRCCap)
	assert.Equal(t, Vec3{-0.5, 1, -0.5}, row)
	assert.Equal(t, 0.0, rhs)
}

type stubLP struct {
	result linprog.Result
	calls  int
}

func (s *stubLP) Solve(linprog.Problem) linprog.Result {
	s.calls++
	return s.result
}

func TestSolve_ClampsRoundOff(t *testing.T) {
	// GIVEN a backend that reports tiny negative round-off
	stub := &stubLP{result: linprog.Result{
		Success: true, X: []float64{101.08, -1e-12, 404.32}, Status: linprog.StatusOptimal,
	}}
	s := NewAllocationSolver(NewConstraintSystem(DefaultProblemParameters()), stub)

	res := s.Solve(Vec3{1, 1, 1})

	require.True(t, res.Success)
	assert.Equal(t, 0.0, res.Allocation[RC])
	assert.InDelta(t, 505.4, res.Objective, 1e-9)
}

func TestSolve_PassesBackendMessageThrough(t *testing.T) {
	stub := &stubLP{result: linprog.Result{
		Success: false, Objective: math.NaN(), Status: linprog.StatusNumericalFailure, Message: "backend exploded",
	}}
	s := NewAllocationSolver(NewConstraintSystem(DefaultProblemParameters()), stub)

	res := s.Solve(Vec3{1, 1, 1})

	assert.False(t, res.Success)
	assert.Equal(t, "backend exploded", res.Message)
	assert.Equal(t, 1, stub.calls)
}
