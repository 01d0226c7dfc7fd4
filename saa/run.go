package saa

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/pave-saa/saa/linprog"
	"github.com/inference-sim/pave-saa/saa/trace"
)

// DefaultScenarios is the size of the reference sample.
const DefaultScenarios = 1000

// RunConfig is everything one end-to-end run needs.
type RunConfig struct {
	Params    ProblemParameters
	Emissions EmissionModel
	Scenarios int // reference sample size; 0 selects DefaultScenarios
	Estimator EstimatorConfig
	Key       RunKey

	Backend    linprog.Solver   // nil selects linprog.NewSimplex()
	TraceLevel trace.TraceLevel // "" selects trace.TraceLevelNone
	Metrics    *Metrics         // optional
}

// RunResult is the read-only outcome of Run. When the best-estimate solve
// fails, Solve.Success is false, Diagnosis explains why, and the
// remaining fields are zero.
type RunResult struct {
	Key              RunKey
	ExpectedEmission Vec3
	Solve            SolveResult
	Diagnosis        []string

	Checks        []ConstraintCheck
	Shares        Vec3
	TotalCost     float64
	ReferenceRisk RiskSummary

	Bounds         *BoundEstimate
	ValidationRisk RiskSummary
	Trace          *trace.BatchTrace
}

// Run executes the full pipeline: reference sample, best-estimate solve,
// constraint checks and risk, then SAA bound estimation and out-of-sample
// risk of the candidate. An infeasible best-estimate problem is reported in
// the result, not as an error.
func Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("problem parameters: %w", err)
	}
	n := cfg.Scenarios
	if n == 0 {
		n = DefaultScenarios
	}
	gen, err := NewScenarioGenerator(cfg.Emissions)
	if err != nil {
		return nil, err
	}
	solver := NewAllocationSolver(NewConstraintSystem(cfg.Params), cfg.Backend).WithMetrics(cfg.Metrics)
	rng := NewPartitionedRNG(cfg.Key)

	reference, err := gen.Generate(rng.ForSubsystem(SubsystemReference), n)
	if err != nil {
		return nil, fmt.Errorf("reference sample: %w", err)
	}
	out := &RunResult{Key: cfg.Key, ExpectedEmission: reference.Mean()}
	logrus.Infof("reference sample: %d scenarios, mean emission %v", n, out.ExpectedEmission)

	out.Solve = solver.Solve(out.ExpectedEmission)
	if !out.Solve.Success {
		logrus.Warnf("best-estimate solve failed: %s", out.Solve.Message)
		out.Diagnosis = DiagnoseInfeasibility(cfg.Params, cfg.Backend)
		return out, nil
	}
	x := *out.Solve.Allocation
	out.Checks = CheckAllocation(cfg.Params, x, DefaultCheckTolerance)
	out.Shares = AllocationShares(cfg.Params, x)
	out.TotalCost = TotalCost(cfg.Params, x)
	if out.ReferenceRisk, err = SummarizeRisk(x, reference); err != nil {
		return nil, err
	}

	level := cfg.TraceLevel
	if level == "" {
		level = trace.TraceLevelNone
	}
	out.Trace = trace.NewBatchTrace(level)
	est, err := NewBoundEstimator(gen, solver, cfg.Estimator)
	if err != nil {
		return nil, fmt.Errorf("estimator config: %w", err)
	}
	est.WithTrace(out.Trace).WithMetrics(cfg.Metrics)
	if out.Bounds, err = est.Estimate(ctx, rng); err != nil {
		return nil, err
	}
	if out.ValidationRisk, err = SummarizeRisk(out.Bounds.Candidate, out.Bounds.ValidationBatch); err != nil {
		return nil, err
	}
	return out, nil
}
