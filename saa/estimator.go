package saa

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/pave-saa/saa/trace"
)

// DefaultConvergenceThresholdPct is the gap (percent of UB) below which an
// estimate is labelled converged.
const DefaultConvergenceThresholdPct = 5.0

// ErrEstimationFailure is wrapped by *EstimationFailure.
var ErrEstimationFailure = errors.New("estimation failure")

// EstimationFailure reports that every lower-bound batch failed to solve, so
// no candidate exists. Message is the last solver diagnostic, unmodified.
type EstimationFailure struct {
	Batches int
	Message string
}

func (e *EstimationFailure) Error() string {
	return fmt.Sprintf("estimation failure: all %d lower-bound batches failed to solve: %s", e.Batches, e.Message)
}

// Unwrap lets errors.Is match ErrEstimationFailure.
func (e *EstimationFailure) Unwrap() error { return ErrEstimationFailure }

// EstimatorConfig sizes the SAA bound estimation.
type EstimatorConfig struct {
	LowerBatchSize          int     // N, scenarios per lower-bound batch
	Batches                 int     // M, number of lower-bound batches
	ValidationSize          int     // N', scenarios in the out-of-sample batch
	Workers                 int     // parallel batch solves; ≤ 1 runs serially
	ConvergenceThresholdPct float64 // 0 selects DefaultConvergenceThresholdPct
}

// DefaultEstimatorConfig returns N=100, M=30, N'=10000, serial.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		LowerBatchSize:          100,
		Batches:                 30,
		ValidationSize:          10000,
		Workers:                 1,
		ConvergenceThresholdPct: DefaultConvergenceThresholdPct,
	}
}

// Validate checks the sizes.
func (c EstimatorConfig) Validate() error {
	if c.LowerBatchSize < 1 {
		return fmt.Errorf("lower_batch_size must be >= 1, got %d", c.LowerBatchSize)
	}
	if c.Batches < 1 {
		return fmt.Errorf("batches must be >= 1, got %d", c.Batches)
	}
	if c.ValidationSize < 1 {
		return fmt.Errorf("validation_size must be >= 1, got %d", c.ValidationSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.ConvergenceThresholdPct < 0 || math.IsNaN(c.ConvergenceThresholdPct) {
		return fmt.Errorf("convergence_threshold_pct must be >= 0, got %v", c.ConvergenceThresholdPct)
	}
	return nil
}

func (c EstimatorConfig) threshold() float64 {
	if c.ConvergenceThresholdPct == 0 {
		return DefaultConvergenceThresholdPct
	}
	return c.ConvergenceThresholdPct
}

// BoundEstimate is the statistical certificate for a candidate allocation.
// Gap is not guaranteed non-negative in small samples; it is reported as is.
type BoundEstimate struct {
	LowerBound     float64    // mean of the successful batch objectives
	Candidate      Allocation // allocation of the smallest batch objective
	CandidateBatch int        // index of the batch that produced Candidate
	UpperBound     float64    // mean realized emission of Candidate on the validation batch
	Gap            float64    // UpperBound − LowerBound
	GapPercent     float64    // 100·Gap/UpperBound
	Converged      bool       // GapPercent < threshold

	SuccessfulBatches int
	FailedBatches     int
	BatchObjectives   []float64 // successful objectives in batch order

	LowerStdErr float64
	UpperStdErr float64
	LowerCI     Interval
	UpperCI     Interval

	ValidationBatch ScenarioBatch
}

// ConvergenceLabel returns "converged" or "not converged". Advisory only.
func (e *BoundEstimate) ConvergenceLabel() string {
	if e.Converged {
		return "converged"
	}
	return "not converged"
}

// BoundEstimator runs the SAA lower/upper bound procedure.
type BoundEstimator struct {
	generator *ScenarioGenerator
	solver    *AllocationSolver
	cfg       EstimatorConfig
	trace     *trace.BatchTrace
	metrics   *Metrics
}

// NewBoundEstimator validates cfg and binds the collaborators.
func NewBoundEstimator(gen *ScenarioGenerator, solver *AllocationSolver, cfg EstimatorConfig) (*BoundEstimator, error) {
	if gen == nil || solver == nil {
		return nil, errors.New("bound estimator needs a generator and a solver")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &BoundEstimator{generator: gen, solver: solver, cfg: cfg}, nil
}

// WithTrace records every batch outcome into bt.
func (e *BoundEstimator) WithTrace(bt *trace.BatchTrace) *BoundEstimator {
	e.trace = bt
	return e
}

// WithMetrics records batch outcomes and the final bounds into m.
func (e *BoundEstimator) WithMetrics(m *Metrics) *BoundEstimator {
	e.metrics = m
	return e
}

// batchOutcome is one lower-bound batch: its sampled mean and the solve.
type batchOutcome struct {
	expected Vec3
	result   SolveResult
}

// Estimate runs M lower-bound batches, picks the candidate, and validates it
// on an independent batch. Batch i always draws from stream
// SubsystemBatch(i), so the result does not depend on Workers.
func (e *BoundEstimator) Estimate(ctx context.Context, rng *PartitionedRNG) (*BoundEstimate, error) {
	m := e.cfg.Batches

	// Streams are derived here, on one goroutine; PartitionedRNG is not
	// thread-safe.
	streams := make([]*rand.Rand, m)
	for i := range streams {
		streams[i] = rng.ForSubsystem(SubsystemBatch(i))
	}
	validationRNG := rng.ForSubsystem(SubsystemValidation)

	outcomes, err := e.runBatches(ctx, streams)
	if err != nil {
		return nil, err
	}

	est := &BoundEstimate{CandidateBatch: -1}
	var lastMessage string
	bestObjective := math.Inf(1)
	for i := 0; i < m; i++ {
		o := outcomes[i]
		e.recordBatch(i, o)
		if !o.result.Success {
			est.FailedBatches++
			lastMessage = o.result.Message
			logrus.Warnf("batch %d: LP solve failed, excluded from bounds: %s", i, o.result.Message)
			continue
		}
		est.SuccessfulBatches++
		est.BatchObjectives = append(est.BatchObjectives, o.result.Objective)
		// Strict < keeps the first batch on ties.
		if o.result.Objective < bestObjective {
			bestObjective = o.result.Objective
			est.CandidateBatch = i
			est.Candidate = *o.result.Allocation
		}
	}
	if est.SuccessfulBatches == 0 {
		return nil, &EstimationFailure{Batches: m, Message: lastMessage}
	}

	est.LowerBound, est.LowerStdErr, est.LowerCI = meanConfidence(est.BatchObjectives, DefaultConfidenceLevel)

	validation, err := e.generator.Generate(validationRNG, e.cfg.ValidationSize)
	if err != nil {
		return nil, fmt.Errorf("validation batch: %w", err)
	}
	est.ValidationBatch = validation
	realized := RealizedEmissions(est.Candidate, validation)
	est.UpperBound, est.UpperStdErr, est.UpperCI = meanConfidence(realized, DefaultConfidenceLevel)

	est.Gap = est.UpperBound - est.LowerBound
	est.GapPercent = 100 * est.Gap / est.UpperBound
	est.Converged = est.GapPercent < e.cfg.threshold()

	logrus.Infof("SAA bounds: LB=%.2f UB=%.2f gap=%.2f (%.3f%%, %s) from %d/%d batches",
		est.LowerBound, est.UpperBound, est.Gap, est.GapPercent, est.ConvergenceLabel(), est.SuccessfulBatches, m)
	e.metrics.observeEstimate(est)
	return est, nil
}

// runBatches generates and solves every batch, at most Workers at a time.
// Outcomes are stored by batch index; nothing is aggregated until all
// workers have joined.
func (e *BoundEstimator) runBatches(ctx context.Context, streams []*rand.Rand) ([]batchOutcome, error) {
	outcomes := make([]batchOutcome, len(streams))
	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range streams {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batch, err := e.generator.Generate(streams[i], e.cfg.LowerBatchSize)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			mean := batch.Mean()
			outcomes[i] = batchOutcome{expected: mean, result: e.solver.Solve(mean)}
			logrus.Debugf("batch %d: mean=%v success=%v objective=%.4f",
				i, mean, outcomes[i].result.Success, outcomes[i].result.Objective)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (e *BoundEstimator) recordBatch(i int, o batchOutcome) {
	e.metrics.observeBatch(o.result.Success)
	if !e.trace.Enabled() {
		return
	}
	rec := trace.BatchRecord{
		Index:            i,
		ExpectedEmission: o.expected,
		Success:          o.result.Success,
		Message:          o.result.Message,
	}
	if o.result.Success {
		rec.Objective = o.result.Objective
		rec.Allocation = *o.result.Allocation
	}
	e.trace.Record(rec)
}
