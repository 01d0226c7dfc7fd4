package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/inference-sim/pave-saa/saa"
	"github.com/inference-sim/pave-saa/saa/trace"
)

// AllocationReport is one allocation in report form.
type AllocationReport struct {
	AreaM2    map[string]float64    `json:"area_m2"`
	SharePct  map[string]float64    `json:"share_pct"`
	TotalCost float64               `json:"total_cost"`
	Checks    []saa.ConstraintCheck `json:"checks"`
}

func newAllocationReport(p saa.ProblemParameters, x saa.Allocation) *AllocationReport {
	shares := saa.AllocationShares(p, x)
	r := &AllocationReport{
		AreaM2:    make(map[string]float64, saa.NumMaterials),
		SharePct:  make(map[string]float64, saa.NumMaterials),
		TotalCost: saa.TotalCost(p, x),
		Checks:    saa.CheckAllocation(p, x, saa.DefaultCheckTolerance),
	}
	for _, m := range saa.Materials {
		r.AreaM2[m.String()] = x[m]
		r.SharePct[m.String()] = shares[m]
	}
	return r
}

// BoundsReport is the SAA certificate in report form.
type BoundsReport struct {
	LowerBound        float64            `json:"lower_bound"`
	LowerCI           saa.Interval       `json:"lower_ci95"`
	UpperBound        float64            `json:"upper_bound"`
	UpperCI           saa.Interval       `json:"upper_ci95"`
	Gap               float64            `json:"gap"`
	GapPercent        float64            `json:"gap_pct"`
	Convergence       string             `json:"convergence"`
	SuccessfulBatches int                `json:"successful_batches"`
	FailedBatches     int                `json:"failed_batches"`
	CandidateBatch    int                `json:"candidate_batch"`
	Candidate         map[string]float64 `json:"candidate_m2"`
	ValidationRisk    saa.RiskSummary    `json:"validation_risk"`
}

// RunReport is the JSON and text output of the run command.
type RunReport struct {
	RunID            string              `json:"run_id"`
	Seed             int64               `json:"seed"`
	GeneratedAt      time.Time           `json:"generated_at"`
	ExpectedEmission map[string]float64  `json:"expected_emission"`
	Success          bool                `json:"success"`
	Message          string              `json:"message"`
	Diagnosis        []string            `json:"diagnosis,omitempty"`
	Objective        *float64            `json:"objective_kgco2e,omitempty"`
	Allocation       *AllocationReport   `json:"allocation,omitempty"`
	ReferenceRisk    *saa.RiskSummary    `json:"reference_risk,omitempty"`
	Bounds           *BoundsReport       `json:"bounds,omitempty"`
	Trace            *trace.TraceSummary `json:"trace_summary,omitempty"`
	Batches          []trace.BatchRecord `json:"batches,omitempty"`
}

// NewRunReport flattens a RunResult for output.
func NewRunReport(p saa.ProblemParameters, res *saa.RunResult) *RunReport {
	r := &RunReport{
		RunID:            uuid.NewString(),
		Seed:             int64(res.Key),
		GeneratedAt:      time.Now().UTC(),
		ExpectedEmission: byMaterial(res.ExpectedEmission),
		Success:          res.Solve.Success,
		Message:          res.Solve.Message,
		Diagnosis:        res.Diagnosis,
	}
	if !res.Solve.Success {
		return r
	}
	obj := res.Solve.Objective
	r.Objective = &obj
	r.Allocation = newAllocationReport(p, *res.Solve.Allocation)
	risk := res.ReferenceRisk
	r.ReferenceRisk = &risk
	if b := res.Bounds; b != nil {
		r.Bounds = &BoundsReport{
			LowerBound:        b.LowerBound,
			LowerCI:           b.LowerCI,
			UpperBound:        b.UpperBound,
			UpperCI:           b.UpperCI,
			Gap:               b.Gap,
			GapPercent:        b.GapPercent,
			Convergence:       b.ConvergenceLabel(),
			SuccessfulBatches: b.SuccessfulBatches,
			FailedBatches:     b.FailedBatches,
			CandidateBatch:    b.CandidateBatch,
			Candidate:         byMaterial(b.Candidate),
			ValidationRisk:    res.ValidationRisk,
		}
	}
	if res.Trace.Enabled() {
		r.Trace = trace.Summarize(res.Trace)
		r.Batches = res.Trace.Batches
	}
	return r
}

// WriteJSON writes the report as indented JSON.
func (r *RunReport) WriteJSON(w io.Writer) error {
	return writeJSON(w, r)
}

// Print writes the human-readable report.
func (r *RunReport) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Expected Emission (reference sample) ===")
	printMaterials(w, r.ExpectedEmission, "kgCO2e/m²")
	if !r.Success {
		printFailure(w, r.Message, r.Diagnosis)
		return
	}
	fmt.Fprintln(w, "=== Best-Estimate Allocation ===")
	printAllocation(w, r.Allocation)
	fmt.Fprintf(w, "Expected Emission    : %.2f kgCO2e\n", *r.Objective)
	printChecks(w, r.Allocation.Checks)
	fmt.Fprintln(w, "=== Risk (reference sample) ===")
	printRisk(w, *r.ReferenceRisk)

	if b := r.Bounds; b != nil {
		fmt.Fprintln(w, "=== SAA Bounds ===")
		fmt.Fprintf(w, "Lower Bound          : %.2f kgCO2e  (95%% CI %.2f - %.2f)\n", b.LowerBound, b.LowerCI.Lo, b.LowerCI.Hi)
		fmt.Fprintf(w, "Upper Bound          : %.2f kgCO2e  (95%% CI %.2f - %.2f)\n", b.UpperBound, b.UpperCI.Lo, b.UpperCI.Hi)
		fmt.Fprintf(w, "Gap                  : %.2f kgCO2e (%.3f%%)\n", b.Gap, b.GapPercent)
		fmt.Fprintf(w, "Convergence          : %s\n", b.Convergence)
		fmt.Fprintf(w, "Batches              : %d succeeded, %d failed\n", b.SuccessfulBatches, b.FailedBatches)
		fmt.Fprintf(w, "Candidate (batch %d) : ", b.CandidateBatch)
		for i, m := range saa.Materials {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "%s=%.2f", m, b.Candidate[m.String()])
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Risk (validation sample) ===")
		printRisk(w, b.ValidationRisk)
	}
	if r.Trace != nil {
		fmt.Fprintln(w, "=== Batch Trace ===")
		fmt.Fprintf(w, "Batches              : %d (%d failed)\n", r.Trace.TotalBatches, r.Trace.Failed)
		if r.Trace.Succeeded > 0 {
			fmt.Fprintf(w, "Objective Range      : %.2f - %.2f (mean %.2f)\n",
				r.Trace.MinObjective, r.Trace.MaxObjective, r.Trace.MeanObjective)
		}
	}
}

// SolveReport is the output of the solve command.
type SolveReport struct {
	Emission   map[string]float64 `json:"emission"`
	Success    bool               `json:"success"`
	Status     string             `json:"status"`
	Message    string             `json:"message"`
	Diagnosis  []string           `json:"diagnosis,omitempty"`
	Objective  *float64           `json:"objective_kgco2e,omitempty"`
	Allocation *AllocationReport  `json:"allocation,omitempty"`
}

// NewSolveReport solves the allocation LP once for the given coefficients.
func NewSolveReport(p saa.ProblemParameters, expected saa.Vec3) *SolveReport {
	solver := saa.NewAllocationSolver(saa.NewConstraintSystem(p), nil)
	res := solver.Solve(expected)
	r := &SolveReport{
		Emission: byMaterial(expected),
		Success:  res.Success,
		Status:   string(res.Status),
		Message:  res.Message,
	}
	if !res.Success {
		r.Diagnosis = saa.DiagnoseInfeasibility(p, nil)
		return r
	}
	obj := res.Objective
	r.Objective = &obj
	r.Allocation = newAllocationReport(p, *res.Allocation)
	return r
}

// WriteJSON writes the report as indented JSON.
func (r *SolveReport) WriteJSON(w io.Writer) error {
	return writeJSON(w, r)
}

// Print writes the human-readable report.
func (r *SolveReport) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Emission Coefficients ===")
	printMaterials(w, r.Emission, "kgCO2e/m²")
	if !r.Success {
		printFailure(w, r.Message, r.Diagnosis)
		return
	}
	fmt.Fprintln(w, "=== Allocation ===")
	printAllocation(w, r.Allocation)
	fmt.Fprintf(w, "Emission             : %.2f kgCO2e\n", *r.Objective)
	printChecks(w, r.Allocation.Checks)
}

func byMaterial(v saa.Vec3) map[string]float64 {
	out := make(map[string]float64, saa.NumMaterials)
	for _, m := range saa.Materials {
		out[m.String()] = v[m]
	}
	return out
}

func printMaterials(w io.Writer, v map[string]float64, unit string) {
	for _, m := range saa.Materials {
		fmt.Fprintf(w, "%-20s : %.2f %s\n", m.Label(), v[m.String()], unit)
	}
}

func printAllocation(w io.Writer, a *AllocationReport) {
	for _, m := range saa.Materials {
		fmt.Fprintf(w, "%-20s : %8.2f m² (%5.1f%%)\n", m.Label(), a.AreaM2[m.String()], a.SharePct[m.String()])
	}
	fmt.Fprintf(w, "Total Cost           : %.0f\n", a.TotalCost)
}

func printChecks(w io.Writer, checks []saa.ConstraintCheck) {
	fmt.Fprintln(w, "=== Constraint Checks ===")
	for _, c := range checks {
		mark := "ok"
		if !c.Satisfied {
			mark = "VIOLATED"
		}
		fmt.Fprintf(w, "%-20s : %.3f %s %.3f  %s\n", c.Name, c.LHS, c.Relation, c.RHS, mark)
	}
}

func printRisk(w io.Writer, r saa.RiskSummary) {
	fmt.Fprintf(w, "Scenarios            : %d\n", r.N)
	fmt.Fprintf(w, "Mean                 : %.2f kgCO2e\n", r.Mean)
	fmt.Fprintf(w, "P5 (best case)       : %.2f kgCO2e\n", r.P5)
	fmt.Fprintf(w, "P95 (worst case)     : %.2f kgCO2e\n", r.P95)
	fmt.Fprintf(w, "Range                : %.2f - %.2f kgCO2e\n", r.Min, r.Max)
	fmt.Fprintf(w, "Std Dev              : %.2f kgCO2e\n", r.StdDev)
}

func printFailure(w io.Writer, message string, causes []string) {
	fmt.Fprintln(w, "=== Solve Failed ===")
	fmt.Fprintf(w, "Message              : %s\n", message)
	printDiagnosis(w, causes)
}

func printDiagnosis(w io.Writer, causes []string) {
	fmt.Fprintln(w, "Possible causes:")
	for i, c := range causes {
		fmt.Fprintf(w, "  %d. %s\n", i+1, c)
	}
	fmt.Fprintln(w, "Adjust the parameters and run again.")
}

// writeJSON encodes v as indented JSON. Every float in a report is finite
// (failed solves omit their NaN objective).
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
