// Package trace provides per-batch decision-trace recording for SAA runs.
// This package has no dependencies on saa/; it stores pure data types.
package trace

// BatchRecord captures the outcome of one lower-bound batch solve.
type BatchRecord struct {
	Index            int        `json:"index"`
	ExpectedEmission [3]float64 `json:"expected_emission"` // column mean of the batch's scenarios
	Success          bool       `json:"success"`
	Objective        float64    `json:"objective"`  // meaningful only when Success
	Allocation       [3]float64 `json:"allocation"` // zero unless Success
	Message          string     `json:"message"`    // solver diagnostic
}
