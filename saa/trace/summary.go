package trace

import "math"

// TraceSummary aggregates statistics from a BatchTrace.
type TraceSummary struct {
	TotalBatches    int            `json:"total_batches"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	MinObjective    float64        `json:"min_objective"`
	MaxObjective    float64        `json:"max_objective"`
	MeanObjective   float64        `json:"mean_objective"`
	FailureMessages map[string]int `json:"failure_messages"` // solver message → number of batches
}

// Summarize computes aggregate statistics from a BatchTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(bt *BatchTrace) *TraceSummary {
	summary := &TraceSummary{
		FailureMessages: make(map[string]int),
	}
	if bt == nil {
		return summary
	}

	summary.TotalBatches = len(bt.Batches)
	total := 0.0
	minObj, maxObj := math.Inf(1), math.Inf(-1)
	for _, b := range bt.Batches {
		if !b.Success {
			summary.Failed++
			summary.FailureMessages[b.Message]++
			continue
		}
		summary.Succeeded++
		total += b.Objective
		minObj = math.Min(minObj, b.Objective)
		maxObj = math.Max(maxObj, b.Objective)
	}
	if summary.Succeeded > 0 {
		summary.MinObjective = minObj
		summary.MaxObjective = maxObj
		summary.MeanObjective = total / float64(summary.Succeeded)
	}
	return summary
}
