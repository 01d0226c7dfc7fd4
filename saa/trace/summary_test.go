package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	bt := NewBatchTrace(TraceLevelBatches)

	// WHEN summarized
	summary := Summarize(bt)

	// THEN all counts are zero
	if summary.TotalBatches != 0 || summary.Succeeded != 0 || summary.Failed != 0 {
		t.Error("expected zero counts")
	}
	if summary.MinObjective != 0 || summary.MaxObjective != 0 || summary.MeanObjective != 0 {
		t.Error("expected zero objective statistics")
	}
	if len(summary.FailureMessages) != 0 {
		t.Error("expected empty failure messages")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalBatches != 0 {
		t.Errorf("expected 0 batches, got %d", summary.TotalBatches)
	}
	if summary.FailureMessages == nil {
		t.Error("expected non-nil failure map")
	}
}

func TestSummarize_MixedOutcomes_CorrectStatistics(t *testing.T) {
	// GIVEN two successes and two failures with the same message
	bt := NewBatchTrace(TraceLevelBatches)
	bt.Record(BatchRecord{Index: 0, Success: true, Objective: 100})
	bt.Record(BatchRecord{Index: 1, Success: false, Message: "The problem is infeasible."})
	bt.Record(BatchRecord{Index: 2, Success: true, Objective: 300})
	bt.Record(BatchRecord{Index: 3, Success: false, Message: "The problem is infeasible."})

	// WHEN summarized
	summary := Summarize(bt)

	// THEN counts and objective statistics cover successes only
	if summary.TotalBatches != 4 {
		t.Errorf("expected 4 batches, got %d", summary.TotalBatches)
	}
	if summary.Succeeded != 2 || summary.Failed != 2 {
		t.Errorf("expected 2/2 split, got %d/%d", summary.Succeeded, summary.Failed)
	}
	if summary.MinObjective != 100 || summary.MaxObjective != 300 {
		t.Errorf("expected min/max 100/300, got %v/%v", summary.MinObjective, summary.MaxObjective)
	}
	if summary.MeanObjective != 200 {
		t.Errorf("expected mean 200, got %v", summary.MeanObjective)
	}
	if summary.FailureMessages["The problem is infeasible."] != 2 {
		t.Errorf("expected 2 infeasible messages, got %v", summary.FailureMessages)
	}
}
