package trace

// TraceLevel controls the verbosity of batch tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelBatches captures every lower-bound batch outcome.
	TraceLevelBatches TraceLevel = "batches"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelBatches: true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// BatchTrace collects batch records in batch-index order.
// Not safe for concurrent use; the estimator records after joining its workers.
type BatchTrace struct {
	Level   TraceLevel
	Batches []BatchRecord
}

// NewBatchTrace creates a BatchTrace ready for recording.
func NewBatchTrace(level TraceLevel) *BatchTrace {
	return &BatchTrace{
		Level:   level,
		Batches: make([]BatchRecord, 0),
	}
}

// Enabled reports whether records should be kept. Safe on a nil trace.
func (bt *BatchTrace) Enabled() bool {
	return bt != nil && bt.Level == TraceLevelBatches
}

// Record appends a batch record when tracing is enabled.
func (bt *BatchTrace) Record(record BatchRecord) {
	if !bt.Enabled() {
		return
	}
	bt.Batches = append(bt.Batches, record)
}
