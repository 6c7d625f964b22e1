package trace

// TraceLevel controls the verbosity of realization tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelRealizations captures one record per realization.
	TraceLevelRealizations TraceLevel = "realizations"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:         true,
	TraceLevelRealizations: true,
	"":                     true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// RunTrace collects realization records during a run. Records are kept ordered
// by realization index regardless of completion order.
type RunTrace struct {
	Level        TraceLevel
	Realizations []RealizationRecord
}

// NewRunTrace creates a RunTrace ready for recording.
func NewRunTrace(level TraceLevel) *RunTrace {
	return &RunTrace{
		Level:        level,
		Realizations: make([]RealizationRecord, 0),
	}
}

// Enabled reports whether records are being kept.
func (rt *RunTrace) Enabled() bool {
	return rt != nil && rt.Level == TraceLevelRealizations
}

// Record stores a realization record in index order. Disabled traces drop it.
func (rt *RunTrace) Record(record RealizationRecord) {
	if !rt.Enabled() {
		return
	}
	pos := len(rt.Realizations)
	for pos > 0 && rt.Realizations[pos-1].Index > record.Index {
		pos--
	}
	rt.Realizations = append(rt.Realizations, RealizationRecord{})
	copy(rt.Realizations[pos+1:], rt.Realizations[pos:])
	rt.Realizations[pos] = record
}
