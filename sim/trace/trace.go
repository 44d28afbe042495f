package trace

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures one record per log line.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects event records during a run.
type SimulationTrace struct {
	Config TraceConfig
	Events []EventRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config: config,
		Events: make([]EventRecord, 0),
	}
}

// Enabled reports whether records should be collected.
// Safe for a nil trace.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelEvents
}

// Record appends an event record. No-op when tracing is disabled.
func (st *SimulationTrace) Record(record EventRecord) {
	if !st.Enabled() {
		return
	}
	st.Events = append(st.Events, record)
}

// ForPID returns the records whose PID is pid, in log order.
func (st *SimulationTrace) ForPID(pid int) []EventRecord {
	if st == nil {
		return nil
	}
	var out []EventRecord
	for _, ev := range st.Events {
		if ev.PID == pid {
			out = append(out, ev)
		}
	}
	return out
}
