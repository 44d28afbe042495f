package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents  int
	Counts       map[EventKind]int // event kind → number of records
	MessagesUp   int               // love tokens written child → parent
	MessagesDown int               // love tokens written parent → child
	Conversions  int               // haters that became lovers
	Spawned      int               // processes created after the root
	SpawnBatches int
	MaxBatch     int
	BusiestStep  int // dispatch that produced the most records
	BusiestCount int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		Counts: make(map[EventKind]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	perStep := make(map[int]int)
	for _, ev := range st.Events {
		summary.Counts[ev.Kind]++
		if ev.Step > 0 {
			perStep[ev.Step]++
		}
		switch ev.Kind {
		case EventSendParent:
			summary.MessagesUp++
		case EventSendChild:
			summary.MessagesDown++
		case EventReceiveParent, EventConvert:
			summary.Conversions++
		case EventSpawnChild:
			summary.Spawned++
		case EventSpawnBatch:
			summary.SpawnBatches++
			summary.MaxBatch = max(summary.MaxBatch, ev.Count)
		}
	}

	for step, n := range perStep {
		if n > summary.BusiestCount || (n == summary.BusiestCount && step < summary.BusiestStep) {
			summary.BusiestStep, summary.BusiestCount = step, n
		}
	}

	return summary
}
