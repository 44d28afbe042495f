package trace

import "testing"

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"none", true},
		{"events", true},
		{"", true},
		{"decisions", false},
		{"EVENTS", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.want {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestSimulationTrace_Record_LevelNone_Drops(t *testing.T) {
	// GIVEN a trace with level none
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelNone})

	// WHEN a record is appended
	st.Record(EventRecord{Kind: EventCreateRoot, PID: 1})

	// THEN nothing is stored
	if len(st.Events) != 0 {
		t.Errorf("expected 0 events, got %d", len(st.Events))
	}
}

func TestSimulationTrace_Record_NilTrace_IsSafe(t *testing.T) {
	var st *SimulationTrace
	st.Record(EventRecord{Kind: EventCreateRoot})
	if st.Enabled() {
		t.Error("nil trace must report disabled")
	}
	if got := st.ForPID(1); got != nil {
		t.Errorf("ForPID on nil trace: got %v, want nil", got)
	}
}

func TestSimulationTrace_ForPID_FiltersInOrder(t *testing.T) {
	// GIVEN records for two processes
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})
	st.Record(EventRecord{Index: 0, Kind: EventCreateRoot, PID: 1})
	st.Record(EventRecord{Index: 1, Kind: EventSpawnBatch, PID: 1, Count: 2})
	st.Record(EventRecord{Index: 2, Kind: EventSendParent, PID: 2, Peer: 1})
	st.Record(EventRecord{Index: 3, Kind: EventConvert, PID: 1})

	// WHEN filtered for pid 1
	got := st.ForPID(1)

	// THEN the three records of pid 1 are returned in log order
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, want := range []int{0, 1, 3} {
		if got[i].Index != want {
			t.Errorf("record %d: index %d, want %d", i, got[i].Index, want)
		}
	}
}
