package sim

import (
	"maps"
	"slices"
	"sort"
)

// ProcessState is the immutable, externally consumed view of one process.
type ProcessState struct {
	PID        int   `json:"pid"`
	ParentPID  int   `json:"ppid"`
	Generation int   `json:"generation"`
	Kind       Kind  `json:"kind"`
	Children   []int `json:"children"`
	// Pending holds the tokens buffered on the edge to the parent.
	// Both ends of the edge resolve to this single copy.
	Pending []int `json:"pending,omitempty"`
}

// Snapshot is a deep copy of the whole process table at one point of the
// event log. Nothing in a Snapshot aliases the live Table.
type Snapshot struct {
	Processes map[int]ProcessState `json:"processes"`
}

// Snapshot captures a deep copy of the table.
func (t *Table) Snapshot() *Snapshot {
	snap := &Snapshot{Processes: make(map[int]ProcessState, len(t.procs))}
	for pid, p := range t.procs {
		st := ProcessState{
			PID:        p.PID,
			ParentPID:  p.ParentPID,
			Generation: p.Generation,
			Kind:       p.Kind,
			Children:   slices.Clone(p.Children),
		}
		if pipe := t.pipes[pid]; pipe != nil {
			st.Pending = pipe.Pending()
		}
		snap.Processes[pid] = st
	}
	return snap
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	cp := &Snapshot{Processes: make(map[int]ProcessState, len(s.Processes))}
	for pid, st := range s.Processes {
		st.Children = slices.Clone(st.Children)
		st.Pending = slices.Clone(st.Pending)
		cp.Processes[pid] = st
	}
	return cp
}

// Equal reports whether both snapshots hold the same process states.
func (s *Snapshot) Equal(o *Snapshot) bool {
	return maps.EqualFunc(s.Processes, o.Processes, func(a, b ProcessState) bool {
		return a.PID == b.PID && a.ParentPID == b.ParentPID && a.Generation == b.Generation &&
			a.Kind == b.Kind && slices.Equal(a.Children, b.Children) && slices.Equal(a.Pending, b.Pending)
	})
}

// Get returns the state of pid.
func (s *Snapshot) Get(pid int) (ProcessState, bool) {
	st, ok := s.Processes[pid]
	return st, ok
}

// Len returns the number of processes in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Processes)
}

// PIDs returns all pids in ascending order.
func (s *Snapshot) PIDs() []int {
	pids := make([]int, 0, len(s.Processes))
	for pid := range s.Processes {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// CountKind returns the number of processes of the given kind.
func (s *Snapshot) CountKind(kind Kind) int {
	n := 0
	for _, st := range s.Processes {
		if st.Kind == kind {
			n++
		}
	}
	return n
}

// MaxGeneration returns the deepest generation present (0 if empty).
func (s *Snapshot) MaxGeneration() int {
	g := 0
	for _, st := range s.Processes {
		g = max(g, st.Generation)
	}
	return g
}

// ByGeneration groups pids by generation; each level is in ascending pid order.
func (s *Snapshot) ByGeneration() [][]int {
	if len(s.Processes) == 0 {
		return nil
	}
	levels := make([][]int, s.MaxGeneration()+1)
	for _, pid := range s.PIDs() {
		g := s.Processes[pid].Generation
		levels[g] = append(levels[g], pid)
	}
	return levels
}
