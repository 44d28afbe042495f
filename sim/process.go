// Defines the Process record and the shared process Table.
// The Table owns every process and every pipe; pipes are keyed by the
// child pid of their edge, so a parent's child pipe and the child's parent
// pipe always resolve to the same slot.

package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

// Kind is the behavioral type of a process.
type Kind string

const (
	// KindLover is the convergent, terminal type.
	KindLover Kind = "lover"
	// KindHater is the convertible type. A hater becomes a lover at most once.
	KindHater Kind = "hater"
)

// validKinds maps accepted kind strings.
var validKinds = map[Kind]bool{
	KindLover: true,
	KindHater: true,
}

// IsValidKind returns true if the given string names a process kind.
func IsValidKind(kind string) bool {
	return validKinds[Kind(kind)]
}

// DrawKind performs the weighted coin flip used for every new process:
// lover with probability p, hater otherwise.
func DrawKind(rng *rand.Rand, p float64) Kind {
	if rng.Float64() < p {
		return KindLover
	}
	return KindHater
}

// Process is a node in the process tree.
type Process struct {
	PID        int   // unique, assigned in increasing order
	ParentPID  int   // 0 for the root
	Generation int   // root = 0, child = parent + 1
	Kind       Kind  // mutates hater -> lover at most once
	Children   []int // child pids in spawn order
}

func (p *Process) String() string {
	return fmt.Sprintf("Process{pid=%d ppid=%d gen=%d kind=%s children=%v}",
		p.PID, p.ParentPID, p.Generation, p.Kind, p.Children)
}

// IsRoot reports whether the process has no parent.
func (p *Process) IsRoot() bool {
	return p.ParentPID == 0
}

// Table is the single mutable resource of a run: every process record
// and every pipe. Records are never deleted.
type Table struct {
	procs  map[int]*Process
	pipes  map[int]*Pipe // child pid -> pipe on the edge to its parent
	maxPID int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		procs: make(map[int]*Process),
		pipes: make(map[int]*Pipe),
	}
}

// CreateRoot adds the root process with the given pid and kind.
// Panics if the table already has processes.
func (t *Table) CreateRoot(pid int, kind Kind) *Process {
	if len(t.procs) != 0 {
		panic("CreateRoot: table already has processes")
	}
	if pid <= 0 {
		panic(fmt.Sprintf("CreateRoot: pid must be > 0, got %d", pid))
	}
	root := &Process{PID: pid, Generation: 0, Kind: kind}
	t.procs[pid] = root
	t.maxPID = pid
	return root
}

// Spawn creates a child of parent with pid max(existing pids)+1, registers
// the pipe for the new edge, and appends the pid to parent.Children.
func (t *Table) Spawn(parent *Process, kind Kind) *Process {
	pid := t.maxPID + 1
	child := &Process{
		PID:        pid,
		ParentPID:  parent.PID,
		Generation: parent.Generation + 1,
		Kind:       kind,
	}
	t.procs[pid] = child
	t.pipes[pid] = NewPipe(parent.PID, pid)
	parent.Children = append(parent.Children, pid)
	t.maxPID = pid
	return child
}

// Get returns the process with the given pid, or nil.
func (t *Table) Get(pid int) *Process {
	return t.procs[pid]
}

// Len returns the number of processes.
func (t *Table) Len() int {
	return len(t.procs)
}

// MaxPID returns the largest pid assigned so far (0 for an empty table).
func (t *Table) MaxPID() int {
	return t.maxPID
}

// ParentPipe returns the pipe shared with p's parent, or nil for the root.
func (t *Table) ParentPipe(p *Process) *Pipe {
	if p.IsRoot() {
		return nil
	}
	return t.pipes[p.PID]
}

// ChildPipe returns the pipe parent owns for child, or nil if child is not
// one of parent's children.
func (t *Table) ChildPipe(parent *Process, child int) *Pipe {
	pipe := t.pipes[child]
	if pipe == nil || pipe.Owner != parent.PID {
		return nil
	}
	return pipe
}

// PIDs returns all pids in ascending order.
func (t *Table) PIDs() []int {
	pids := make([]int, 0, len(t.procs))
	for pid := range t.procs {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// CountKind returns the number of processes of the given kind.
func (t *Table) CountKind(kind Kind) int {
	n := 0
	for _, p := range t.procs {
		if p.Kind == kind {
			n++
		}
	}
	return n
}
