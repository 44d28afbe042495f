// Implements the ActiveSet, the round-robin ring of process ids still
// eligible for execution.

package sim

import (
	"fmt"
	"slices"
	"strings"
)

// ActiveSet is a FIFO ring of pids. The scheduler peeks the front, then
// either drops it or rotates it to the back.
type ActiveSet struct {
	queue   []int        // FIFO ring of pids
	members map[int]bool // pids currently in queue
}

// NewActiveSet returns a ring holding pids in order.
func NewActiveSet(pids ...int) *ActiveSet {
	as := &ActiveSet{members: make(map[int]bool)}
	for _, pid := range pids {
		as.Append(pid)
	}
	return as
}

func (as *ActiveSet) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, pid := range as.queue {
		sb.WriteString(fmt.Sprint(pid))
		if i < len(as.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of pids in the ring.
func (as *ActiveSet) Len() int {
	return len(as.queue)
}

// Contains reports whether pid is in the ring.
func (as *ActiveSet) Contains(pid int) bool {
	return as.members[pid]
}

// Peek returns the pid at the front without removing it.
// Returns false if the ring is empty.
func (as *ActiveSet) Peek() (int, bool) {
	if len(as.queue) == 0 {
		return 0, false
	}
	return as.queue[0], true
}

// Append adds pid to the back. Returns false if it was already present.
func (as *ActiveSet) Append(pid int) bool {
	if as.members[pid] {
		return false
	}
	as.queue = append(as.queue, pid)
	as.members[pid] = true
	return true
}

// PopFront removes and returns the front pid.
func (as *ActiveSet) PopFront() (int, bool) {
	if len(as.queue) == 0 {
		return 0, false
	}
	pid := as.queue[0]
	as.queue = as.queue[1:]
	delete(as.members, pid)
	return pid, true
}

// Rotate moves the front pid to the back.
func (as *ActiveSet) Rotate() {
	if len(as.queue) < 2 {
		return
	}
	pid := as.queue[0]
	as.queue = append(as.queue[1:], pid)
}

// Items returns a copy of the ring in order.
func (as *ActiveSet) Items() []int {
	return slices.Clone(as.queue)
}
