// Package testutil provides shared test infrastructure for the lovehater
// engine. It consolidates the structural assertions used across sim/ and
// its sub-packages.
package testutil

import (
	"testing"

	"github.com/inference-sim/lovehater/sim"
)

// AssertTreeInvariants checks one snapshot:
//   - exactly one root (parent pid 0)
//   - every non-root process has a parent in the snapshot, is listed in the
//     parent's children, and has generation = parent generation + 1
//   - every listed child exists and points back to its parent
func AssertTreeInvariants(t *testing.T, snap *sim.Snapshot) {
	t.Helper()
	roots := 0
	for pid, st := range snap.Processes {
		if pid != st.PID {
			t.Errorf("snapshot key %d holds pid %d", pid, st.PID)
		}
		if st.ParentPID == 0 {
			roots++
			if st.Generation != 0 {
				t.Errorf("root %d has generation %d, want 0", pid, st.Generation)
			}
			continue
		}
		parent, ok := snap.Processes[st.ParentPID]
		if !ok {
			t.Errorf("pid %d: parent %d missing", pid, st.ParentPID)
			continue
		}
		if st.Generation != parent.Generation+1 {
			t.Errorf("pid %d: generation %d, parent %d has %d", pid, st.Generation, parent.PID, parent.Generation)
		}
		if !containsInt(parent.Children, pid) {
			t.Errorf("pid %d not listed in children of parent %d: %v", pid, parent.PID, parent.Children)
		}
	}
	if len(snap.Processes) > 0 && roots != 1 {
		t.Errorf("expected exactly 1 root, got %d", roots)
	}
	for pid, st := range snap.Processes {
		for _, c := range st.Children {
			child, ok := snap.Processes[c]
			if !ok {
				t.Errorf("pid %d lists missing child %d", pid, c)
				continue
			}
			if child.ParentPID != pid {
				t.Errorf("child %d of %d points at parent %d", c, pid, child.ParentPID)
			}
		}
	}
}

// AssertTimeline checks the run-level invariants of a result:
//   - len(Snapshots) == len(Log)+1
//   - every snapshot satisfies AssertTreeInvariants
//   - processes never disappear and lovers never revert to haters
func AssertTimeline(t *testing.T, res *sim.Result) {
	t.Helper()
	if len(res.Snapshots) != len(res.Log)+1 {
		t.Fatalf("snapshots=%d, log=%d: want snapshots == log+1", len(res.Snapshots), len(res.Log))
	}
	var prev *sim.Snapshot
	for i, snap := range res.Snapshots {
		AssertTreeInvariants(t, snap)
		if prev != nil {
			for pid, old := range prev.Processes {
				cur, ok := snap.Processes[pid]
				if !ok {
					t.Errorf("snapshot %d: pid %d disappeared", i, pid)
					continue
				}
				if old.Kind == sim.KindLover && cur.Kind != sim.KindLover {
					t.Errorf("snapshot %d: pid %d reverted from lover to %s", i, pid, cur.Kind)
				}
			}
		}
		prev = snap
	}
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
