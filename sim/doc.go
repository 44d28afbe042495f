// Package sim provides the simulation engine for lovehater: a tree of
// processes that starts as a mix of haters and lovers and converges to
// all-lover through love tokens passed over parent/child pipes.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - pipe.go, process.go: the Pipe and Process data model and the shared Table
//   - behavior.go: hater and lover behaviors, dispatched on Process.Kind
//   - simulator.go: the round-robin scheduler, termination and the run Result
//   - snapshot.go: deep copies of the table backing the replay timeline
//
// # Determinism
//
// Execution is single-threaded and turn-based: one behavior runs at a time
// and always runs to completion. Every random draw comes from a
// PartitionedRNG keyed by the run seed, so a seed and a RunConfig fully
// determine the log and the snapshots.
//
// # Sub-packages
//
//   - sim/trace/: structured twin of the text log
//   - sim/layout/: tree coordinates for a snapshot
//   - sim/replay/: cursor and timed playback over a Result
//   - sim/archive/: bbolt-backed store of finished runs
//   - sim/report/: markdown and HTML run reports
package sim
