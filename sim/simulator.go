// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/lovehater/sim/trace"
)

// Outcome discriminates why a run ended.
type Outcome string

const (
	// OutcomeConverged: the active set emptied; every process is a lover.
	OutcomeConverged Outcome = "converged"
	// OutcomeStepLimit: the dispatch cap was reached first.
	OutcomeStepLimit Outcome = "step-limit"
	// OutcomeGenerationLimit: a process at the configured max generation was reached.
	OutcomeGenerationLimit Outcome = "generation-limit"
)

// Result is the replayable output of one run.
// len(Snapshots) == len(Log)+1: Snapshots[0] is the initial state and
// Snapshots[i+1] is the state after Log[i].
type Result struct {
	Config        RunConfig   `json:"config"`
	Log           []string    `json:"log"`
	Snapshots     []*Snapshot `json:"snapshots"`
	MaxGeneration int         `json:"max_generation"`
	Outcome       Outcome     `json:"outcome"`
	Steps         int         `json:"steps"`

	Trace *trace.SimulationTrace `json:"-"`
}

// Final returns the last snapshot.
func (r *Result) Final() *Snapshot {
	if len(r.Snapshots) == 0 {
		return nil
	}
	return r.Snapshots[len(r.Snapshots)-1]
}

// Converged reports whether the run ended because the active set emptied.
func (r *Result) Converged() bool {
	return r.Outcome == OutcomeConverged
}

// Simulator is the round-robin scheduler: it holds the process table, the
// active set, and the append-only log and snapshot timeline.
// Execution is strictly sequential; a step always runs to completion.
type Simulator struct {
	Config RunConfig
	RNG    *PartitionedRNG
	Table  *Table
	Active *ActiveSet
	Trace  *trace.SimulationTrace

	Log           []string
	Snapshots     []*Snapshot
	MaxGeneration int
	StepCount     int
	Outcome       Outcome

	started bool
	done    bool
}

// NewSimulator creates a simulator for cfg. cfg is normalized first; a nil
// trace disables event recording.
func NewSimulator(cfg RunConfig, tr *trace.SimulationTrace) *Simulator {
	for _, note := range cfg.Normalize() {
		logrus.Warnf("run config: %s", note)
	}
	return &Simulator{
		Config: cfg,
		RNG:    NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		Table:  NewTable(),
		Active: NewActiveSet(),
		Trace:  tr,
	}
}

// Run drives the simulation to a terminal state and returns the result.
func (sim *Simulator) Run() *Result {
	sim.Start()
	for sim.Step() {
	}
	return sim.Result()
}

// Start creates the root and records the initial state. Idempotent.
func (sim *Simulator) Start() {
	if sim.started {
		return
	}
	sim.started = true

	kind := DrawKind(sim.RNG.ForSubsystem(SubsystemKind), sim.Config.Probability)
	root := sim.Table.CreateRoot(RootPID, kind)
	sim.Active.Append(root.PID)
	logrus.Infof("Starting simulation: probability=%.2f, maxGenerations=%d, maxSteps=%d, seed=%d",
		sim.Config.Probability, sim.Config.MaxGenerations, sim.Config.MaxSteps, sim.Config.Seed)

	sim.Snapshots = append(sim.Snapshots, sim.Table.Snapshot())
	sim.commit(
		[]string{fmt.Sprintf("Root process %d created as %s, generation 0", root.PID, root.Kind)},
		[]trace.EventRecord{{Kind: trace.EventCreateRoot, PID: root.PID, ProcessKind: string(root.Kind)}},
	)
}

// Step runs one scheduler iteration. It returns false once the run has
// reached a terminal state; the summary lines are emitted at that point.
func (sim *Simulator) Step() bool {
	if sim.done {
		return false
	}
	sim.Start()

	var proc *Process
	for proc == nil {
		pid, ok := sim.Active.Peek()
		if !ok {
			sim.finish(OutcomeConverged)
			return false
		}
		if sim.StepCount >= sim.Config.MaxSteps {
			sim.stop(OutcomeStepLimit, fmt.Sprintf("Simulation terminated: step limit %d reached.", sim.Config.MaxSteps))
			return false
		}
		if proc = sim.Table.Get(pid); proc == nil {
			logrus.Warnf("[step %05d] dropping stale pid %d from active set", sim.StepCount, pid)
			sim.Active.PopFront()
		}
	}

	sim.MaxGeneration = max(sim.MaxGeneration, proc.Generation)
	if sim.Config.MaxGenerations > 0 && sim.MaxGeneration >= sim.Config.MaxGenerations {
		sim.stop(OutcomeGenerationLimit, fmt.Sprintf("Maximum generation %d reached. Stopping simulation.", sim.Config.MaxGenerations))
		return false
	}

	sim.StepCount++
	env := NewEnv(sim.Table, sim.Config, sim.RNG, sim.StepCount)
	res := Execute(proc, env)
	sim.commit(env.Lines(), env.Events())

	if res.Requeue {
		sim.Active.Rotate()
	} else {
		sim.Active.PopFront()
	}
	for _, cpid := range proc.Children {
		if sim.Table.Get(cpid) != nil {
			sim.Active.Append(cpid)
		}
	}

	logrus.Debugf("[step %05d] pid=%d kind=%s changed=%v requeue=%v active=%d",
		sim.StepCount, proc.PID, proc.Kind, res.Changed, res.Requeue, sim.Active.Len())
	return true
}

// Result returns the run output collected so far.
func (sim *Simulator) Result() *Result {
	return &Result{
		Config:        sim.Config,
		Log:           sim.Log,
		Snapshots:     sim.Snapshots,
		MaxGeneration: sim.MaxGeneration,
		Outcome:       sim.Outcome,
		Steps:         sim.StepCount,
		Trace:         sim.Trace,
	}
}

// commit appends lines to the log with one snapshot per line. Every line of
// one dispatch gets its own deep copy of the state after the dispatch.
func (sim *Simulator) commit(lines []string, events []trace.EventRecord) {
	for i, line := range lines {
		if i < len(events) {
			ev := events[i]
			ev.Index = len(sim.Log)
			sim.Trace.Record(ev)
		}
		sim.Log = append(sim.Log, line)
		sim.Snapshots = append(sim.Snapshots, sim.Table.Snapshot())
	}
}

func (sim *Simulator) stop(outcome Outcome, line string) {
	logrus.Infof("[step %05d] %s", sim.StepCount, line)
	sim.commit([]string{line}, []trace.EventRecord{{Kind: trace.EventStop, Generation: sim.MaxGeneration}})
	sim.finish(outcome)
}

func (sim *Simulator) finish(outcome Outcome) {
	sim.done = true
	sim.Outcome = outcome

	lovers := sim.Table.CountKind(KindLover)
	var summary string
	if outcome == OutcomeConverged {
		summary = fmt.Sprintf("Simulation complete. All %d processes are lovers.", lovers)
	} else {
		summary = fmt.Sprintf("Simulation stopped. %d of %d processes are lovers.", lovers, sim.Table.Len())
	}
	sim.commit([]string{summary}, []trace.EventRecord{{Kind: trace.EventSummary, Count: lovers}})
	sim.commit(
		[]string{fmt.Sprintf("Maximum generation reached: %d", sim.MaxGeneration)},
		[]trace.EventRecord{{Kind: trace.EventSummary, Generation: sim.MaxGeneration}},
	)
	logrus.Infof("[step %05d] Simulation ended: %s, %d/%d lovers, max generation %d",
		sim.StepCount, outcome, lovers, sim.Table.Len(), sim.MaxGeneration)
}
