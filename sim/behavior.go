// Implements the per-kind behaviors a process runs on each scheduler visit.
// Behavior is selected by the process's current Kind; converting a hater
// flips the tag, the *Process keeps its identity.

package sim

import (
	"fmt"

	"github.com/inference-sim/lovehater/sim/trace"
)

// StepResult is what one behavior invocation reports back to the scheduler.
type StepResult struct {
	Changed bool // the process mutated the table (spawn, send, convert)
	Requeue bool // rotate to the back of the active set instead of dropping
}

// Behavior is the strategy a process runs when the scheduler visits it.
type Behavior interface {
	Execute(p *Process, env *Env) StepResult
}

var behaviors = map[Kind]Behavior{
	KindHater: haterBehavior{},
	KindLover: loverBehavior{},
}

// BehaviorFor returns the strategy for kind. Panics on an unknown kind.
func BehaviorFor(kind Kind) Behavior {
	b, ok := behaviors[kind]
	if !ok {
		panic(fmt.Sprintf("BehaviorFor: unknown kind %q", kind))
	}
	return b
}

// Execute dispatches p to the behavior of its current kind.
func Execute(p *Process, env *Env) StepResult {
	return BehaviorFor(p.Kind).Execute(p, env)
}

// Env is the shared state a behavior runs against, plus the log lines and
// event records it produced during this dispatch.
type Env struct {
	Table  *Table
	Config RunConfig
	RNG    *PartitionedRNG
	Step   int

	lines  []string
	events []trace.EventRecord
}

// NewEnv returns an Env for one dispatch.
func NewEnv(table *Table, cfg RunConfig, rng *PartitionedRNG, step int) *Env {
	return &Env{Table: table, Config: cfg, RNG: rng, Step: step}
}

// Lines returns the log lines emitted so far in this dispatch.
func (e *Env) Lines() []string {
	return e.lines
}

// Events returns the event records emitted so far in this dispatch.
func (e *Env) Events() []trace.EventRecord {
	return e.events
}

func (e *Env) emit(rec trace.EventRecord, format string, args ...any) {
	rec.Step = e.Step
	e.lines = append(e.lines, fmt.Sprintf(format, args...))
	e.events = append(e.events, rec)
}

// broadcast writes the love token to every child pipe of p.
func (e *Env) broadcast(p *Process) {
	for _, cpid := range p.Children {
		pipe := e.Table.ChildPipe(p, cpid)
		if pipe == nil {
			continue
		}
		pipe.Write(LoveToken)
		e.emit(trace.EventRecord{Kind: trace.EventSendChild, PID: p.PID, Peer: cpid, Generation: p.Generation, ProcessKind: string(p.Kind)},
			"Process %d sent love (%d) to child %d", p.PID, LoveToken, cpid)
	}
}

// haterBehavior converts on love from either direction, and otherwise
// spawns children once and waits for them.
type haterBehavior struct{}

func (haterBehavior) Execute(p *Process, env *Env) StepResult {
	t := env.Table

	if pipe := t.ParentPipe(p); pipe != nil {
		if msgs := pipe.Read(); len(msgs) > 0 {
			p.Kind = KindLover
			env.emit(trace.EventRecord{Kind: trace.EventReceiveParent, PID: p.PID, Peer: p.ParentPID, Generation: p.Generation, ProcessKind: string(p.Kind)},
				"Process %d (hater) received love from parent, becoming lover", p.PID)
			env.broadcast(p)
			return StepResult{Changed: true, Requeue: false}
		}
	}

	changed := false
	if len(p.Children) == 0 {
		cfg := env.Config
		n := cfg.MinChildren + env.RNG.ForSubsystem(SubsystemSpawn).Intn(cfg.MaxChildren-cfg.MinChildren+1)
		env.emit(trace.EventRecord{Kind: trace.EventSpawnBatch, PID: p.PID, Generation: p.Generation, ProcessKind: string(p.Kind), Count: n},
			"Process %d (hater) creating %d children", p.PID, n)
		for i := 0; i < n; i++ {
			child := t.Spawn(p, DrawKind(env.RNG.ForSubsystem(SubsystemKind), cfg.Probability))
			env.emit(trace.EventRecord{Kind: trace.EventSpawnChild, PID: p.PID, Peer: child.PID, Generation: child.Generation, ProcessKind: string(child.Kind)},
				"Child %d created as %s, generation %d", child.PID, child.Kind, child.Generation)
		}
		changed = true
	}

	received := 0
	for _, cpid := range p.Children {
		child := t.Get(cpid)
		if child == nil || child.Kind != KindLover {
			continue
		}
		pipe := t.ChildPipe(p, cpid)
		if pipe == nil {
			continue
		}
		if msgs := pipe.Read(); len(msgs) > 0 {
			received += len(msgs)
			env.emit(trace.EventRecord{Kind: trace.EventReceiveChild, PID: p.PID, Peer: cpid, Generation: p.Generation, ProcessKind: string(p.Kind)},
				"Process %d received love (%d) from child %d", p.PID, LoveToken, cpid)
		}
	}

	if received > 0 {
		p.Kind = KindLover
		env.emit(trace.EventRecord{Kind: trace.EventConvert, PID: p.PID, Generation: p.Generation, ProcessKind: string(p.Kind)},
			"Process %d (hater) received love from child, becoming lover", p.PID)
		env.broadcast(p)
		return StepResult{Changed: true, Requeue: false}
	}

	return StepResult{Changed: changed, Requeue: true}
}

// loverBehavior notifies the parent once and goes dormant.
type loverBehavior struct{}

func (loverBehavior) Execute(p *Process, env *Env) StepResult {
	pipe := env.Table.ParentPipe(p)
	if pipe == nil || pipe.Contains(LoveToken) {
		return StepResult{}
	}
	pipe.Write(LoveToken)
	env.emit(trace.EventRecord{Kind: trace.EventSendParent, PID: p.PID, Peer: p.ParentPID, Generation: p.Generation, ProcessKind: string(p.Kind)},
		"Process %d (lover) sent love (%d) to parent %d", p.PID, LoveToken, p.ParentPID)
	return StepResult{Changed: true}
}
