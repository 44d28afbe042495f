package sim_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/lovehater/sim"
	"github.com/inference-sim/lovehater/sim/internal/testutil"
	"github.com/inference-sim/lovehater/sim/trace"
)

func tracedRun(p float64, maxGen int, seed int64) *sim.Result {
	cfg := sim.DefaultRunConfig()
	cfg.Probability = p
	cfg.MaxGenerations = maxGen
	cfg.Seed = seed
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
	return sim.NewSimulator(cfg, tr).Run()
}

func TestRun_Convergence_EveryProcessEndsLover(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			// GIVEN a lover-leaning population and no generation cap
			res := tracedRun(0.8, 0, seed)

			// THEN the run converges with every process a lover
			require.Equal(t, sim.OutcomeConverged, res.Outcome)
			final := res.Final()
			assert.Equal(t, final.Len(), final.CountKind(sim.KindLover))
			assert.Equal(t, fmt.Sprintf("Simulation complete. All %d processes are lovers.", final.Len()), res.Log[len(res.Log)-2])
		})
	}
}

func TestRun_Timeline_InvariantsHold(t *testing.T) {
	for _, p := range []float64{0.37, 0.5, 1.0} {
		for seed := int64(1); seed <= 5; seed++ {
			t.Run(fmt.Sprintf("p=%.2f/seed=%d", p, seed), func(t *testing.T) {
				res := tracedRun(p, 0, seed)

				// snapshots == log+1, tree shape, no reversal
				testutil.AssertTimeline(t, res)

				// converged implies all lovers
				if res.Converged() {
					final := res.Final()
					assert.Equal(t, final.Len(), final.CountKind(sim.KindLover))
				}

				// one trace record per log line
				assert.Len(t, res.Trace.Events, len(res.Log))
			})
		}
	}
}

func TestRun_SpawnedPIDs_StrictlyIncreasingAndUnique(t *testing.T) {
	// GIVEN a run that spawns many processes
	res := tracedRun(0.37, 0, 5)

	// THEN spawned pids appear in strictly increasing order starting at 2
	last := sim.RootPID
	seen := map[int]bool{sim.RootPID: true}
	for _, ev := range res.Trace.Events {
		if ev.Kind != trace.EventSpawnChild {
			continue
		}
		assert.Equal(t, last+1, ev.Peer, "spawned pid must be max(existing)+1")
		assert.False(t, seen[ev.Peer], "pid %d spawned twice", ev.Peer)
		seen[ev.Peer] = true
		last = ev.Peer
	}
	assert.Equal(t, res.Final().Len(), len(seen))
}

func TestRun_GenerationCap_NoDeeperVisit(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		res := tracedRun(0.0, 3, seed)
		assert.Equal(t, sim.OutcomeGenerationLimit, res.Outcome)
		assert.Equal(t, 3, res.MaxGeneration)
		assert.Equal(t, "Maximum generation 3 reached. Stopping simulation.", res.Log[len(res.Log)-3])
		testutil.AssertTimeline(t, res)
	}
}
