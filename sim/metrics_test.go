package sim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/lovehater/sim/trace"
)

func TestNewMetrics_GenerationCapRun(t *testing.T) {
	// GIVEN an all-hater run stopped at generation 1, traced
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
	res := NewSimulator(runConfig(0.0, 1, 7), tr).Run()

	// WHEN metrics are computed
	m := NewMetrics(res)

	// THEN population, depth and spawn counts match the final snapshot
	final := res.Final()
	assert.Equal(t, OutcomeGenerationLimit, m.Outcome)
	assert.Equal(t, final.Len(), m.Processes)
	assert.Equal(t, 0, m.Lovers)
	assert.Equal(t, final.Len(), m.Haters)
	assert.Equal(t, 1, m.TreeDepth)
	assert.Equal(t, final.Len()-1, m.Spawned)
	assert.Equal(t, 0, m.MessagesUp)
	require.Len(t, m.PerGeneration, 2)
	assert.Equal(t, KindCount{Index: 0, Haters: 1}, m.PerGeneration[0])
	assert.Len(t, m.Series, len(res.Snapshots))
}

func TestSeries_TracksConversions(t *testing.T) {
	// GIVEN a converging run
	res := NewSimulator(runConfig(0.8, 0, 3), nil).Run()

	// WHEN the series is computed
	series := Series(res)

	// THEN it has one point per snapshot and ends with zero haters
	require.Len(t, series, len(res.Snapshots))
	for i, kc := range series {
		assert.Equal(t, i, kc.Index)
	}
	last := series[len(series)-1]
	assert.Equal(t, 0, last.Haters)
	assert.Equal(t, res.Final().Len(), last.Lovers)
}

func TestMetrics_Print_WritesHeaderAndJSON(t *testing.T) {
	res := NewSimulator(runConfig(1.0, 0, 1), nil).Run()
	var buf bytes.Buffer

	require.NoError(t, NewMetrics(res).Print(&buf))

	out := buf.String()
	assert.Contains(t, out, "=== Simulation Metrics ===")
	assert.Contains(t, out, `"outcome": "converged"`)
	assert.NotContains(t, out, `"series"`)
}
