package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/inference-sim/lovehater/sim"
	"github.com/inference-sim/lovehater/sim/trace"
)

func cappedConfig() sim.RunConfig {
	cfg := sim.DefaultRunConfig()
	cfg.Probability = 0
	cfg.MaxGenerations = 1
	cfg.Seed = 7
	return cfg
}

func TestWriteResult_Text_NumbersLinesAndPrintsMetrics(t *testing.T) {
	// GIVEN a finished run
	res := simulate(cappedConfig(), trace.TraceLevelEvents)
	var buf bytes.Buffer

	// WHEN written as text with a run id
	require.NoError(t, writeResult(&buf, res, "text", "run-1"))
	out := buf.String()

	// THEN every log line is numbered and metrics follow
	assert.True(t, strings.HasPrefix(out, "[00000] Root process 1 created as hater, generation 0\n"))
	assert.Contains(t, out, "Run ID: run-1")
	assert.Contains(t, out, "=== Simulation Metrics ===")
	assert.Contains(t, out, `"outcome": "generation-limit"`)
}

func TestWriteResult_JSON_CarriesLogAndMetrics(t *testing.T) {
	res := simulate(cappedConfig(), trace.TraceLevelNone)
	var buf bytes.Buffer

	require.NoError(t, writeResult(&buf, res, "json", ""))

	var out struct {
		RunID   string          `json:"run_id"`
		Metrics json.RawMessage `json:"metrics"`
		Log     []string        `json:"log"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Empty(t, out.RunID)
	assert.Equal(t, res.Log, out.Log)
	assert.NotEmpty(t, out.Metrics)
}

func TestWriteResult_ReportFormats(t *testing.T) {
	res := simulate(cappedConfig(), trace.TraceLevelNone)

	var md bytes.Buffer
	require.NoError(t, writeResult(&md, res, "markdown", "abc"))
	assert.Contains(t, md.String(), "## Event log")

	var html bytes.Buffer
	require.NoError(t, writeResult(&html, res, "html", "abc"))
	assert.Contains(t, html.String(), "<div class=\"report\">")
}

func TestWriteResult_UnknownFormat(t *testing.T) {
	res := simulate(cappedConfig(), trace.TraceLevelNone)
	err := writeResult(&bytes.Buffer{}, res, "yaml", "")
	assert.Error(t, err)
}

func TestRunCmd_FlagDefaults_MatchRunConfigDefaults(t *testing.T) {
	// GIVEN the registered run flags
	def := sim.DefaultRunConfig()
	flags := runCmd.Flags()

	// THEN every default mirrors DefaultRunConfig
	for name, want := range map[string]string{
		"probability":     "0.37",
		"max-generations": "0",
		"max-steps":       "10000",
		"min-children":    "2",
		"max-children":    "3",
		"seed":            "42",
	} {
		f := flags.Lookup(name)
		require.NotNil(t, f, "flag %s", name)
		assert.Equal(t, want, f.DefValue, "flag %s", name)
	}
	assert.Equal(t, 0.37, def.Probability)
	assert.Equal(t, "events", flags.Lookup("trace-level").DefValue)
}

func TestSimulate_SameSeed_SameLog(t *testing.T) {
	cfg := sim.DefaultRunConfig()
	cfg.Seed = 99
	a := simulate(cfg, trace.TraceLevelNone)
	b := simulate(cfg, trace.TraceLevelNone)
	assert.Equal(t, a.Log, b.Log)
}

func TestParseQoS(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		q, err := parseQoS(n)
		require.NoError(t, err)
		assert.Equal(t, byte(n), q)
	}
	for _, n := range []int{-1, 3, 7} {
		_, err := parseQoS(n)
		assert.Error(t, err, "qos %d", n)
	}
}
