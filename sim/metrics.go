// Tracks run-wide metrics: final population by kind, depth, dispatches,
// message traffic, and a per-snapshot lover/hater series for charts.

package sim

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/inference-sim/lovehater/sim/trace"
)

// KindCount is the lover/hater split at one snapshot index.
type KindCount struct {
	Index  int `json:"index"`
	Lovers int `json:"lovers"`
	Haters int `json:"haters"`
}

// Metrics aggregates statistics about a run for final reporting.
type Metrics struct {
	Outcome       Outcome `json:"outcome"`
	Steps         int     `json:"steps"`
	LogLines      int     `json:"log_lines"`
	Processes     int     `json:"processes"`
	Lovers        int     `json:"lovers"`
	Haters        int     `json:"haters"`
	MaxGeneration int     `json:"max_generation"` // deepest generation visited by the scheduler
	TreeDepth     int     `json:"tree_depth"`     // deepest generation present in the final tree

	MessagesUp   int `json:"messages_up"`
	MessagesDown int `json:"messages_down"`
	Conversions  int `json:"conversions"`
	Spawned      int `json:"spawned"`

	PerGeneration []KindCount `json:"per_generation"` // Index = generation
	Series        []KindCount `json:"series,omitempty"`
}

// NewMetrics computes metrics for res. Traffic counters are zero when the
// run was not traced.
func NewMetrics(res *Result) *Metrics {
	m := &Metrics{
		Outcome:       res.Outcome,
		Steps:         res.Steps,
		LogLines:      len(res.Log),
		MaxGeneration: res.MaxGeneration,
	}
	if final := res.Final(); final != nil {
		m.Processes = final.Len()
		m.Lovers = final.CountKind(KindLover)
		m.Haters = final.CountKind(KindHater)
		m.TreeDepth = final.MaxGeneration()
		m.PerGeneration = perGeneration(final)
	}
	if res.Trace.Enabled() {
		s := trace.Summarize(res.Trace)
		m.MessagesUp = s.MessagesUp
		m.MessagesDown = s.MessagesDown
		m.Conversions = s.Conversions
		m.Spawned = s.Spawned
	}
	m.Series = Series(res)
	return m
}

// Series returns the lover/hater split at every snapshot index.
func Series(res *Result) []KindCount {
	out := make([]KindCount, len(res.Snapshots))
	for i, snap := range res.Snapshots {
		out[i] = KindCount{Index: i, Lovers: snap.CountKind(KindLover), Haters: snap.CountKind(KindHater)}
	}
	return out
}

func perGeneration(snap *Snapshot) []KindCount {
	levels := snap.ByGeneration()
	out := make([]KindCount, len(levels))
	for g, pids := range levels {
		out[g].Index = g
		for _, pid := range pids {
			if snap.Processes[pid].Kind == KindLover {
				out[g].Lovers++
			} else {
				out[g].Haters++
			}
		}
	}
	return out
}

// Print writes the metrics as an indented JSON block. The series is omitted.
func (m *Metrics) Print(w io.Writer) error {
	cp := *m
	cp.Series = nil
	data, err := json.MarshalIndent(&cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if _, err := fmt.Fprintf(w, "=== Simulation Metrics ===\n%s\n", data); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
