// Package report renders a finished run as a markdown document, and as HTML
// through blackfriday.
package report

import (
	"fmt"
	"io"
	"strings"

	md "github.com/russross/blackfriday/v2"

	"github.com/inference-sim/lovehater/sim"
)

// Options controls what the report includes.
type Options struct {
	Title    string
	RunID    string // optional, shown in the header
	MaxLines int    // cap on event log lines, 0 = all
}

// Markdown writes the report for res as markdown.
func Markdown(w io.Writer, res *sim.Result, opts Options) error {
	m := sim.NewMetrics(res)
	var b strings.Builder
	f := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	title := opts.Title
	if title == "" {
		title = "Lover / hater simulation"
	}
	f("# %s", title)
	f("")
	if opts.RunID != "" {
		f("Run `%s`", opts.RunID)
		f("")
	}

	f("## Configuration")
	f("")
	f("| parameter | value |")
	f("|---|---|")
	f("| probability | %.2f |", res.Config.Probability)
	f("| max generations | %s |", orUnlimited(res.Config.MaxGenerations))
	f("| max steps | %d |", res.Config.MaxSteps)
	f("| children per spawn | %d-%d |", res.Config.MinChildren, res.Config.MaxChildren)
	f("| seed | %d |", res.Config.Seed)
	f("")

	f("## Outcome")
	f("")
	f("- outcome: **%s**", m.Outcome)
	f("- processes: %d (%d lovers, %d haters)", m.Processes, m.Lovers, m.Haters)
	f("- max generation reached: %d", m.MaxGeneration)
	f("- scheduler steps: %d", m.Steps)
	if res.Trace.Enabled() {
		f("- messages up: %d, down: %d, conversions: %d", m.MessagesUp, m.MessagesDown, m.Conversions)
	}
	f("")

	f("## Generations")
	f("")
	f("| generation | lovers | haters |")
	f("|---|---|---|")
	for _, g := range m.PerGeneration {
		f("| %d | %d | %d |", g.Index, g.Lovers, g.Haters)
	}
	f("")

	f("## Event log")
	f("")
	lines := res.Log
	if opts.MaxLines > 0 && len(lines) > opts.MaxLines {
		lines = lines[:opts.MaxLines]
	}
	for i, line := range lines {
		f("%d. %s", i+1, line)
	}
	if len(lines) < len(res.Log) {
		f("")
		f("_%d more lines omitted._", len(res.Log)-len(lines))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// HTML writes the report for res as an HTML fragment.
func HTML(w io.Writer, res *sim.Result, opts Options) error {
	var src strings.Builder
	if err := Markdown(&src, res, opts); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "<div class=\"report\">\n%s</div>\n", md.Run([]byte(src.String())))
	return err
}

func orUnlimited(n int) string {
	if n == 0 {
		return "unlimited"
	}
	return fmt.Sprint(n)
}
