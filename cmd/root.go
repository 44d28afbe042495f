package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/lovehater/sim"
	"github.com/inference-sim/lovehater/sim/archive"
	"github.com/inference-sim/lovehater/sim/report"
	"github.com/inference-sim/lovehater/sim/trace"
)

var (
	// Global flags
	logLevel    string // Log verbosity level
	archivePath string // bbolt file holding archived runs

	// Run configuration flags
	configPath     string  // YAML run config file
	probability    float64 // Weight of a new process being a lover
	maxGenerations int     // Stop once this generation is visited (0 = unlimited)
	maxSteps       int     // Dispatch cap
	minChildren    int     // Lower bound of a hater's spawn batch
	maxChildren    int     // Upper bound of a hater's spawn batch
	seed           int64   // Seed for all random draws

	// Output flags for `run`
	traceLevel   string // none | events
	outputFormat string // text | json | markdown | html
	saveRun      bool   // archive the run
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "lovehater",
	Short: "Replayable simulation of a process tree converging to lovers",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes one simulation using parameters from the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation and print its event log",
	Run: func(cmd *cobra.Command, args []string) {
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}
		cfg, err := resolveRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		res := simulate(cfg, trace.TraceLevel(traceLevel))

		runID := ""
		if saveRun {
			runID, err = archiveResult(cmd.Context(), res)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Run archived as %s in %s", runID, archivePath)
		}

		if err := writeResult(os.Stdout, res, outputFormat, runID); err != nil {
			logrus.Fatalf("Failed to write result: %v", err)
		}
	},
}

// simulate runs cfg to completion.
func simulate(cfg sim.RunConfig, level trace.TraceLevel) *sim.Result {
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: level})
	return sim.NewSimulator(cfg, tr).Run()
}

func archiveResult(ctx context.Context, res *sim.Result) (string, error) {
	store, err := archive.Open(ctx, archivePath)
	if err != nil {
		return "", err
	}
	defer store.Close()
	run := archive.NewRun(res)
	if err := store.Save(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// writeResult prints res in the requested format.
func writeResult(w io.Writer, res *sim.Result, format, runID string) error {
	switch format {
	case "text", "":
		for i, line := range res.Log {
			if _, err := fmt.Fprintf(w, "[%05d] %s\n", i, line); err != nil {
				return err
			}
		}
		if runID != "" {
			fmt.Fprintf(w, "Run ID: %s\n", runID)
		}
		return sim.NewMetrics(res).Print(w)
	case "json":
		out := struct {
			RunID   string       `json:"run_id,omitempty"`
			Metrics *sim.Metrics `json:"metrics"`
			Log     []string     `json:"log"`
		}{runID, sim.NewMetrics(res), res.Log}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(&out)
	case "markdown":
		return report.Markdown(w, res, report.Options{RunID: runID})
	case "html":
		return report.HTML(w, res, report.Options{RunID: runID})
	default:
		return fmt.Errorf("unknown output format %q (want text, json, markdown or html)", format)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addRunFlags registers the run configuration flags on cmd.
func addRunFlags(cmd *cobra.Command) {
	def := sim.DefaultRunConfig()
	cmd.Flags().StringVar(&configPath, "config", "", "YAML run config file (flags override its values)")
	cmd.Flags().Float64Var(&probability, "probability", def.Probability, "Probability that a new process is a lover (0.0-1.0)")
	cmd.Flags().IntVar(&maxGenerations, "max-generations", def.MaxGenerations, "Stop once a process of this generation is visited (0 = unlimited)")
	cmd.Flags().IntVar(&maxSteps, "max-steps", def.MaxSteps, "Maximum number of scheduler steps")
	cmd.Flags().IntVar(&minChildren, "min-children", def.MinChildren, "Minimum children spawned by a hater")
	cmd.Flags().IntVar(&maxChildren, "max-children", def.MaxChildren, "Maximum children spawned by a hater")
	cmd.Flags().Int64Var(&seed, "seed", def.Seed, "Seed for all random draws")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&archivePath, "db", "lovehater.db", "Run archive file")

	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelEvents), "Event tracing (none, events)")
	runCmd.Flags().StringVar(&outputFormat, "format", "text", "Output format (text, json, markdown, html)")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "Archive the run so it can be replayed later")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
