package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/lovehater/sim"
	"github.com/inference-sim/lovehater/sim/archive"
	"github.com/inference-sim/lovehater/sim/layout"
	"github.com/inference-sim/lovehater/sim/replay"
	"github.com/inference-sim/lovehater/sim/report"
	"github.com/inference-sim/lovehater/sim/trace"
)

var (
	replayFrom     int           // first frame to print
	replayTo       int           // last frame to print (-1 = final frame)
	replayPlay     bool          // print frames at playback speed
	replayInterval time.Duration // delay between frames with --play
	replayPID      int           // only frames whose line involves this pid (0 = all)
	reportFormat   string        // markdown | html
	reportMaxLines int           // cap on event log lines in reports
)

// loadArchivedResult opens the archive and rebuilds the result of run id.
func loadArchivedResult(ctx context.Context, id string) (*sim.Result, error) {
	store, err := archive.Open(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	run, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return run.Result()
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived runs",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := archive.Open(cmd.Context(), archivePath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer store.Close()
		sums, err := store.List(cmd.Context())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := printRuns(os.Stdout, sums); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func printRuns(w io.Writer, sums []archive.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tPROBABILITY\tSEED\tOUTCOME\tPROCESSES\tMAX GEN\tSTEPS")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%s\t%d\t%d\t%d\n",
			s.ID, s.CreatedAt.Format(time.RFC3339), s.Config.Probability, s.Config.Seed,
			s.Outcome, s.Processes, s.MaxGeneration, s.Steps)
	}
	return tw.Flush()
}

var deleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete an archived run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := archive.Open(cmd.Context(), archivePath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer store.Close()
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <run-id>",
	Short: "Print frames of an archived run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := loadArchivedResult(cmd.Context(), args[0])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		player := replay.NewPlayer(res, layout.DefaultOptions())
		if _, err := player.Seek(replayFrom); err != nil {
			logrus.Fatalf("%v", err)
		}
		to := replayTo
		if to < 0 || to >= player.Len() {
			to = player.Len() - 1
		}
		keep := func(int) bool { return true }
		if replayPID > 0 {
			frames, err := framesForPID(res, replayPID)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			keep = func(i int) bool { return frames[i] }
		}
		if !replayPlay {
			for i := replayFrom; i <= to; i++ {
				if !keep(i) {
					continue
				}
				f, _ := player.Seek(i)
				if err := printFrame(os.Stdout, f); err != nil {
					logrus.Fatalf("%v", err)
				}
			}
			return
		}
		sink := replay.SinkFunc(func(ctx context.Context, f replay.Frame) error {
			if f.Index > to {
				return errReplayDone
			}
			if !keep(f.Index) {
				return nil
			}
			return printFrame(os.Stdout, f)
		})
		if err := player.Play(cmd.Context(), replayInterval, sink); err != nil && !errors.Is(err, errReplayDone) {
			logrus.Fatalf("%v", err)
		}
	},
}

// framesForPID returns the frame indices whose log line was emitted by pid.
// Frame i+1 follows log line i. Needs a run recorded with event tracing.
func framesForPID(res *sim.Result, pid int) (map[int]bool, error) {
	if !res.Trace.Enabled() {
		return nil, fmt.Errorf("--pid needs a run recorded with --trace-level %s", trace.TraceLevelEvents)
	}
	frames := make(map[int]bool)
	for _, ev := range res.Trace.ForPID(pid) {
		frames[ev.Index+1] = true
	}
	return frames, nil
}

// errReplayDone stops playback once the --to frame has been printed.
var errReplayDone = errors.New("replay range done")

func printFrame(w io.Writer, f replay.Frame) error {
	line := f.Line
	if f.Index == 0 {
		line = "(initial state)"
	}
	_, err := fmt.Fprintf(w, "[%05d/%05d] %-70s lovers=%d haters=%d\n",
		f.Index, f.Total-1, line, f.Snapshot.CountKind(sim.KindLover), f.Snapshot.CountKind(sim.KindHater))
	return err
}

var reportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Write a markdown or HTML report of an archived run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := loadArchivedResult(cmd.Context(), args[0])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		opts := report.Options{RunID: args[0], MaxLines: reportMaxLines}
		switch reportFormat {
		case "markdown":
			err = report.Markdown(os.Stdout, res, opts)
		case "html":
			err = report.HTML(os.Stdout, res, opts)
		default:
			logrus.Fatalf("Unknown report format %q (want markdown or html)", reportFormat)
		}
		if err != nil {
			logrus.Fatalf("Failed to write report: %v", err)
		}
	},
}

func init() {
	replayCmd.Flags().IntVar(&replayFrom, "from", 0, "First frame to print")
	replayCmd.Flags().IntVar(&replayTo, "to", -1, "Last frame to print (-1 = final frame)")
	replayCmd.Flags().BoolVar(&replayPlay, "play", false, "Print frames at playback speed")
	replayCmd.Flags().DurationVar(&replayInterval, "interval", replay.DefaultInterval, "Delay between frames with --play")
	replayCmd.Flags().IntVar(&replayPID, "pid", 0, "Only print frames whose line was emitted by this pid (needs a traced run)")

	reportCmd.Flags().StringVar(&reportFormat, "format", "markdown", "Report format (markdown, html)")
	reportCmd.Flags().IntVar(&reportMaxLines, "max-lines", 0, "Maximum event log lines in the report (0 = all)")

	rootCmd.AddCommand(runsCmd, deleteCmd, replayCmd, reportCmd)
}
