// Package archive persists finished runs in a bbolt file so they can be
// listed, replayed and reported on later.
//
// Two buckets are used: "runs" holds the full JSON-encoded Run keyed by
// run id, "index" holds a small Summary per run so listing never decodes
// a whole timeline.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/inference-sim/lovehater/sim"
	"github.com/inference-sim/lovehater/sim/trace"
)

var (
	runsBucket  = []byte("runs")
	indexBucket = []byte("index")
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Summary is the listing entry of an archived run.
type Summary struct {
	ID            string        `json:"id"`
	CreatedAt     time.Time     `json:"created_at"`
	Config        sim.RunConfig `json:"config"`
	Outcome       sim.Outcome   `json:"outcome"`
	MaxGeneration int           `json:"max_generation"`
	Steps         int           `json:"steps"`
	Processes     int           `json:"processes"`
	LogLines      int           `json:"log_lines"`
}

// Run is the archived form of a sim.Result. Consecutive identical snapshots
// are stored once in Frames; FrameIndex[i] is the frame of Result.Snapshots[i].
type Run struct {
	Summary
	Log        []string            `json:"log"`
	Frames     []*sim.Snapshot     `json:"frames"`
	FrameIndex []int               `json:"frame_index"`
	Events     []trace.EventRecord `json:"events,omitempty"`
}

// NewRun converts a result into an archivable run with a fresh id.
func NewRun(res *sim.Result) *Run {
	run := &Run{
		Summary: Summary{
			ID:            uuid.NewString(),
			CreatedAt:     time.Now().UTC(),
			Config:        res.Config,
			Outcome:       res.Outcome,
			MaxGeneration: res.MaxGeneration,
			Steps:         res.Steps,
			LogLines:      len(res.Log),
		},
		Log:        res.Log,
		FrameIndex: make([]int, len(res.Snapshots)),
	}
	if final := res.Final(); final != nil {
		run.Processes = final.Len()
	}
	for i, snap := range res.Snapshots {
		if n := len(run.Frames); n == 0 || !run.Frames[n-1].Equal(snap) {
			run.Frames = append(run.Frames, snap)
		}
		run.FrameIndex[i] = len(run.Frames) - 1
	}
	if res.Trace.Enabled() {
		run.Events = res.Trace.Events
	}
	return run
}

// Result rebuilds the replayable result.
func (r *Run) Result() (*sim.Result, error) {
	res := &sim.Result{
		Config:        r.Config,
		Log:           r.Log,
		Snapshots:     make([]*sim.Snapshot, len(r.FrameIndex)),
		MaxGeneration: r.MaxGeneration,
		Outcome:       r.Outcome,
		Steps:         r.Steps,
	}
	for i, frame := range r.Frames {
		for pid, st := range frame.Processes {
			if !sim.IsValidKind(string(st.Kind)) {
				return nil, fmt.Errorf("run %s: frame %d: pid %d has unknown kind %q", r.ID, i, pid, st.Kind)
			}
		}
	}
	used := make([]bool, len(r.Frames))
	for i, idx := range r.FrameIndex {
		if idx < 0 || idx >= len(r.Frames) {
			return nil, fmt.Errorf("run %s: frame index %d at position %d out of range", r.ID, idx, i)
		}
		if used[idx] {
			res.Snapshots[i] = r.Frames[idx].Clone()
		} else {
			res.Snapshots[i] = r.Frames[idx]
			used[idx] = true
		}
	}
	if len(res.Snapshots) != len(res.Log)+1 {
		return nil, fmt.Errorf("run %s: %d snapshots for %d log lines", r.ID, len(res.Snapshots), len(res.Log))
	}
	if len(r.Events) > 0 {
		res.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
		res.Trace.Events = r.Events
	}
	return res, nil
}

// Store is a bbolt-backed run archive.
type Store struct {
	filename string
	db       *bolt.DB
}

// Open opens (creating if needed) the archive file.
func Open(ctx context.Context, filename string) (*Store, error) {
	db, err := bolt.Open(filename, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", filename, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{runsBucket, indexBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init archive %s: %w", filename, err)
	}
	logrus.Debugf("archive %s opened", filename)
	return &Store{filename: filename, db: db}, nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes run and its summary.
func (s *Store) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return errors.New("save run: empty id")
	}
	body, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.ID, err)
	}
	sum, err := json.Marshal(&run.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary %s: %w", run.ID, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(runsBucket).Put([]byte(run.ID), body); err != nil {
			return err
		}
		return tx.Bucket(indexBucket).Put([]byte(run.ID), sum)
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	logrus.Debugf("archive: saved run %s (%d bytes, %d frames)", run.ID, len(body), len(run.Frames))
	return nil
}

// Load returns the run with the given id.
func (s *Store) Load(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket(runsBucket).Get([]byte(id))
		if bs == nil {
			return ErrRunNotFound
		}
		return json.Unmarshal(bs, &run)
	})
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return &run, nil
}

// List returns the summaries of all runs, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	sums := make([]Summary, 0, 16)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(indexBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var sum Summary
			if err := json.Unmarshal(v, &sum); err != nil {
				return fmt.Errorf("decode summary %s: %w", k, err)
			}
			sums = append(sums, sum)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	sort.SliceStable(sums, func(i, j int) bool {
		return sums[i].CreatedAt.After(sums[j].CreatedAt)
	})
	return sums, nil
}

// Delete removes a run. Deleting an unknown id returns ErrRunNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(runsBucket)
		if runs.Get([]byte(id)) == nil {
			return ErrRunNotFound
		}
		if err := runs.Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(indexBucket).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}
