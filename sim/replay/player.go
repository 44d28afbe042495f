// Package replay provides a cursor over a finished run and timed playback
// of its frames. Frames are indexed exactly like Result.Snapshots; the
// timeline is never reordered.
package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/lovehater/sim"
	"github.com/inference-sim/lovehater/sim/layout"
)

// DefaultInterval is the delay between frames during playback.
const DefaultInterval = 800 * time.Millisecond

// ErrOutOfRange is returned by Seek for an index outside the timeline.
var ErrOutOfRange = errors.New("frame index out of range")

// Frame is one position of the timeline. Frame 0 is the initial state and
// has no line; frame i > 0 shows the state after log line i-1.
type Frame struct {
	Index    int           `json:"index"`
	Total    int           `json:"total"`
	Line     string        `json:"line,omitempty"`
	History  []string      `json:"history,omitempty"` // log lines up to and including Line, on non-sequential moves
	Snapshot *sim.Snapshot `json:"snapshot"`
	Layout   layout.Layout `json:"layout"`
	Height   float64       `json:"height"`
}

// Sink receives frames during playback.
type Sink interface {
	Send(ctx context.Context, f Frame) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, f Frame) error

// Send calls fn.
func (fn SinkFunc) Send(ctx context.Context, f Frame) error {
	return fn(ctx, f)
}

// Player is a cursor over a Result. Not safe for concurrent use.
type Player struct {
	res  *sim.Result
	pos  int
	opts layout.Options
}

// NewPlayer returns a player positioned on frame 0.
func NewPlayer(res *sim.Result, opts layout.Options) *Player {
	if res == nil || len(res.Snapshots) == 0 {
		panic("NewPlayer: result has no snapshots")
	}
	return &Player{res: res, opts: opts}
}

// Len returns the number of frames.
func (p *Player) Len() int {
	return len(p.res.Snapshots)
}

// Pos returns the current frame index.
func (p *Player) Pos() int {
	return p.pos
}

// AtEnd reports whether the cursor is on the last frame.
func (p *Player) AtEnd() bool {
	return p.pos == p.Len()-1
}

// First moves to frame 0.
func (p *Player) First() Frame {
	p.pos = 0
	return p.Frame()
}

// Last moves to the final frame.
func (p *Player) Last() Frame {
	p.pos = p.Len() - 1
	return p.Frame()
}

// Next advances one frame, staying on the last frame at the end.
func (p *Player) Next() Frame {
	p.pos = min(p.pos+1, p.Len()-1)
	return p.Frame()
}

// Prev steps back one frame, staying on frame 0 at the start.
func (p *Player) Prev() Frame {
	p.pos = max(p.pos-1, 0)
	return p.Frame()
}

// Seek moves to frame i.
func (p *Player) Seek(i int) (Frame, error) {
	if i < 0 || i >= p.Len() {
		return Frame{}, fmt.Errorf("seek %d of %d: %w", i, p.Len(), ErrOutOfRange)
	}
	p.pos = i
	return p.Frame(), nil
}

// History returns the log lines up to and including the current frame's line.
func (p *Player) History() []string {
	return p.res.Log[:p.pos]
}

// Frame builds the frame at the cursor.
func (p *Player) Frame() Frame {
	snap := p.res.Snapshots[p.pos]
	f := Frame{
		Index:    p.pos,
		Total:    p.Len(),
		Snapshot: snap,
		Layout:   layout.Compute(snap, p.opts),
		Height:   layout.Height(snap.MaxGeneration(), p.opts),
	}
	if p.pos > 0 {
		f.Line = p.res.Log[p.pos-1]
	}
	return f
}

// Play sends the current frame and every following frame to sink, waiting
// interval between frames. It stops at the last frame, on the first sink
// error, or when ctx is done; cancellation is only observed between frames.
func (p *Player) Play(ctx context.Context, interval time.Duration, sink Sink) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := sink.Send(ctx, p.Frame()); err != nil {
			return fmt.Errorf("send frame %d: %w", p.pos, err)
		}
		if p.AtEnd() {
			logrus.Debugf("playback reached final frame %d", p.pos)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		p.Next()
	}
}
