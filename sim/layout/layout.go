// Package layout computes tree coordinates for a snapshot: one horizontal
// band per generation, processes spaced evenly along it in pid order.
package layout

import "github.com/inference-sim/lovehater/sim"

// Options sizes the drawing area.
type Options struct {
	Width       float64 `json:"width"`
	LevelHeight float64 `json:"level_height"`
	Top         float64 `json:"top"`
	MinHeight   float64 `json:"min_height"`
}

// DefaultOptions matches an 800px wide canvas with 120px per generation.
func DefaultOptions() Options {
	return Options{Width: 800, LevelHeight: 120, Top: 50, MinHeight: 500}
}

// Point is the center of one process node.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout maps pid to position.
type Layout map[int]Point

// Compute places every process of snap. Pure function of its inputs.
func Compute(snap *sim.Snapshot, opts Options) Layout {
	out := make(Layout, snap.Len())
	for level, pids := range snap.ByGeneration() {
		step := opts.Width / float64(len(pids)+1)
		for i, pid := range pids {
			out[pid] = Point{
				X: float64(i+1) * step,
				Y: float64(level)*opts.LevelHeight + opts.Top,
			}
		}
	}
	return out
}

// Height returns the canvas height needed for a tree of maxGeneration.
func Height(maxGeneration int, opts Options) float64 {
	return max(opts.MinHeight, float64(maxGeneration+1)*opts.LevelHeight)
}
