package sim

import (
	"fmt"
	"math"
)

const (
	DefaultProbability = 0.37  // weight of a new process being a lover
	DefaultMaxSteps    = 10000 // dispatch cap that guarantees termination
	DefaultMinChildren = 2     // inclusive lower bound of a hater's spawn batch
	DefaultMaxChildren = 3     // inclusive upper bound of a hater's spawn batch
	DefaultSeed        = 42
	RootPID            = 1
)

// RunConfig groups the parameters of a single run. The probability is
// threaded into every construction and spawn call; there is no global.
type RunConfig struct {
	Probability    float64 `yaml:"probability" json:"probability"`         // 0.0-1.0
	MaxGenerations int     `yaml:"max_generations" json:"max_generations"` // 0 = unlimited
	MaxSteps       int     `yaml:"max_steps" json:"max_steps"`             // dispatch cap
	MinChildren    int     `yaml:"min_children" json:"min_children"`
	MaxChildren    int     `yaml:"max_children" json:"max_children"`
	Seed           int64   `yaml:"seed" json:"seed"`
}

// DefaultRunConfig returns the configuration used when nothing is overridden.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Probability: DefaultProbability,
		MaxSteps:    DefaultMaxSteps,
		MinChildren: DefaultMinChildren,
		MaxChildren: DefaultMaxChildren,
		Seed:        DefaultSeed,
	}
}

// Normalize clamps out-of-range values in place and returns one message per
// adjustment. The engine assumes a normalized config.
func (c *RunConfig) Normalize() []string {
	var notes []string
	if math.IsNaN(c.Probability) || c.Probability < 0 || c.Probability > 1 {
		clamped := DefaultProbability
		if !math.IsNaN(c.Probability) {
			clamped = min(max(c.Probability, 0), 1)
		}
		notes = append(notes, fmt.Sprintf("probability %v clamped to %v", c.Probability, clamped))
		c.Probability = clamped
	}
	if c.MaxGenerations < 0 {
		notes = append(notes, fmt.Sprintf("max generations %d clamped to 0 (unlimited)", c.MaxGenerations))
		c.MaxGenerations = 0
	}
	if c.MaxSteps <= 0 {
		notes = append(notes, fmt.Sprintf("max steps %d replaced by default %d", c.MaxSteps, DefaultMaxSteps))
		c.MaxSteps = DefaultMaxSteps
	}
	if c.MinChildren < 1 {
		notes = append(notes, fmt.Sprintf("min children %d clamped to 1", c.MinChildren))
		c.MinChildren = 1
	}
	if c.MaxChildren < c.MinChildren {
		notes = append(notes, fmt.Sprintf("max children %d raised to min children %d", c.MaxChildren, c.MinChildren))
		c.MaxChildren = c.MinChildren
	}
	return notes
}
