package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRunConfig_FieldEquivalence(t *testing.T) {
	got := DefaultRunConfig()
	want := RunConfig{
		Probability: 0.37,
		MaxSteps:    10000,
		MinChildren: 2,
		MaxChildren: 3,
		Seed:        42,
	}
	assert.Equal(t, want, got)
}

func TestRunConfig_Normalize_ValidConfig_NoNotes(t *testing.T) {
	cfg := DefaultRunConfig()
	assert.Empty(t, cfg.Normalize())
	assert.Equal(t, DefaultRunConfig(), cfg)
}

func TestRunConfig_Normalize_Clamps(t *testing.T) {
	tests := []struct {
		name  string
		in    RunConfig
		check func(t *testing.T, c RunConfig)
	}{
		{"probability above 1", RunConfig{Probability: 2, MaxSteps: 1, MinChildren: 2, MaxChildren: 3},
			func(t *testing.T, c RunConfig) { assert.Equal(t, 1.0, c.Probability) }},
		{"probability below 0", RunConfig{Probability: -0.5, MaxSteps: 1, MinChildren: 2, MaxChildren: 3},
			func(t *testing.T, c RunConfig) { assert.Equal(t, 0.0, c.Probability) }},
		{"probability NaN", RunConfig{Probability: math.NaN(), MaxSteps: 1, MinChildren: 2, MaxChildren: 3},
			func(t *testing.T, c RunConfig) { assert.Equal(t, DefaultProbability, c.Probability) }},
		{"negative generation cap", RunConfig{MaxGenerations: -1, MaxSteps: 1, MinChildren: 2, MaxChildren: 3},
			func(t *testing.T, c RunConfig) { assert.Equal(t, 0, c.MaxGenerations) }},
		{"zero step cap", RunConfig{MinChildren: 2, MaxChildren: 3},
			func(t *testing.T, c RunConfig) { assert.Equal(t, DefaultMaxSteps, c.MaxSteps) }},
		{"inverted child bounds", RunConfig{MaxSteps: 1, MinChildren: 4, MaxChildren: 2},
			func(t *testing.T, c RunConfig) { assert.Equal(t, 4, c.MaxChildren) }},
		{"zero min children", RunConfig{MaxSteps: 1, MinChildren: 0, MaxChildren: 3},
			func(t *testing.T, c RunConfig) { assert.Equal(t, 1, c.MinChildren) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			notes := cfg.Normalize()
			assert.Len(t, notes, 1, "expected exactly one adjustment, got %v", notes)
			tt.check(t, cfg)
		})
	}
}
