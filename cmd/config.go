package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sim "github.com/inference-sim/lovehater/sim"
)

// RunFile is the YAML run configuration file.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type RunFile struct {
	Version string        `yaml:"version"`
	Run     sim.RunConfig `yaml:"run"`
}

// loadRunFile parses path on top of base. Fields absent from the file keep
// their base value. Uses strict field checking: typos must cause errors.
func loadRunFile(path string, base sim.RunConfig) (sim.RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read run config %s: %w", path, err)
	}
	file := RunFile{Run: base}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return base, fmt.Errorf("parse run config %s: %w", path, err)
	}
	if file.Version != "" && file.Version != "1" {
		return base, fmt.Errorf("run config %s: unsupported version %q", path, file.Version)
	}
	return file.Run, nil
}

// resolveRunConfig layers defaults, the --config file, and explicitly set
// flags, in that order, then clamps out-of-range values.
func resolveRunConfig(cmd *cobra.Command) (sim.RunConfig, error) {
	cfg := sim.DefaultRunConfig()
	if configPath != "" {
		var err error
		if cfg, err = loadRunFile(configPath, cfg); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("probability") {
		cfg.Probability = probability
	}
	if flags.Changed("max-generations") {
		cfg.MaxGenerations = maxGenerations
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("min-children") {
		cfg.MinChildren = minChildren
	}
	if flags.Changed("max-children") {
		cfg.MaxChildren = maxChildren
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}

	for _, note := range cfg.Normalize() {
		logrus.Warnf("run config: %s", note)
	}
	return cfg, nil
}
